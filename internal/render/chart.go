package render

import (
	"fmt"
	"strings"
)

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders values as a row of Unicode block characters,
// normalized to the series' own min/max. A flat series renders at the
// middle level; an empty series renders as nothing.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	var sb strings.Builder
	for _, v := range values {
		level := 3
		if max > min {
			level = int((v - min) / (max - min) * 7)
		}
		sb.WriteRune(sparkLevels[level])
	}
	return sb.String()
}

// ProgressBar renders a fixed-width bar like "[=====...............]  25%".
// fraction is clamped to [0, 1].
func ProgressBar(fraction float64, width int) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction*float64(width) + 0.5)

	var sb strings.Builder
	sb.WriteByte('[')
	sb.WriteString(strings.Repeat("=", filled))
	sb.WriteString(strings.Repeat(".", width-filled))
	sb.WriteByte(']')
	fmt.Fprintf(&sb, " %3d%%", int(fraction*100+0.5))
	return sb.String()
}

// formatNumber groups digits with commas: 1234567 -> "1,234,567".
func formatNumber(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	digits := []byte{}
	if n == 0 {
		digits = append(digits, '0')
	}
	for i := 0; n > 0; i++ {
		if i > 0 && i%3 == 0 {
			digits = append(digits, ',')
		}
		digits = append(digits, byte('0'+n%10))
		n /= 10
	}
	if neg {
		digits = append(digits, '-')
	}
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	return string(digits)
}
