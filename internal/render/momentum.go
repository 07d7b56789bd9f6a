package render

import (
	"fmt"

	"github.com/ryanckelly/farmhand/internal/diary"
)

// Momentum classifications over a trailing window of sessions.
type Momentum struct {
	Window    int
	Available int
	Hot       []Streak
	Cold      []Streak
	Rising    []Streak
	Stalled   []Streak
}

// Enough reports whether the log held a full window of sessions.
func (m Momentum) Enough() bool { return m.Available >= m.Window }

// Streak is one classified category with display text.
type Streak struct {
	Category    string
	Description string
}

// Per-session averages that separate a hot streak from a stall.
const (
	hotBundlesPerSession = 1.5
	hotXPPerSession      = 500
	coldXPPerSession     = 100
	hotGoldPerSession    = 40000
	coldGoldPerSession   = 10000
	hotHeartPoints       = 200
)

// AnalyzeMomentum classifies the last window sessions into hot and
// cold streaks per category. A short log returns Available so callers
// can say how many sessions are still needed.
func AnalyzeMomentum(entries []diary.Entry, window int) Momentum {
	m := Momentum{Window: window, Available: len(entries)}
	if len(entries) < window {
		return m
	}
	recent := entries[len(entries)-window:]

	m.analyzeBundles(recent)
	m.analyzeSkills(recent)
	m.analyzeMoney(recent)
	m.analyzeSocial(recent)
	return m
}

func (m *Momentum) analyzeBundles(sessions []diary.Entry) {
	total := 0
	for _, s := range sessions {
		total += s.Delta.BundlesComplete
	}
	avg := float64(total) / float64(len(sessions))

	switch {
	case avg >= hotBundlesPerSession:
		m.Hot = append(m.Hot, Streak{"Bundles", fmt.Sprintf("Bundle completion (+%.1f/session)", avg)})
	case total == 0:
		m.Cold = append(m.Cold, Streak{"Bundles", fmt.Sprintf("No bundle progress in %d sessions", len(sessions))})
	}

	// A back-loaded window means momentum is building.
	if len(sessions) >= 3 {
		half := len(sessions) / 2
		first, second := 0, 0
		for _, s := range sessions[:half] {
			first += s.Delta.BundlesComplete
		}
		for _, s := range sessions[half:] {
			second += s.Delta.BundlesComplete
		}
		if second > first && second > 0 {
			m.Rising = append(m.Rising, Streak{"Bundles", fmt.Sprintf("Bundle momentum building (%d->%d)", first, second)})
		}
	}
}

func (m *Momentum) analyzeSkills(sessions []diary.Entry) {
	totalXP := 0
	for _, s := range sessions {
		totalXP += s.Delta.TotalXP()
	}
	avg := float64(totalXP) / float64(len(sessions))

	switch {
	case avg >= hotXPPerSession:
		m.Hot = append(m.Hot, Streak{"Skills", fmt.Sprintf("High XP gains (+%d/session)", int(avg))})
	case avg < coldXPPerSession:
		m.Cold = append(m.Cold, Streak{"Skills", fmt.Sprintf("Low skill progress (%d XP/session)", int(avg))})
	}
}

func (m *Momentum) analyzeMoney(sessions []diary.Entry) {
	var total int64
	for _, s := range sessions {
		total += s.Delta.Money
	}
	avg := total / int64(len(sessions))

	switch {
	case avg >= hotGoldPerSession:
		m.Hot = append(m.Hot, Streak{"Money", fmt.Sprintf("Strong earnings (+%sg/session)", formatNumber(avg))})
	case avg < 0:
		m.Cold = append(m.Cold, Streak{"Money", fmt.Sprintf("Net losses (%sg/session)", formatNumber(avg))})
	case avg < coldGoldPerSession:
		m.Stalled = append(m.Stalled, Streak{"Money", fmt.Sprintf("Low income (%sg/session)", formatNumber(avg))})
	}
}

func (m *Momentum) analyzeSocial(sessions []diary.Entry) {
	total := 0
	for _, s := range sessions {
		for _, pts := range s.Delta.Friendships {
			total += pts
		}
	}
	avg := float64(total) / float64(len(sessions))

	switch {
	case avg >= hotHeartPoints:
		m.Hot = append(m.Hot, Streak{"Social", fmt.Sprintf("Strong relationships (+%d pts/session)", int(avg))})
	case total <= 0:
		m.Cold = append(m.Cold, Streak{"Social", "No relationship progress"})
	}
}
