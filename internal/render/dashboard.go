// Package render draws the save state as a terminal dashboard and as
// a static HTML page. It is display-only and never writes game or
// diary data.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ryanckelly/farmhand/internal/bundle"
	"github.com/ryanckelly/farmhand/internal/diary"
	"github.com/ryanckelly/farmhand/internal/metrics"
	"github.com/ryanckelly/farmhand/internal/snapshot"
)

const dashboardWidth = 70

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Width(dashboardWidth).
			Align(lipgloss.Center)
	sectionStyle = lipgloss.NewStyle().Bold(true)
	ruleStyle    = lipgloss.NewStyle().Faint(true)
	hotStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	coldStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	stallStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// Dashboard collects everything the terminal view shows. Assemble is
// the only constructor; its inputs all come from the stores.
type Dashboard struct {
	Snapshot *snapshot.Snapshot
	Entries  []diary.Entry
	Trends   metrics.Trends
	Bundles  []bundle.Status

	// MoneySpark is the per-session money delta series for the
	// sparkline, oldest first.
	MoneySpark []float64
}

const sparkSessions = 14

// Assemble builds the dashboard model from the current snapshot, the
// diary log, metrics trends, and a bundle readiness report.
func Assemble(snap *snapshot.Snapshot, entries []diary.Entry, trends metrics.Trends, bundles []bundle.Status) *Dashboard {
	d := &Dashboard{
		Snapshot: snap,
		Entries:  entries,
		Trends:   trends,
		Bundles:  bundles,
	}
	start := 0
	if len(entries) > sparkSessions {
		start = len(entries) - sparkSessions
	}
	for _, e := range entries[start:] {
		d.MoneySpark = append(d.MoneySpark, float64(e.Delta.Money))
	}
	return d
}

// Render draws the full ANSI dashboard.
func (d *Dashboard) Render() string {
	var sb strings.Builder

	rule := ruleStyle.Render(strings.Repeat("=", dashboardWidth))
	sb.WriteString(rule + "\n")
	sb.WriteString(titleStyle.Render("FARMHAND") + "\n")
	sb.WriteString(rule + "\n\n")

	if d.Snapshot != nil {
		fmt.Fprintf(&sb, "Game Date: %s\n", d.Snapshot.GameDate)
		fmt.Fprintf(&sb, "Balance:   %sg\n\n", formatNumber(d.Snapshot.Money))
	}

	d.renderProgress(&sb)
	d.renderFinancials(&sb)
	d.renderMomentum(&sb, 3, "MOMENTUM (Last 3 Sessions)")
	d.renderMomentum(&sb, 7, "TRENDS (Last 7 Sessions)")
	d.renderBundles(&sb)

	sb.WriteString(rule + "\n")
	return sb.String()
}

func section(sb *strings.Builder, name string) {
	sb.WriteString(sectionStyle.Render(name) + "\n")
	sb.WriteString(ruleStyle.Render(strings.Repeat("-", dashboardWidth)) + "\n")
}

func (d *Dashboard) renderProgress(sb *strings.Builder) {
	if d.Snapshot == nil {
		return
	}
	section(sb, "PROGRESSION")

	totalBundles := 0
	if rooms, err := bundle.Definitions(); err == nil {
		for _, r := range rooms {
			totalBundles += len(r.Bundles)
		}
	}
	if totalBundles > 0 {
		bar := ProgressBar(float64(d.Snapshot.BundlesComplete)/float64(totalBundles), 20)
		fmt.Fprintf(sb, "  Community Center: %d/%d  %s\n", d.Snapshot.BundlesComplete, totalBundles, bar)
	}

	maxed := 0
	for _, st := range d.Snapshot.Skills {
		if st.Level >= 10 {
			maxed++
		}
	}
	bar := ProgressBar(float64(maxed)/float64(len(snapshot.KnownSkills)), 20)
	fmt.Fprintf(sb, "  Skills Maxed:     %d/%d   %s\n", maxed, len(snapshot.KnownSkills), bar)

	bar = ProgressBar(d.Snapshot.PerfectionPercent/100, 20)
	fmt.Fprintf(sb, "  Perfection:       %s\n", bar)
	sb.WriteString("\n")
}

func (d *Dashboard) renderFinancials(sb *strings.Builder) {
	section(sb, "FINANCIAL TRENDS")

	arrow := "-"
	if d.Trends.MoneyGrowthRate > 0 {
		arrow = "^"
	} else if d.Trends.MoneyGrowthRate < 0 {
		arrow = "v"
	}
	fmt.Fprintf(sb, "  Session Average:  %sg %s %+.1f%%\n",
		formatNumber(d.Trends.DailyIncomeAvg), arrow, d.Trends.MoneyGrowthRate*100)
	if spark := Sparkline(d.MoneySpark); spark != "" {
		fmt.Fprintf(sb, "  Recent Sessions:  %s\n", spark)
	}
	sb.WriteString("\n")
}

func (d *Dashboard) renderMomentum(sb *strings.Builder, window int, header string) {
	section(sb, header)
	m := AnalyzeMomentum(d.Entries, window)
	if !m.Enough() {
		fmt.Fprintf(sb, "  Need at least %d sessions (have %d)\n\n", m.Window, m.Available)
		return
	}

	shown := false
	for _, s := range firstN(m.Hot, 2) {
		fmt.Fprintf(sb, "  %s %s: %s\n", hotStyle.Render("[HOT]"), s.Category, s.Description)
		shown = true
	}
	for _, s := range firstN(m.Cold, 2) {
		fmt.Fprintf(sb, "  %s %s: %s\n", coldStyle.Render("[COLD]"), s.Category, s.Description)
		shown = true
	}
	for _, s := range firstN(m.Rising, 2) {
		fmt.Fprintf(sb, "  %s %s: %s\n", hotStyle.Render("[RISING]"), s.Category, s.Description)
		shown = true
	}
	for _, s := range firstN(m.Stalled, 2) {
		fmt.Fprintf(sb, "  %s %s: %s\n", stallStyle.Render("[STALLED]"), s.Category, s.Description)
		shown = true
	}
	if !shown {
		sb.WriteString("  Steady progress\n")
	}
	sb.WriteString("\n")
}

func (d *Dashboard) renderBundles(sb *strings.Builder) {
	if len(d.Bundles) == 0 {
		return
	}
	section(sb, "BUNDLES")

	for _, st := range firstN(bundle.Ready(d.Bundles), 3) {
		fmt.Fprintf(sb, "  %s %s (%s)\n", hotStyle.Render("[READY]"), st.Name, st.Room)
	}
	for _, st := range firstN(bundle.ByPriority(d.Bundles), 3) {
		fmt.Fprintf(sb, "  [%d missing] %s (%s)\n", st.MissingCount, st.Name, st.Room)
	}
	sb.WriteString("\n")
}

func firstN[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
