package view

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanckelly/farmhand/internal/diary"
	"github.com/ryanckelly/farmhand/internal/gamedate"
	"github.com/ryanckelly/farmhand/internal/rollup"
)

func entryAt(t *testing.T, recorded time.Time, date gamedate.Date, deltaMoney, absMoney int64) diary.Entry {
	t.Helper()
	return diary.Entry{
		SessionID:    fmt.Sprintf("s-%d", recorded.Unix()),
		RecordedAt:   recorded,
		GameDate:     date,
		SessionStart: date,
		Delta:        diary.Delta{Money: deltaMoney, DaysPlayed: 1},
		Absolute:     diary.Absolute{Money: absMoney, TotalEarned: absMoney},
	}
}

func day(d int) gamedate.Date {
	return gamedate.Date{Year: 1, Season: gamedate.Spring, Day: d}
}

// Three sessions with gold 100 -> 250 -> 400 render as deltas
// 100, 150, 150 while the absolutes stay untouched.
func TestBuildPerSessionDeltas(t *testing.T) {
	base := time.Date(2026, 8, 1, 20, 0, 0, 0, time.UTC)
	entries := []diary.Entry{
		entryAt(t, base, day(1), 100, 100),
		entryAt(t, base.Add(24*time.Hour), day(2), 150, 250),
		entryAt(t, base.Add(48*time.Hour), day(3), 150, 400),
	}

	points, err := Build(entries, nil, Config{
		Count:       CountAll,
		Granularity: rollup.BySession,
		Axis:        rollup.AxisGame,
	})
	require.NoError(t, err)
	require.Len(t, points, 3)

	wantDelta := []int64{100, 150, 150}
	wantAbs := []int64{100, 250, 400}
	for i, p := range points {
		assert.Equal(t, wantDelta[i], p.Delta.Money, "point %d delta", i)
		assert.Equal(t, wantAbs[i], p.Absolute.Money, "point %d absolute", i)
	}
}

// Three Spring sessions and two Summer sessions aggregate into exactly
// two season points with summed deltas.
func TestBuildSeasonAggregation(t *testing.T) {
	base := time.Date(2026, 8, 1, 20, 0, 0, 0, time.UTC)
	entries := []diary.Entry{
		entryAt(t, base, day(3), 100, 100),
		entryAt(t, base.Add(1*time.Hour), day(9), 200, 300),
		entryAt(t, base.Add(2*time.Hour), day(20), 50, 350),
		entryAt(t, base.Add(3*time.Hour), gamedate.Date{Year: 1, Season: gamedate.Summer, Day: 2}, 400, 750),
		entryAt(t, base.Add(4*time.Hour), gamedate.Date{Year: 1, Season: gamedate.Summer, Day: 15}, 100, 850),
	}

	points, err := Build(entries, nil, Config{
		Count:       CountAll,
		Granularity: rollup.ByPeriod,
		Axis:        rollup.AxisGame,
	})
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "Spring Y1", points[0].Label)
	assert.Equal(t, int64(350), points[0].Delta.Money)
	assert.Equal(t, int64(350), points[0].Absolute.Money)

	assert.Equal(t, "Summer Y1", points[1].Label)
	assert.Equal(t, int64(500), points[1].Delta.Money)
	assert.Equal(t, int64(850), points[1].Absolute.Money)
}

func TestBuildCountFilter(t *testing.T) {
	base := time.Date(2026, 8, 1, 20, 0, 0, 0, time.UTC)
	var entries []diary.Entry
	for i := 0; i < 3; i++ {
		entries = append(entries, entryAt(t, base.Add(time.Duration(i)*time.Hour), day(i+1), 10, int64(10*(i+1))))
	}

	cases := []struct {
		name  string
		count int
		want  int
	}{
		{"more than available returns all", 5, 3},
		{"exact tail", 2, 2},
		{"zero is a valid empty request", 0, 0},
		{"all sentinel", CountAll, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			points, err := Build(entries, nil, Config{
				Count:       tc.count,
				Granularity: rollup.BySession,
				Axis:        rollup.AxisGame,
			})
			require.NoError(t, err)
			assert.Len(t, points, tc.want)
		})
	}

	// The tail must be the most recent entries, not the oldest.
	points, err := Build(entries, nil, Config{
		Count:       2,
		Granularity: rollup.BySession,
		Axis:        rollup.AxisGame,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(20), points[0].Absolute.Money)
	assert.Equal(t, int64(30), points[1].Absolute.Money)
}

// Range windows anchor on the newest surviving entry, so a log that
// stopped months ago still renders its own final week.
func TestBuildRangeAnchorsOnLastEntry(t *testing.T) {
	anchor := time.Date(2026, 3, 15, 20, 0, 0, 0, time.UTC)
	entries := []diary.Entry{
		entryAt(t, anchor.AddDate(0, 0, -40), day(1), 10, 10),
		entryAt(t, anchor.AddDate(0, 0, -10), day(5), 10, 20),
		entryAt(t, anchor.AddDate(0, 0, -3), day(9), 10, 30),
		entryAt(t, anchor, day(12), 10, 40),
	}

	week, err := Build(entries, nil, Config{
		Count:       CountAll,
		Range:       RangeThisWeek,
		Granularity: rollup.BySession,
		Axis:        rollup.AxisReal,
	})
	require.NoError(t, err)
	assert.Len(t, week, 2)

	month, err := Build(entries, nil, Config{
		Count:       CountAll,
		Range:       RangeThisMonth,
		Granularity: rollup.BySession,
		Axis:        rollup.AxisReal,
	})
	require.NoError(t, err)
	assert.Len(t, month, 3)
}

func TestBuildGameRanges(t *testing.T) {
	base := time.Date(2026, 8, 1, 20, 0, 0, 0, time.UTC)
	entries := []diary.Entry{
		entryAt(t, base, gamedate.Date{Year: 1, Season: gamedate.Winter, Day: 28}, 10, 10),
		entryAt(t, base.Add(1*time.Hour), gamedate.Date{Year: 2, Season: gamedate.Spring, Day: 4}, 10, 20),
		entryAt(t, base.Add(2*time.Hour), gamedate.Date{Year: 2, Season: gamedate.Summer, Day: 1}, 10, 30),
	}

	season, err := Build(entries, nil, Config{
		Count:       CountAll,
		Range:       RangeThisSeason,
		Granularity: rollup.BySession,
		Axis:        rollup.AxisGame,
	})
	require.NoError(t, err)
	require.Len(t, season, 1)
	assert.Equal(t, int64(30), season[0].Absolute.Money)

	year, err := Build(entries, nil, Config{
		Count:       CountAll,
		Range:       RangeThisYear,
		Granularity: rollup.BySession,
		Axis:        rollup.AxisGame,
	})
	require.NoError(t, err)
	assert.Len(t, year, 2)
}

// Count runs before range: keeping the last 2 entries first can drop
// sessions the range alone would have kept, so swapping the stages
// would answer a different question.
func TestBuildPipelineOrder(t *testing.T) {
	anchor := time.Date(2026, 8, 20, 20, 0, 0, 0, time.UTC)
	entries := []diary.Entry{
		entryAt(t, anchor.AddDate(0, 0, -2), day(1), 100, 100),
		entryAt(t, anchor.AddDate(0, 0, -1), day(2), 100, 200),
		entryAt(t, anchor, day(3), 100, 300),
	}

	points, err := Build(entries, nil, Config{
		Count:       2,
		Range:       RangeThisWeek,
		Granularity: rollup.ByPeriod,
		Axis:        rollup.AxisGame,
	})
	require.NoError(t, err)
	require.Len(t, points, 1)
	// Only the last two sessions contribute, even though all three fall
	// inside the week window.
	assert.Equal(t, int64(200), points[0].Delta.Money)
}

// Cumulative counters show the period's final value, never a re-sum.
func TestBuildCumulativeNotResummed(t *testing.T) {
	base := time.Date(2026, 8, 10, 20, 0, 0, 0, time.UTC)
	e1 := entryAt(t, base, day(1), 100, 100)
	e1.Absolute.BundlesComplete = 3
	e2 := entryAt(t, base.Add(time.Hour), day(2), 100, 200)
	e2.Absolute.BundlesComplete = 5

	points, err := Build([]diary.Entry{e1, e2}, nil, Config{
		Count:       CountAll,
		Granularity: rollup.ByWeek,
		Axis:        rollup.AxisGame,
	})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 5, points[0].Absolute.BundlesComplete)
	assert.Equal(t, int64(200), points[0].Absolute.TotalEarned)
}

func TestBuildEmptyLog(t *testing.T) {
	points, err := Build(nil, nil, Config{
		Count:       CountAll,
		Granularity: rollup.BySession,
		Axis:        rollup.AxisGame,
	})
	require.NoError(t, err)
	assert.Empty(t, points)
}

// Replaying the same build twice yields identical output; views never
// mutate the log.
func TestBuildIdempotent(t *testing.T) {
	base := time.Date(2026, 8, 1, 20, 0, 0, 0, time.UTC)
	entries := []diary.Entry{
		entryAt(t, base, day(1), 100, 100),
		entryAt(t, base.Add(time.Hour), day(8), 50, 150),
	}

	cfg := Config{Count: CountAll, Granularity: rollup.ByWeek, Axis: rollup.AxisGame}
	first, err := Build(entries, nil, cfg)
	require.NoError(t, err)
	second, err := Build(entries, nil, cfg)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(100), entries[0].Delta.Money)
}

func TestBuildUsesFreshIndex(t *testing.T) {
	base := time.Date(2026, 8, 1, 20, 0, 0, 0, time.UTC)
	entries := []diary.Entry{
		entryAt(t, base, day(1), 100, 100),
		entryAt(t, base.Add(time.Hour), day(2), 50, 150),
	}
	ix := rollup.Build(entries)

	points, err := Build(entries, ix, Config{
		Count:       CountAll,
		Granularity: rollup.ByDay,
		Axis:        rollup.AxisGame,
	})
	require.NoError(t, err)
	assert.Len(t, points, 2)
}

// A stale index (built from a shorter log) must be ignored, not
// trusted: the view recomputes from the entries.
func TestBuildIgnoresStaleIndex(t *testing.T) {
	base := time.Date(2026, 8, 1, 20, 0, 0, 0, time.UTC)
	entries := []diary.Entry{
		entryAt(t, base, day(1), 100, 100),
		entryAt(t, base.Add(time.Hour), day(2), 50, 150),
	}
	stale := rollup.Build(entries[:1])

	points, err := Build(entries, stale, Config{
		Count:       CountAll,
		Granularity: rollup.ByDay,
		Axis:        rollup.AxisGame,
	})
	require.NoError(t, err)
	assert.Len(t, points, 2)
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	entries := []diary.Entry{
		entryAt(t, time.Date(2026, 8, 1, 20, 0, 0, 0, time.UTC), day(1), 100, 100),
	}

	cases := []struct {
		name  string
		cfg   Config
		field string
	}{
		{
			"unknown granularity",
			Config{Count: CountAll, Granularity: "fortnight", Axis: rollup.AxisGame},
			"granularity",
		},
		{
			"unknown axis",
			Config{Count: CountAll, Granularity: rollup.BySession, Axis: "lunar"},
			"axis",
		},
		{
			"unknown range",
			Config{Count: CountAll, Range: "last-epoch", Granularity: rollup.BySession, Axis: rollup.AxisGame},
			"range",
		},
		{
			"negative count below sentinel",
			Config{Count: -2, Granularity: rollup.BySession, Axis: rollup.AxisGame},
			"count",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(entries, nil, tc.cfg)
			var cfgErr *InvalidConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tc.field, cfgErr.Field)
		})
	}
}
