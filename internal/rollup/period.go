// Package rollup derives period aggregations from the diary log and
// caches them. The cache is disposable: it is always rebuilt from the
// log when their entry counts disagree, and never trusted otherwise.
package rollup

import (
	"fmt"
	"sort"
	"time"

	"github.com/ryanckelly/farmhand/internal/diary"
)

// Axis selects which calendar a period is computed on.
type Axis string

const (
	AxisReal Axis = "real"
	AxisGame Axis = "game"
)

func (a Axis) Valid() bool { return a == AxisReal || a == AxisGame }

// Granularity selects the grouping period. ByPeriod is context-aware:
// it groups by season on the game axis and by calendar month on the
// real axis, so the same selector serves both calendars.
type Granularity string

const (
	BySession Granularity = "session"
	ByDay     Granularity = "day"
	ByWeek    Granularity = "week"
	ByPeriod  Granularity = "period"
	ByYear    Granularity = "year"
)

func (g Granularity) Valid() bool {
	switch g {
	case BySession, ByDay, ByWeek, ByPeriod, ByYear:
		return true
	}
	return false
}

// Key is a sortable period identity plus its display label. The label
// exposes which semantic was used: "Spring Y1" on the game axis versus
// "2026-08" on the real axis for the same ByPeriod selector.
type Key struct {
	Sort  int64
	Label string
}

// PeriodKey derives the grouping key for one entry under the given
// granularity and axis. Real dates come from the entry's recording
// timestamp, game dates from its in-game date.
func PeriodKey(g Granularity, axis Axis, e *diary.Entry) (Key, error) {
	if !g.Valid() {
		return Key{}, fmt.Errorf("unknown granularity %q", g)
	}
	if !axis.Valid() {
		return Key{}, fmt.Errorf("unknown axis %q", axis)
	}
	if axis == AxisGame {
		return gameKey(g, e), nil
	}
	return realKey(g, e), nil
}

func gameKey(g Granularity, e *diary.Entry) Key {
	d := e.GameDate
	switch g {
	case BySession:
		return Key{Sort: e.RecordedAt.UnixNano(), Label: d.String()}
	case ByDay:
		return Key{Sort: int64(d.AbsoluteDay()), Label: d.String()}
	case ByWeek:
		sort := int64((d.Year-1)*16 + int(d.Season)*4 + (d.Week() - 1))
		label := fmt.Sprintf("Y%dW%d-%s", d.Year, d.Week(), d.Season.Title())
		return Key{Sort: sort, Label: label}
	case ByPeriod:
		sort := int64((d.Year-1)*4 + int(d.Season))
		return Key{Sort: sort, Label: fmt.Sprintf("%s Y%d", d.Season.Title(), d.Year)}
	default: // ByYear
		return Key{Sort: int64(d.Year), Label: fmt.Sprintf("Year %d", d.Year)}
	}
}

func realKey(g Granularity, e *diary.Entry) Key {
	ts := e.RecordedAt.UTC()
	switch g {
	case BySession:
		// Nanosecond keys keep back-to-back recordings distinct; the
		// tracker only guarantees timestamps strictly advance.
		return Key{Sort: ts.UnixNano(), Label: ts.Format("2006-01-02 15:04")}
	case ByDay:
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		return Key{Sort: day.Unix(), Label: day.Format("2006-01-02")}
	case ByWeek:
		year, week := ts.ISOWeek()
		return Key{Sort: int64(year*100 + week), Label: fmt.Sprintf("%d-W%02d", year, week)}
	case ByPeriod:
		return Key{Sort: int64(ts.Year()*100 + int(ts.Month())), Label: ts.Format("2006-01")}
	default: // ByYear
		return Key{Sort: int64(ts.Year()), Label: fmt.Sprintf("%d", ts.Year())}
	}
}

// Bucket is one aggregated period: summed deltas, the last entry's
// absolute values, and how many entries fell into the period.
type Bucket struct {
	Key      int64          `json:"key"`
	Label    string         `json:"label"`
	Delta    diary.Delta    `json:"delta"`
	Absolute diary.Absolute `json:"absolute"`
	Entries  int            `json:"entries"`
}

// Aggregate groups chronologically ordered entries into buckets.
// Deltas are summed; absolute values are taken from the last entry of
// each period, never summed, since they are point-in-time state.
// Buckets come back ordered by period start ascending.
func Aggregate(entries []diary.Entry, g Granularity, axis Axis) ([]Bucket, error) {
	byKey := make(map[int64]*Bucket)
	var order []int64

	for i := range entries {
		e := &entries[i]
		key, err := PeriodKey(g, axis, e)
		if err != nil {
			return nil, err
		}
		b, ok := byKey[key.Sort]
		if !ok {
			b = &Bucket{Key: key.Sort, Label: key.Label}
			byKey[key.Sort] = b
			order = append(order, key.Sort)
		}
		b.Delta.Add(e.Delta)
		b.Absolute = e.Absolute
		b.Entries++
	}

	out := make([]Bucket, 0, len(order))
	for _, k := range order {
		out = append(out, *byKey[k])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
