// Package view turns the diary log into chart-ready data points. It is
// a pure read-side transformation: it never mutates the log, and the
// same inputs always produce the same output.
package view

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ryanckelly/farmhand/internal/diary"
	"github.com/ryanckelly/farmhand/internal/rollup"
)

// Point is one renderable data point: an aggregated period (or a
// single session) with summed deltas and the period's last absolute
// values. The label says which calendar semantic produced it.
type Point = rollup.Bucket

// CountAll disables the count filter.
const CountAll = -1

// Range narrows the log to a window anchored on the most recent entry
// in the filtered set, not on the wall clock, so rendering historical
// exports stays reproducible.
type Range string

const (
	RangeNone Range = ""
	// Real-calendar windows: rolling 7 / 30 days ending at the anchor.
	RangeThisWeek  Range = "this-week"
	RangeThisMonth Range = "this-month"
	// Game-calendar windows: the anchor's season+year / year.
	RangeThisSeason Range = "this-season"
	RangeThisYear   Range = "this-year"
)

func (r Range) Valid() bool {
	switch r {
	case RangeNone, RangeThisWeek, RangeThisMonth, RangeThisSeason, RangeThisYear:
		return true
	}
	return false
}

// Config describes one view request. It is transient: consumed once
// per render, never persisted.
type Config struct {
	// Count keeps only the chronological tail of the log: the last
	// Count entries, or everything when CountAll. Zero is a valid
	// request for an empty view.
	Count       int
	Range       Range
	Granularity rollup.Granularity
	Axis        rollup.Axis
}

// InvalidConfigError reports an unrecognized filter or aggregation
// selector.
type InvalidConfigError struct {
	Field string
	Value string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid view config: %s = %q", e.Field, e.Value)
}

func (c Config) validate() error {
	if c.Count < CountAll {
		return &InvalidConfigError{Field: "count", Value: fmt.Sprintf("%d", c.Count)}
	}
	if !c.Range.Valid() {
		return &InvalidConfigError{Field: "range", Value: string(c.Range)}
	}
	if !c.Granularity.Valid() {
		return &InvalidConfigError{Field: "granularity", Value: string(c.Granularity)}
	}
	if !c.Axis.Valid() {
		return &InvalidConfigError{Field: "axis", Value: string(c.Axis)}
	}
	return nil
}

// Build runs the pipeline in a fixed order: count filter, then
// time-range filter, then aggregation. Filtering after aggregation
// would answer a different question, so the order is fixed.
//
// index is an optional precomputed rollup cache. It is only consulted
// when no filter narrows the entry set and only when it matches the
// log's length; a stale index is ignored in favor of recomputing from
// the entries (the cache is never a source of truth).
func Build(entries []diary.Entry, index *rollup.Index, cfg Config) ([]Point, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	filtered := lastN(entries, cfg.Count)
	filtered = applyRange(filtered, cfg.Range)
	if len(filtered) == 0 {
		return []Point{}, nil
	}

	unfiltered := len(filtered) == len(entries)
	if unfiltered && cfg.Granularity != rollup.BySession {
		if index.Fresh(len(entries)) {
			if buckets, ok := index.Lookup(cfg.Granularity, cfg.Axis); ok {
				return buckets, nil
			}
		} else if index != nil {
			log.Debug().Msg("ignoring stale rollup index")
		}
	}

	return rollup.Aggregate(filtered, cfg.Granularity, cfg.Axis)
}

// lastN takes the chronological tail. Asking for more entries than
// exist returns everything; asking for zero returns nothing.
func lastN(entries []diary.Entry, count int) []diary.Entry {
	if count == CountAll || count >= len(entries) {
		return entries
	}
	return entries[len(entries)-count:]
}

func applyRange(entries []diary.Entry, r Range) []diary.Entry {
	if r == RangeNone || len(entries) == 0 {
		return entries
	}
	anchor := entries[len(entries)-1]

	keep := func(e *diary.Entry) bool { return true }
	switch r {
	case RangeThisWeek:
		cutoff := anchor.RecordedAt.AddDate(0, 0, -7)
		keep = func(e *diary.Entry) bool { return !e.RecordedAt.Before(cutoff) }
	case RangeThisMonth:
		cutoff := anchor.RecordedAt.AddDate(0, 0, -30)
		keep = func(e *diary.Entry) bool { return !e.RecordedAt.Before(cutoff) }
	case RangeThisSeason:
		season, year := anchor.GameDate.Season, anchor.GameDate.Year
		keep = func(e *diary.Entry) bool {
			return e.GameDate.Season == season && e.GameDate.Year == year
		}
	case RangeThisYear:
		year := anchor.GameDate.Year
		keep = func(e *diary.Entry) bool { return e.GameDate.Year == year }
	}

	out := make([]diary.Entry, 0, len(entries))
	for i := range entries {
		if keep(&entries[i]) {
			out = append(out, entries[i])
		}
	}
	return out
}

// Anchor returns the timestamp the range windows were computed from,
// for display alongside a rendered view.
func Anchor(entries []diary.Entry) (time.Time, bool) {
	if len(entries) == 0 {
		return time.Time{}, false
	}
	return entries[len(entries)-1].RecordedAt, true
}
