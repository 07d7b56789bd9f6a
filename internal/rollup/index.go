package rollup

import (
	"time"

	"github.com/ryanckelly/farmhand/internal/diary"
)

// cachedGranularities are the groupings the index precomputes for each
// axis. Session granularity is never cached: it is the identity view.
var cachedGranularities = []Granularity{ByDay, ByWeek, ByPeriod, ByYear}

// Index holds pre-aggregated buckets for every cached axis/granularity
// pair, stamped with the entry count it was built from. It is a pure
// derivation of the diary log and never a source of truth.
type Index struct {
	EntryCount int
	BuiltAt    time.Time
	buckets    map[Axis]map[Granularity][]Bucket
}

// Build derives a complete index from the diary entries.
func Build(entries []diary.Entry) *Index {
	ix := &Index{
		EntryCount: len(entries),
		BuiltAt:    time.Now(),
		buckets:    make(map[Axis]map[Granularity][]Bucket, 2),
	}
	for _, axis := range []Axis{AxisGame, AxisReal} {
		ix.buckets[axis] = make(map[Granularity][]Bucket, len(cachedGranularities))
		for _, g := range cachedGranularities {
			// Inputs are pre-validated constants; Aggregate cannot fail.
			buckets, _ := Aggregate(entries, g, axis)
			ix.buckets[axis][g] = buckets
		}
	}
	return ix
}

// Fresh reports whether the index still matches a log of entryCount
// entries. A mismatch means the cache is stale and must be rebuilt.
func (ix *Index) Fresh(entryCount int) bool {
	return ix != nil && ix.EntryCount == entryCount
}

// Lookup returns the cached buckets for an axis/granularity pair.
func (ix *Index) Lookup(g Granularity, axis Axis) ([]Bucket, bool) {
	if ix == nil || ix.buckets == nil {
		return nil, false
	}
	byG, ok := ix.buckets[axis]
	if !ok {
		return nil, false
	}
	buckets, ok := byG[g]
	return buckets, ok
}

func (ix *Index) put(g Granularity, axis Axis, buckets []Bucket) {
	if ix.buckets == nil {
		ix.buckets = make(map[Axis]map[Granularity][]Bucket, 2)
	}
	if ix.buckets[axis] == nil {
		ix.buckets[axis] = make(map[Granularity][]Bucket, len(cachedGranularities))
	}
	ix.buckets[axis][g] = buckets
}
