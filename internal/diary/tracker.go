package diary

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ryanckelly/farmhand/internal/gamedate"
	"github.com/ryanckelly/farmhand/internal/snapshot"
)

// heartPoints is how many friendship points make one heart.
const heartPoints = 250

// Tracker turns snapshot pairs into diary entries and owns all writes
// to the diary log.
type Tracker struct {
	store *Store
}

func NewTracker(store *Store) *Tracker {
	return &Tracker{store: store}
}

// RecordSession computes the delta between prev and curr, appends the
// resulting entry to the diary log, and persists the updated log in a
// single atomic replace. prev may be nil on the very first recording,
// in which case the entry's deltas equal its absolute values.
//
// Failure leaves the persisted log untouched: snapshot validation and
// ordering are checked before anything is written, and the new log
// content is built fully in memory before the replace.
//
// RecordSession is deliberately not idempotent. Calling it twice with
// the same snapshot pair appends two entries, each a valid
// observation; callers that want deduplication compare snapshots
// (Snapshot.Same) before calling.
func (t *Tracker) RecordSession(prev, curr *snapshot.Snapshot) (*Entry, error) {
	if curr == nil {
		return nil, &snapshot.InvalidError{Field: "(current)", Reason: "missing"}
	}
	if err := curr.Validate(); err != nil {
		return nil, err
	}
	if prev != nil {
		if err := prev.Validate(); err != nil {
			return nil, err
		}
		if !curr.CapturedAt.After(prev.CapturedAt) {
			return nil, &OutOfOrderError{Last: prev.CapturedAt, Current: curr.CapturedAt}
		}
	}

	l, err := t.store.Load()
	if err != nil {
		return nil, err
	}
	if last := l.Last(); last != nil && !curr.CapturedAt.After(last.RecordedAt) {
		return nil, &OutOfOrderError{Last: last.RecordedAt, Current: curr.CapturedAt}
	}

	entry := buildEntry(prev, curr)

	updated := *l
	updated.Entries = append(append([]Entry(nil), l.Entries...), entry)
	updated.Meta.TotalSessions = len(updated.Entries)
	now := curr.CapturedAt
	updated.Meta.LastUpdated = &now
	if updated.Meta.Created.IsZero() {
		updated.Meta.Created = now
	}

	if err := t.store.Save(&updated); err != nil {
		return nil, err
	}

	log.Info().
		Str("session", entry.SessionID).
		Str("game_date", entry.GameDate.String()).
		Int64("money_delta", entry.Delta.Money).
		Int("milestones", len(entry.NewlyAchieved)).
		Msg("session recorded")

	return &entry, nil
}

func buildEntry(prev, curr *snapshot.Snapshot) Entry {
	entry := Entry{
		SessionID:  uuid.NewString(),
		RecordedAt: curr.CapturedAt,
		GameDate:   curr.GameDate,
		Absolute:   absoluteOf(curr),
	}

	if prev == nil {
		entry.SessionStart = curr.GameDate
		entry.Delta = firstDelta(curr)
	} else {
		entry.SessionStart = prev.GameDate
		entry.Delta = deltaBetween(prev, curr)
	}

	entry.NewlyAchieved = newlyAchieved(prev, curr)
	entry.Accomplishments = accomplishments(entry.Delta, entry.NewlyAchieved, curr)
	return entry
}

// firstDelta makes the first entry self-consistent: deltas equal the
// absolute fields themselves. DaysPlayed stays zero since there is no
// prior date to measure from.
func firstDelta(curr *snapshot.Snapshot) Delta {
	d := Delta{
		Money:             curr.Money,
		TotalEarned:       curr.TotalEarned,
		PlayTimeMs:        curr.PlayTimeMs,
		XPBySkill:         make(map[string]int, len(curr.Skills)),
		Friendships:       copyInts(curr.Friendships),
		Animals:           curr.Animals,
		ItemsShipped:      curr.ItemsShipped,
		GoldenWalnuts:     curr.GoldenWalnuts,
		SkullCavernDepth:  curr.SkullCavernDepth,
		BundlesComplete:   curr.BundlesComplete,
		PerfectionPercent: curr.PerfectionPercent,
	}
	for skill, st := range curr.Skills {
		d.XPBySkill[skill] = st.XP
	}
	return d
}

func deltaBetween(prev, curr *snapshot.Snapshot) Delta {
	d := Delta{
		Money:             curr.Money - prev.Money,
		TotalEarned:       curr.TotalEarned - prev.TotalEarned,
		PlayTimeMs:        curr.PlayTimeMs - prev.PlayTimeMs,
		DaysPlayed:        gamedate.DaysBetween(prev.GameDate, curr.GameDate),
		XPBySkill:         make(map[string]int, len(curr.Skills)),
		Friendships:       make(map[string]int),
		Animals:           curr.Animals - prev.Animals,
		ItemsShipped:      curr.ItemsShipped - prev.ItemsShipped,
		GoldenWalnuts:     curr.GoldenWalnuts - prev.GoldenWalnuts,
		SkullCavernDepth:  curr.SkullCavernDepth - prev.SkullCavernDepth,
		BundlesComplete:   curr.BundlesComplete - prev.BundlesComplete,
		PerfectionPercent: curr.PerfectionPercent - prev.PerfectionPercent,
	}
	for skill, st := range curr.Skills {
		d.XPBySkill[skill] = st.XP - prev.Skills[skill].XP
	}
	for npc, points := range curr.Friendships {
		d.Friendships[npc] = points - prev.Friendships[npc]
	}
	return d
}

// newlyAchieved records only false -> true transitions. Flags already
// true in prev are never re-recorded, so a milestone is announced at
// most once across the whole log.
func newlyAchieved(prev, curr *snapshot.Snapshot) []string {
	var tags []string

	unlockWas := func(name string) bool {
		return prev != nil && prev.Unlocks[name]
	}
	for _, name := range sortedKeys(curr.Unlocks) {
		if curr.Unlocks[name] && !unlockWas(name) {
			tags = append(tags, "unlock:"+name)
		}
	}

	prevBundles := make(map[string]bool)
	if prev != nil {
		for _, b := range prev.CompletedBundles {
			prevBundles[b] = true
		}
	}
	for _, b := range curr.CompletedBundles {
		if !prevBundles[b] {
			tags = append(tags, "bundle:"+b)
		}
	}

	for _, skill := range snapshot.KnownSkills {
		currLevel := curr.Skills[skill].Level
		prevLevel := 0
		if prev != nil {
			prevLevel = prev.Skills[skill].Level
		}
		for lvl := prevLevel + 1; lvl <= currLevel; lvl++ {
			tags = append(tags, fmt.Sprintf("skill:%s:%d", skill, lvl))
		}
	}

	for _, npc := range sortedKeys(curr.Friendships) {
		currHearts := curr.Friendships[npc] / heartPoints
		prevHearts := 0
		if prev != nil {
			prevHearts = prev.Friendships[npc] / heartPoints
		}
		if currHearts > prevHearts {
			tags = append(tags, fmt.Sprintf("hearts:%s:%d", npc, currHearts))
		}
	}

	if curr.Married && (prev == nil || !prev.Married) {
		tags = append(tags, "married:"+curr.Spouse)
	}

	return tags
}

// accomplishments renders the session highlights the way the diary
// shows them. Order is stable so entries diff cleanly.
func accomplishments(d Delta, achieved []string, curr *snapshot.Snapshot) []string {
	var out []string

	for _, skill := range snapshot.KnownSkills {
		level := curr.Skills[skill].Level
		leveled := false
		for _, tag := range achieved {
			if tag == fmt.Sprintf("skill:%s:%d", skill, level) {
				leveled = true
				break
			}
		}
		if leveled {
			out = append(out, fmt.Sprintf("Reached %s level %d", title(skill), level))
		} else if d.XPBySkill[skill] > 0 {
			out = append(out, fmt.Sprintf("Gained %d %s XP", d.XPBySkill[skill], title(skill)))
		}
	}

	switch {
	case d.Money > 0:
		out = append(out, fmt.Sprintf("Earned %dg (net)", d.Money))
	case d.Money < 0:
		out = append(out, fmt.Sprintf("Invested %dg", -d.Money))
	}

	if d.Animals > 0 {
		out = append(out, fmt.Sprintf("Welcomed %d new animal(s)", d.Animals))
	} else if d.Animals < 0 {
		out = append(out, fmt.Sprintf("Sold %d animal(s)", -d.Animals))
	}

	if d.BundlesComplete > 0 {
		out = append(out, fmt.Sprintf("Completed %d Community Center bundle(s)", d.BundlesComplete))
	}
	if d.GoldenWalnuts > 0 {
		out = append(out, fmt.Sprintf("Found %d Golden Walnut(s)", d.GoldenWalnuts))
	}
	if d.SkullCavernDepth > 0 {
		out = append(out, fmt.Sprintf("Reached floor %d in Skull Cavern", curr.SkullCavernDepth))
	}
	if d.DaysPlayed > 0 {
		out = append(out, fmt.Sprintf("Progressed %d in-game day(s)", d.DaysPlayed))
	}
	if d.PerfectionPercent > 0 {
		out = append(out, fmt.Sprintf("Perfection: +%.1f%%", d.PerfectionPercent))
	}

	for _, tag := range achieved {
		if len(tag) > 8 && tag[:8] == "married:" {
			out = append(out, "Married "+tag[8:]+"!")
		}
	}

	return out
}

func title(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
