// Package diary holds the permanent session history: each entry is
// the immutable delta between two consecutive save snapshots, plus the
// absolute values at that point so an entry can be displayed without
// replaying the whole log.
package diary

import (
	"fmt"
	"time"

	"github.com/ryanckelly/farmhand/internal/gamedate"
	"github.com/ryanckelly/farmhand/internal/snapshot"
)

// Delta carries the signed change of every tracked counter between
// two snapshots. Values can be negative (gold spent, animals sold).
type Delta struct {
	Money             int64          `json:"money"`
	TotalEarned       int64          `json:"totalEarned"`
	PlayTimeMs        int64          `json:"playTimeMs"`
	DaysPlayed        int            `json:"daysPlayed"`
	XPBySkill         map[string]int `json:"xpBySkill"`
	Friendships       map[string]int `json:"friendships"`
	Animals           int            `json:"animals"`
	ItemsShipped      int            `json:"itemsShipped"`
	GoldenWalnuts     int            `json:"goldenWalnuts"`
	SkullCavernDepth  int            `json:"skullCavernDepth"`
	BundlesComplete   int            `json:"bundlesComplete"`
	PerfectionPercent float64        `json:"perfectionPercent"`
}

// TotalXP sums the per-skill experience gains.
func (d Delta) TotalXP() int {
	total := 0
	for _, xp := range d.XPBySkill {
		total += xp
	}
	return total
}

// Add accumulates another delta into this one. Used by the rollup and
// view aggregation; absolute values are never added this way.
func (d *Delta) Add(other Delta) {
	d.Money += other.Money
	d.TotalEarned += other.TotalEarned
	d.PlayTimeMs += other.PlayTimeMs
	d.DaysPlayed += other.DaysPlayed
	d.Animals += other.Animals
	d.ItemsShipped += other.ItemsShipped
	d.GoldenWalnuts += other.GoldenWalnuts
	d.SkullCavernDepth += other.SkullCavernDepth
	d.BundlesComplete += other.BundlesComplete
	d.PerfectionPercent += other.PerfectionPercent
	if len(other.XPBySkill) > 0 && d.XPBySkill == nil {
		d.XPBySkill = make(map[string]int)
	}
	for skill, xp := range other.XPBySkill {
		d.XPBySkill[skill] += xp
	}
	if len(other.Friendships) > 0 && d.Friendships == nil {
		d.Friendships = make(map[string]int)
	}
	for npc, pts := range other.Friendships {
		d.Friendships[npc] += pts
	}
}

// Absolute is the full counter/flag state at the moment an entry was
// recorded. Cumulative counters here (TotalEarned, PerfectionPercent,
// BundlesComplete) must never be summed across entries.
type Absolute struct {
	Money             int64                          `json:"money"`
	TotalEarned       int64                          `json:"totalEarned"`
	PlayTimeMs        int64                          `json:"playTimeMs"`
	Skills            map[string]snapshot.SkillState `json:"skills"`
	Friendships       map[string]int                 `json:"friendships"`
	Animals           int                            `json:"animals"`
	ItemsShipped      int                            `json:"itemsShipped"`
	GoldenWalnuts     int                            `json:"goldenWalnuts"`
	SkullCavernDepth  int                            `json:"skullCavernDepth"`
	BundlesComplete   int                            `json:"bundlesComplete"`
	PerfectionPercent float64                        `json:"perfectionPercent"`
	Unlocks           map[string]bool                `json:"unlocks"`
	CompletedBundles  []string                       `json:"completedBundles"`
	Married           bool                           `json:"married"`
	Spouse            string                         `json:"spouse,omitempty"`
}

// Entry is one recorded play session. Entries are append-only and
// strictly ordered by RecordedAt.
type Entry struct {
	SessionID  string        `json:"sessionId"`
	RecordedAt time.Time     `json:"recordedAt"`
	GameDate   gamedate.Date `json:"gameDate"`
	// SessionStart is the in-game date the session began at (the
	// previous snapshot's date). Equal to GameDate on the first entry.
	SessionStart gamedate.Date `json:"sessionStart"`

	Delta    Delta    `json:"delta"`
	Absolute Absolute `json:"absolute"`

	// NewlyAchieved lists flags that flipped false -> true since the
	// previous entry, as stable tags: "unlock:skull_key",
	// "bundle:Spring Crops", "skill:farming:7", "married:Abigail".
	// Flags already true are never re-recorded.
	NewlyAchieved []string `json:"newlyAchieved"`

	// Accomplishments is display text derived from the deltas, kept on
	// the entry so renderers and prompts need no recomputation.
	Accomplishments []string `json:"accomplishments"`
}

// InvalidSnapshotError is the validation failure surfaced by the
// tracker; it is the snapshot package's error, re-exported so callers
// of RecordSession need only one import to match on it.
type InvalidSnapshotError = snapshot.InvalidError

// OutOfOrderError reports an attempt to record a session whose
// snapshot timestamp does not advance past the log tail. The tracker
// refuses to reorder or overwrite history.
type OutOfOrderError struct {
	Last    time.Time
	Current time.Time
}

func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf("snapshot at %s does not advance past last entry at %s",
		e.Current.Format(time.RFC3339), e.Last.Format(time.RFC3339))
}

func absoluteOf(s *snapshot.Snapshot) Absolute {
	return Absolute{
		Money:             s.Money,
		TotalEarned:       s.TotalEarned,
		PlayTimeMs:        s.PlayTimeMs,
		Skills:            copySkills(s.Skills),
		Friendships:       copyInts(s.Friendships),
		Animals:           s.Animals,
		ItemsShipped:      s.ItemsShipped,
		GoldenWalnuts:     s.GoldenWalnuts,
		SkullCavernDepth:  s.SkullCavernDepth,
		BundlesComplete:   s.BundlesComplete,
		PerfectionPercent: s.PerfectionPercent,
		Unlocks:           copyBools(s.Unlocks),
		CompletedBundles:  append([]string(nil), s.CompletedBundles...),
		Married:           s.Married,
		Spouse:            s.Spouse,
	}
}

func copySkills(m map[string]snapshot.SkillState) map[string]snapshot.SkillState {
	out := make(map[string]snapshot.SkillState, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyInts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyBools(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
