// Package snapshot defines the point-in-time capture of tracked game
// state and the boundary that loads and validates it.
package snapshot

import (
	"fmt"
	"time"

	"github.com/ryanckelly/farmhand/internal/gamedate"
)

// KnownSkills is the fixed set of tracked skills. A snapshot must
// carry all of them; unknown skills are rejected at the loader.
var KnownSkills = []string{"farming", "fishing", "foraging", "mining", "combat"}

// InvalidError reports a snapshot that is missing required fields or
// carries values outside their valid domain.
type InvalidError struct {
	Field  string
	Reason string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid snapshot: %s: %s", e.Field, e.Reason)
}

// SkillState is the level and experience of a single skill.
type SkillState struct {
	Level int `json:"level"`
	XP    int `json:"xp"`
}

// Item is one inventory or chest stack, used for bundle readiness.
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Quality  int    `json:"quality"`
}

// Snapshot is an immutable capture of all tracked counters and flags.
type Snapshot struct {
	CapturedAt time.Time     `json:"capturedAt"`
	GameDate   gamedate.Date `json:"gameDate"`

	Money             int64                 `json:"money"`
	TotalEarned       int64                 `json:"totalEarned"`
	PlayTimeMs        int64                 `json:"playTimeMs"`
	Skills            map[string]SkillState `json:"skills"`
	Friendships       map[string]int        `json:"friendships"`
	Animals           int                   `json:"animals"`
	ItemsShipped      int                   `json:"itemsShipped"`
	GoldenWalnuts     int                   `json:"goldenWalnuts"`
	SkullCavernDepth  int                   `json:"skullCavernDepth"`
	BundlesComplete   int                   `json:"bundlesComplete"`
	PerfectionPercent float64               `json:"perfectionPercent"`

	Unlocks          map[string]bool `json:"unlocks"`
	CompletedBundles []string        `json:"completedBundles"`
	Married          bool            `json:"married"`
	Spouse           string          `json:"spouse,omitempty"`

	Inventory []Item `json:"inventory,omitempty"`
}

// Validate checks the fixed field set. It returns *InvalidError on the
// first violation found.
func (s *Snapshot) Validate() error {
	if s.CapturedAt.IsZero() {
		return &InvalidError{Field: "capturedAt", Reason: "missing timestamp"}
	}
	if !s.GameDate.Valid() {
		return &InvalidError{Field: "gameDate", Reason: fmt.Sprintf("out of range: %+v", s.GameDate)}
	}
	if s.Money < 0 {
		return &InvalidError{Field: "money", Reason: "negative"}
	}
	if s.TotalEarned < 0 {
		return &InvalidError{Field: "totalEarned", Reason: "negative"}
	}
	if s.PlayTimeMs < 0 {
		return &InvalidError{Field: "playTimeMs", Reason: "negative"}
	}
	for _, skill := range KnownSkills {
		st, ok := s.Skills[skill]
		if !ok {
			return &InvalidError{Field: "skills." + skill, Reason: "missing"}
		}
		if st.XP < 0 {
			return &InvalidError{Field: "skills." + skill + ".xp", Reason: "negative"}
		}
		if st.Level < 0 || st.Level > 10 {
			return &InvalidError{Field: "skills." + skill + ".level", Reason: "outside 0..10"}
		}
	}
	for skill := range s.Skills {
		if !isKnownSkill(skill) {
			return &InvalidError{Field: "skills." + skill, Reason: "unknown skill"}
		}
	}
	for npc, points := range s.Friendships {
		if points < 0 {
			return &InvalidError{Field: "friendships." + npc, Reason: "negative points"}
		}
	}
	if s.Animals < 0 {
		return &InvalidError{Field: "animals", Reason: "negative"}
	}
	if s.GoldenWalnuts < 0 {
		return &InvalidError{Field: "goldenWalnuts", Reason: "negative"}
	}
	if s.SkullCavernDepth < 0 {
		return &InvalidError{Field: "skullCavernDepth", Reason: "negative"}
	}
	if s.BundlesComplete < 0 {
		return &InvalidError{Field: "bundlesComplete", Reason: "negative"}
	}
	if s.PerfectionPercent < 0 || s.PerfectionPercent > 100 {
		return &InvalidError{Field: "perfectionPercent", Reason: "outside 0..100"}
	}
	if s.Married && s.Spouse == "" {
		return &InvalidError{Field: "spouse", Reason: "married without a spouse name"}
	}
	return nil
}

// Same reports whether two snapshots describe the same game state,
// meaning no play session happened between them. Mirrors the check the
// tracker CLI uses to skip duplicate recordings.
func (s *Snapshot) Same(other *Snapshot) bool {
	if other == nil {
		return false
	}
	return s.GameDate == other.GameDate &&
		s.Money == other.Money &&
		s.PlayTimeMs == other.PlayTimeMs
}

func isKnownSkill(name string) bool {
	for _, s := range KnownSkills {
		if s == name {
			return true
		}
	}
	return false
}
