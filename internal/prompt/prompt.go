// Package prompt builds plain-text briefings about the farm for an AI
// assistant: one for sitting down to play, one for wrapping up.
package prompt

import (
	"fmt"
	"strings"

	"github.com/ryanckelly/farmhand/internal/bundle"
	"github.com/ryanckelly/farmhand/internal/diary"
	"github.com/ryanckelly/farmhand/internal/snapshot"
)

const recentSessions = 3

// SessionStart summarizes the current state, recent highlights, and
// bundles that are ready to turn in.
func SessionStart(snap *snapshot.Snapshot, entries []diary.Entry, bundles []bundle.Status) string {
	var sb strings.Builder

	sb.WriteString("You are a Stardew Valley farm advisor. The player is about to start a session.\n\n")

	if snap != nil {
		fmt.Fprintf(&sb, "Current state: %s, %dg on hand", snap.GameDate, snap.Money)
		if snap.Married && snap.Spouse != "" {
			fmt.Fprintf(&sb, ", married to %s", snap.Spouse)
		}
		sb.WriteString(".\n")
		if len(snap.Skills) > 0 {
			sb.WriteString("Skills:")
			for _, name := range snapshot.KnownSkills {
				if st, ok := snap.Skills[name]; ok {
					fmt.Fprintf(&sb, " %s %d", name, st.Level)
				}
			}
			sb.WriteString(".\n")
		}
	}

	if recent := lastEntries(entries, recentSessions); len(recent) > 0 {
		sb.WriteString("\nRecent sessions:\n")
		for _, e := range recent {
			fmt.Fprintf(&sb, "- %s: ", e.GameDate)
			if len(e.Accomplishments) > 0 {
				sb.WriteString(strings.Join(e.Accomplishments, "; "))
			} else {
				fmt.Fprintf(&sb, "%+dg", e.Delta.Money)
			}
			sb.WriteString("\n")
		}
	}

	if ready := bundle.Ready(bundles); len(ready) > 0 {
		sb.WriteString("\nBundles ready to turn in:\n")
		for _, st := range ready {
			fmt.Fprintf(&sb, "- %s (%s)\n", st.Name, st.Room)
		}
	}
	if next := bundle.ByPriority(bundles); len(next) > 0 {
		sb.WriteString("\nClosest bundles:\n")
		for i, st := range next {
			if i == 3 {
				break
			}
			fmt.Fprintf(&sb, "- %s (%s), %d item(s) missing\n", st.Name, st.Room, st.MissingCount)
		}
	}

	sb.WriteString("\nSuggest concrete goals for this session.\n")
	return sb.String()
}

// SessionEnd summarizes the entry that was just recorded.
func SessionEnd(e *diary.Entry) string {
	var sb strings.Builder

	sb.WriteString("The player just finished a Stardew Valley session.\n\n")
	fmt.Fprintf(&sb, "Played %s through %s.\n", e.SessionStart, e.GameDate)
	fmt.Fprintf(&sb, "Gold: %+dg (now %dg).\n", e.Delta.Money, e.Absolute.Money)
	if xp := e.Delta.TotalXP(); xp > 0 {
		fmt.Fprintf(&sb, "Experience gained: %d.\n", xp)
	}

	if len(e.Accomplishments) > 0 {
		sb.WriteString("\nAccomplishments:\n")
		for _, a := range e.Accomplishments {
			fmt.Fprintf(&sb, "- %s\n", a)
		}
	}
	if len(e.NewlyAchieved) > 0 {
		sb.WriteString("\nNew milestones:\n")
		for _, tag := range e.NewlyAchieved {
			fmt.Fprintf(&sb, "- %s\n", tag)
		}
	}

	sb.WriteString("\nWrite a short, encouraging session recap.\n")
	return sb.String()
}

func lastEntries(entries []diary.Entry, n int) []diary.Entry {
	if len(entries) <= n {
		return entries
	}
	return entries[len(entries)-n:]
}
