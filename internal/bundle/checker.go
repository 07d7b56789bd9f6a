package bundle

import (
	"fmt"
	"sort"

	"github.com/ryanckelly/farmhand/internal/snapshot"
)

// ItemStatus says whether one bundle slot can be filled from what the
// player currently holds.
type ItemStatus struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Needed        int    `json:"needed"`
	Have          int    `json:"have"`
	QualityNeeded int    `json:"qualityNeeded"`
	Available     bool   `json:"available"`
}

// Status is the readiness verdict for one incomplete bundle.
type Status struct {
	Room           string       `json:"room"`
	Name           string       `json:"name"`
	RequiredCount  int          `json:"requiredCount"`
	AvailableCount int          `json:"availableCount"`
	MissingCount   int          `json:"missingCount"`
	Ready          bool         `json:"ready"`
	Items          []ItemStatus `json:"items"`
}

// CompletionPercent is how far the bundle is toward its required item
// count, based on what the player holds right now.
func (s Status) CompletionPercent() float64 {
	if s.RequiredCount == 0 {
		return 100
	}
	return float64(s.AvailableCount) / float64(s.RequiredCount) * 100
}

// Check scans every bundle the save has not completed and reports
// which ones the player could turn in from current inventory. Vault
// bundles check money instead of items.
func Check(snap *snapshot.Snapshot) ([]Status, error) {
	rooms, err := Definitions()
	if err != nil {
		return nil, err
	}

	done := make(map[string]bool, len(snap.CompletedBundles))
	for _, name := range snap.CompletedBundles {
		done[name] = true
	}

	var out []Status
	for _, room := range rooms {
		for _, b := range room.Bundles {
			if done[b.Name] {
				continue
			}
			out = append(out, checkOne(room.Name, b, snap))
		}
	}
	return out, nil
}

func checkOne(room string, b Bundle, snap *snapshot.Snapshot) Status {
	st := Status{
		Room:          room,
		Name:          b.Name,
		RequiredCount: b.Required,
		Items:         make([]ItemStatus, 0, len(b.Items)),
	}
	for _, req := range b.Items {
		is := availability(req, snap)
		if is.Available {
			st.AvailableCount++
		}
		st.Items = append(st.Items, is)
	}
	if b.AllRequired {
		st.Ready = st.AvailableCount == len(b.Items)
		st.MissingCount = len(b.Items) - st.AvailableCount
	} else {
		st.Ready = st.AvailableCount >= b.Required
		st.MissingCount = b.Required - st.AvailableCount
	}
	if st.MissingCount < 0 {
		st.MissingCount = 0
	}
	return st
}

func availability(req Item, snap *snapshot.Snapshot) ItemStatus {
	is := ItemStatus{
		ID:            req.ID,
		Name:          req.Name,
		Needed:        req.Quantity,
		QualityNeeded: req.Quality,
	}
	if is.Name == "" {
		is.Name = fmt.Sprintf("Item %s", req.ID)
	}

	if req.ID == "gold" {
		is.Have = int(snap.Money)
		is.Available = snap.Money >= int64(req.Quantity)
		return is
	}

	for _, held := range snap.Inventory {
		if held.ID == req.ID && held.Quality >= req.Quality {
			is.Have += held.Quantity
		}
	}
	is.Available = is.Have >= req.Quantity
	return is
}

// Ready filters a readiness report down to turn-in-able bundles.
func Ready(statuses []Status) []Status {
	var out []Status
	for _, st := range statuses {
		if st.Ready {
			out = append(out, st)
		}
	}
	return out
}

// ByPriority returns the not-yet-ready bundles sorted by fewest
// missing items, so the closest bundles surface first.
func ByPriority(statuses []Status) []Status {
	var out []Status
	for _, st := range statuses {
		if !st.Ready {
			out = append(out, st)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MissingCount < out[j].MissingCount
	})
	return out
}
