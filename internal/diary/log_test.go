package diary

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ryanckelly/farmhand/internal/gamedate"
)

func TestStoreLoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "diary.json"))
	l, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(l.Entries) != 0 {
		t.Errorf("missing file should load as empty log, got %d entries", len(l.Entries))
	}
	if l.Last() != nil {
		t.Error("empty log Last() should be nil")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "diary.json"))

	when := time.Date(2026, 8, 1, 20, 0, 0, 0, time.UTC)
	l := &Log{
		Entries: []Entry{{
			SessionID:  "abc",
			RecordedAt: when,
			GameDate:   gamedate.Date{Year: 1, Season: gamedate.Fall, Day: 12},
			Delta:      Delta{Money: 4200, XPBySkill: map[string]int{"fishing": 310}},
			Absolute:   Absolute{Money: 9000},
		}},
		Meta: Meta{Created: when, TotalSessions: 1},
	}
	if err := store.Save(l); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Entries) != 1 {
		t.Fatalf("loaded %d entries, want 1", len(got.Entries))
	}
	e := got.Entries[0]
	if e.SessionID != "abc" || e.Delta.Money != 4200 || e.Delta.XPBySkill["fishing"] != 310 {
		t.Errorf("entry lost data in round trip: %+v", e)
	}
	if e.GameDate != (gamedate.Date{Year: 1, Season: gamedate.Fall, Day: 12}) {
		t.Errorf("game date = %+v", e.GameDate)
	}
	if !e.RecordedAt.Equal(when) {
		t.Errorf("recorded at = %v, want %v", e.RecordedAt, when)
	}
}

func TestDeltaAdd(t *testing.T) {
	a := Delta{Money: 100, XPBySkill: map[string]int{"farming": 50}, DaysPlayed: 1}
	b := Delta{Money: -30, XPBySkill: map[string]int{"farming": 25, "mining": 10}, DaysPlayed: 2}
	a.Add(b)
	if a.Money != 70 || a.DaysPlayed != 3 {
		t.Errorf("Add scalar fields = %+v", a)
	}
	if a.XPBySkill["farming"] != 75 || a.XPBySkill["mining"] != 10 {
		t.Errorf("Add map fields = %+v", a.XPBySkill)
	}
	if a.TotalXP() != 85 {
		t.Errorf("TotalXP = %d, want 85", a.TotalXP())
	}
}
