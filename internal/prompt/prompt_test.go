package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/ryanckelly/farmhand/internal/bundle"
	"github.com/ryanckelly/farmhand/internal/diary"
	"github.com/ryanckelly/farmhand/internal/gamedate"
	"github.com/ryanckelly/farmhand/internal/snapshot"
)

func TestSessionStart(t *testing.T) {
	snap := &snapshot.Snapshot{
		CapturedAt: time.Date(2026, 8, 10, 21, 0, 0, 0, time.UTC),
		GameDate:   gamedate.Date{Year: 2, Season: gamedate.Fall, Day: 6},
		Money:      15000,
		Married:    true,
		Spouse:     "Abigail",
		Skills: map[string]snapshot.SkillState{
			"farming": {Level: 7, XP: 8000},
			"fishing": {Level: 3, XP: 1200},
		},
	}
	entries := []diary.Entry{
		{
			GameDate:        gamedate.Date{Year: 2, Season: gamedate.Fall, Day: 4},
			Delta:           diary.Delta{Money: 2500},
			Accomplishments: []string{"Earned 2,500g", "Completed 1 bundle"},
		},
	}
	bundles := []bundle.Status{
		{Room: "Pantry", Name: "Fall Crops", Ready: true},
		{Room: "Fish Tank", Name: "Night Fishing", Ready: false, MissingCount: 1},
	}

	out := SessionStart(snap, entries, bundles)
	for _, want := range []string{
		"Fall 6, Year 2",
		"15000g",
		"married to Abigail",
		"farming 7",
		"Earned 2,500g",
		"Fall Crops (Pantry)",
		"Night Fishing (Fish Tank), 1 item(s) missing",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt missing %q\n%s", want, out)
		}
	}
}

func TestSessionStartEmptyLog(t *testing.T) {
	snap := &snapshot.Snapshot{
		GameDate: gamedate.Date{Year: 1, Season: gamedate.Spring, Day: 1},
		Money:    500,
	}
	out := SessionStart(snap, nil, nil)
	if strings.Contains(out, "Recent sessions") {
		t.Error("empty log should omit the recent-sessions block")
	}
	if !strings.Contains(out, "Spring 1, Year 1") {
		t.Error("prompt missing game date")
	}
}

func TestSessionEnd(t *testing.T) {
	e := &diary.Entry{
		GameDate:        gamedate.Date{Year: 1, Season: gamedate.Summer, Day: 12},
		SessionStart:    gamedate.Date{Year: 1, Season: gamedate.Summer, Day: 9},
		Delta:           diary.Delta{Money: -300, XPBySkill: map[string]int{"mining": 450}},
		Absolute:        diary.Absolute{Money: 9700},
		NewlyAchieved:   []string{"unlock:skull_key"},
		Accomplishments: []string{"Reached Skull Cavern"},
	}

	out := SessionEnd(e)
	for _, want := range []string{
		"Summer 9, Year 1",
		"Summer 12, Year 1",
		"-300g",
		"9700g",
		"Experience gained: 450",
		"Reached Skull Cavern",
		"unlock:skull_key",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt missing %q\n%s", want, out)
		}
	}
}
