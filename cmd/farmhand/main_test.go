package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cexll/agentsdk-go/pkg/api"

	"github.com/ryanckelly/farmhand/internal/advisor"
	"github.com/ryanckelly/farmhand/internal/config"
	"github.com/ryanckelly/farmhand/internal/diary"
	"github.com/ryanckelly/farmhand/internal/rollup"
	"github.com/ryanckelly/farmhand/internal/view"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	tmp := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Paths.SaveState = filepath.Join(tmp, "save_state.json")
	cfg.Paths.DataDir = filepath.Join(tmp, "data")
	return cfg
}

func writeSaveState(t *testing.T, cfg *config.Config, money int64, day int, playMs int64) {
	t.Helper()
	state := map[string]any{
		"capturedAt":  time.Date(2026, 8, day, 21, 0, 0, 0, time.UTC).Format(time.RFC3339),
		"gameDate":    map[string]any{"year": 1, "season": "spring", "day": day},
		"money":       money,
		"totalEarned": money,
		"playTimeMs":  playMs,
		"skills": map[string]any{
			"farming":  map[string]any{"level": 1, "xp": 150},
			"fishing":  map[string]any{"level": 0, "xp": 0},
			"foraging": map[string]any{"level": 0, "xp": 0},
			"mining":   map[string]any{"level": 0, "xp": 0},
			"combat":   map[string]any{"level": 0, "xp": 0},
		},
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		t.Fatalf("marshal save state: %v", err)
	}
	if err := os.WriteFile(cfg.Paths.SaveState, data, 0644); err != nil {
		t.Fatalf("write save state: %v", err)
	}
}

func TestPerformTrackFirstSession(t *testing.T) {
	cfg := testConfig(t)
	writeSaveState(t, cfg, 500, 1, 60000)

	entry, recorded, err := performTrack(cfg)
	if err != nil {
		t.Fatalf("performTrack: %v", err)
	}
	if !recorded || entry == nil {
		t.Fatal("first session not recorded")
	}
	if entry.Delta.Money != 500 {
		t.Errorf("first entry delta = %d, want absolute 500", entry.Delta.Money)
	}

	for _, name := range []string{"diary.json", "snapshot.json", "metrics.json", "rollups.db"} {
		if _, err := os.Stat(filepath.Join(cfg.Paths.DataDir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

func TestPerformTrackSkipsUnchangedSave(t *testing.T) {
	cfg := testConfig(t)
	writeSaveState(t, cfg, 500, 1, 60000)

	if _, recorded, err := performTrack(cfg); err != nil || !recorded {
		t.Fatalf("first track: recorded=%v err=%v", recorded, err)
	}
	_, recorded, err := performTrack(cfg)
	if err != nil {
		t.Fatalf("second track: %v", err)
	}
	if recorded {
		t.Error("identical save state recorded twice")
	}
}

func TestPerformTrackRecordsChanges(t *testing.T) {
	cfg := testConfig(t)
	writeSaveState(t, cfg, 500, 1, 60000)
	if _, _, err := performTrack(cfg); err != nil {
		t.Fatalf("first track: %v", err)
	}

	writeSaveState(t, cfg, 1300, 3, 120000)
	entry, recorded, err := performTrack(cfg)
	if err != nil {
		t.Fatalf("second track: %v", err)
	}
	if !recorded {
		t.Fatal("changed save not recorded")
	}
	if entry.Delta.Money != 800 {
		t.Errorf("delta = %d, want 800", entry.Delta.Money)
	}
	if entry.Delta.DaysPlayed != 2 {
		t.Errorf("days played = %d, want 2", entry.Delta.DaysPlayed)
	}
}

func TestViewConfigFromFlags(t *testing.T) {
	cfg := config.DefaultConfig()

	resetFlags := func() {
		viewCountFlag, viewAllFlag, viewRangeFlag, viewGranularityFlag, viewAxisFlag = 0, false, "", "", ""
	}
	defer resetFlags()

	resetFlags()
	vcfg := viewConfigFromFlags(cfg)
	if vcfg.Count != config.DefaultViewCount {
		t.Errorf("default count = %d", vcfg.Count)
	}
	if vcfg.Granularity != rollup.BySession || vcfg.Axis != rollup.AxisGame {
		t.Errorf("defaults = %+v", vcfg)
	}

	resetFlags()
	viewAllFlag = true
	if vcfg := viewConfigFromFlags(cfg); vcfg.Count != view.CountAll {
		t.Errorf("--all count = %d", vcfg.Count)
	}

	resetFlags()
	viewCountFlag = 7
	viewGranularityFlag = "week"
	viewAxisFlag = "real"
	viewRangeFlag = "this-month"
	vcfg = viewConfigFromFlags(cfg)
	if vcfg.Count != 7 || vcfg.Granularity != rollup.ByWeek || vcfg.Axis != rollup.AxisReal || vcfg.Range != view.RangeThisMonth {
		t.Errorf("flag mapping = %+v", vcfg)
	}
}

func TestPrintPoints(t *testing.T) {
	points := []view.Point{
		{
			Label:    "Spring Y1",
			Entries:  3,
			Delta:    diary.Delta{Money: 350, DaysPlayed: 5},
			Absolute: diary.Absolute{Money: 350},
		},
	}
	var buf bytes.Buffer
	if err := printPoints(&buf, points); err != nil {
		t.Fatalf("printPoints: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Spring Y1") || !strings.Contains(out, "+350") {
		t.Errorf("table output:\n%s", out)
	}
}

func TestRunAdvisorSingleMessage(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	oldFlag := advisorMessageFlag
	advisorMessageFlag = "what next?"
	defer func() { advisorMessageFlag = oldFlag }()

	var stdout bytes.Buffer
	err := runAdvisorWithOptions(advisorOptions{
		Factory: func(cfg *config.Config, systemPrompt string) (advisor.Runtime, error) {
			if systemPrompt == "" {
				t.Error("system prompt is empty")
			}
			return &stubRuntime{output: "Water your crops."}, nil
		},
		Stdout: &stdout,
	})
	if err != nil {
		t.Fatalf("runAdvisorWithOptions: %v", err)
	}
	if !strings.Contains(stdout.String(), "Water your crops.") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRunOnboardCreatesConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := runOnboard(onboardCmd, nil); err != nil {
		t.Fatalf("runOnboard: %v", err)
	}
	if _, err := os.Stat(config.ConfigPath()); err != nil {
		t.Errorf("config not created: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if _, err := os.Stat(cfg.Paths.DataDir); err != nil {
		t.Errorf("data dir not created: %v", err)
	}
}

type stubRuntime struct {
	output string
	closed bool
}

func (s *stubRuntime) Run(ctx context.Context, req api.Request) (*api.Response, error) {
	return &api.Response{Result: &api.Result{Output: s.output}}, nil
}

func (s *stubRuntime) Close() { s.closed = true }
