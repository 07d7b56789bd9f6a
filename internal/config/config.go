package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	DefaultModel         = "claude-sonnet-4-5-20250929"
	DefaultMaxTokens     = 4096
	DefaultTemperature   = 0.7
	DefaultWatchSchedule = "@every 5m"
	DefaultViewCount     = 10
)

type Config struct {
	Paths   PathsConfig   `json:"paths"`
	Watch   WatchConfig   `json:"watch"`
	View    ViewConfig    `json:"view"`
	Advisor AdvisorConfig `json:"advisor"`
}

// PathsConfig locates the save-state export and everything farmhand
// writes. All derived files live under DataDir so the whole state can
// be wiped or synced as one directory.
type PathsConfig struct {
	// SaveState is the JSON save-state export produced by the game-side
	// extractor. Farmhand only ever reads it.
	SaveState string `json:"saveState"`
	DataDir   string `json:"dataDir"`
}

func (p PathsConfig) Diary() string     { return filepath.Join(p.DataDir, "diary.json") }
func (p PathsConfig) Snapshot() string  { return filepath.Join(p.DataDir, "snapshot.json") }
func (p PathsConfig) Metrics() string   { return filepath.Join(p.DataDir, "metrics.json") }
func (p PathsConfig) Rollups() string   { return filepath.Join(p.DataDir, "rollups.db") }
func (p PathsConfig) Dashboard() string { return filepath.Join(p.DataDir, "dashboard.html") }

type WatchConfig struct {
	Enabled bool `json:"enabled"`
	// Schedule is a cron expression or @every duration.
	Schedule string `json:"schedule"`
}

// ViewConfig holds the defaults the view command starts from; flags
// override per invocation.
type ViewConfig struct {
	Count       int    `json:"count"`
	Granularity string `json:"granularity"`
	Axis        string `json:"axis"`
}

type AdvisorConfig struct {
	Provider    ProviderConfig `json:"provider"`
	Model       string         `json:"model"`
	MaxTokens   int            `json:"maxTokens"`
	Temperature float64        `json:"temperature"`
}

type ProviderConfig struct {
	Type    string `json:"type,omitempty"` // "anthropic" (default) or "openai"
	APIKey  string `json:"apiKey"`
	BaseURL string `json:"baseUrl,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			SaveState: filepath.Join(ConfigDir(), "save_state.json"),
			DataDir:   filepath.Join(ConfigDir(), "data"),
		},
		Watch: WatchConfig{
			Enabled:  false,
			Schedule: DefaultWatchSchedule,
		},
		View: ViewConfig{
			Count:       DefaultViewCount,
			Granularity: "session",
			Axis:        "game",
		},
		Advisor: AdvisorConfig{
			Model:       DefaultModel,
			MaxTokens:   DefaultMaxTokens,
			Temperature: DefaultTemperature,
		},
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".farmhand")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if path := os.Getenv("FARMHAND_SAVE_STATE"); path != "" {
		cfg.Paths.SaveState = path
	}
	if dir := os.Getenv("FARMHAND_DATA_DIR"); dir != "" {
		cfg.Paths.DataDir = dir
	}
	if schedule := os.Getenv("FARMHAND_WATCH_SCHEDULE"); schedule != "" {
		cfg.Watch.Schedule = schedule
	}
	if enabled := os.Getenv("FARMHAND_WATCH_ENABLED"); enabled != "" {
		if parsed, err := strconv.ParseBool(enabled); err == nil {
			cfg.Watch.Enabled = parsed
		}
	}
	if key := os.Getenv("FARMHAND_API_KEY"); key != "" {
		cfg.Advisor.Provider.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && cfg.Advisor.Provider.APIKey == "" {
		cfg.Advisor.Provider.APIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && cfg.Advisor.Provider.APIKey == "" {
		cfg.Advisor.Provider.APIKey = key
		if cfg.Advisor.Provider.Type == "" {
			cfg.Advisor.Provider.Type = "openai"
		}
	}
	if url := os.Getenv("FARMHAND_BASE_URL"); url != "" {
		cfg.Advisor.Provider.BaseURL = url
	}
	if url := os.Getenv("ANTHROPIC_BASE_URL"); url != "" && cfg.Advisor.Provider.BaseURL == "" {
		cfg.Advisor.Provider.BaseURL = url
	}
	if model := os.Getenv("FARMHAND_MODEL"); model != "" {
		cfg.Advisor.Model = model
	}

	if cfg.Paths.SaveState == "" {
		cfg.Paths.SaveState = DefaultConfig().Paths.SaveState
	}
	if cfg.Paths.DataDir == "" {
		cfg.Paths.DataDir = DefaultConfig().Paths.DataDir
	}
	if cfg.Watch.Schedule == "" {
		cfg.Watch.Schedule = DefaultWatchSchedule
	}
	if cfg.View.Count == 0 {
		cfg.View.Count = DefaultViewCount
	}
	if cfg.Advisor.Model == "" {
		cfg.Advisor.Model = DefaultModel
	}
	if cfg.Advisor.MaxTokens <= 0 {
		cfg.Advisor.MaxTokens = DefaultMaxTokens
	}

	return cfg, nil
}

func SaveConfig(cfg *Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(ConfigPath(), data, 0644)
}
