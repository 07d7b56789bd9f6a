package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ryanckelly/farmhand/internal/advisor"
	"github.com/ryanckelly/farmhand/internal/bundle"
	"github.com/ryanckelly/farmhand/internal/config"
	"github.com/ryanckelly/farmhand/internal/diary"
	"github.com/ryanckelly/farmhand/internal/metrics"
	"github.com/ryanckelly/farmhand/internal/prompt"
	"github.com/ryanckelly/farmhand/internal/render"
	"github.com/ryanckelly/farmhand/internal/rollup"
	"github.com/ryanckelly/farmhand/internal/snapshot"
	"github.com/ryanckelly/farmhand/internal/view"
	"github.com/ryanckelly/farmhand/internal/watch"
)

var rootCmd = &cobra.Command{
	Use:   "farmhand",
	Short: "farmhand - Stardew Valley save companion",
}

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Compare the save against the last snapshot and record a session",
	RunE:  runTrack,
}

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Render diary history as filtered, aggregated data points",
	RunE:  runView,
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the farm dashboard (terminal or HTML)",
	RunE:  runDashboard,
}

var rollupsCmd = &cobra.Command{
	Use:   "rollups",
	Short: "Rebuild the rollup cache from the diary log",
	RunE:  runRollups,
}

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Generate session prompts for an AI assistant",
}

var promptStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Prompt for sitting down to play",
	RunE:  runPromptStart,
}

var promptEndCmd = &cobra.Command{
	Use:   "end",
	Short: "Prompt recapping the latest recorded session",
	RunE:  runPromptEnd,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Check the save on a schedule and record sessions automatically",
	RunE:  runWatch,
}

var advisorCmd = &cobra.Command{
	Use:   "advisor",
	Short: "Ask an AI advisor about the farm",
	RunE:  runAdvisor,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show farmhand status",
	RunE:  runStatus,
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize config and data directory",
	RunE:  runOnboard,
}

var (
	viewCountFlag       int
	viewAllFlag         bool
	viewRangeFlag       string
	viewGranularityFlag string
	viewAxisFlag        string
	dashboardHTMLFlag   bool
	watchOnceFlag       bool
	advisorMessageFlag  string
)

func init() {
	viewCmd.Flags().IntVarP(&viewCountFlag, "count", "n", 0, "Last N sessions (0 uses the configured default)")
	viewCmd.Flags().BoolVar(&viewAllFlag, "all", false, "Include every session")
	viewCmd.Flags().StringVar(&viewRangeFlag, "range", "", "Time range: this-week, this-month, this-season, this-year")
	viewCmd.Flags().StringVarP(&viewGranularityFlag, "granularity", "g", "", "Grouping: session, day, week, period, year")
	viewCmd.Flags().StringVar(&viewAxisFlag, "axis", "", "Calendar: game or real")
	dashboardCmd.Flags().BoolVar(&dashboardHTMLFlag, "html", false, "Write the HTML dashboard instead of printing")
	watchCmd.Flags().BoolVar(&watchOnceFlag, "once", false, "Run a single check and exit")
	advisorCmd.Flags().StringVarP(&advisorMessageFlag, "message", "m", "", "Single question to ask")

	promptCmd.AddCommand(promptStartCmd, promptEndCmd)
	rootCmd.AddCommand(trackCmd, viewCmd, dashboardCmd, rollupsCmd, promptCmd, watchCmd, advisorCmd, statusCmd, onboardCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// performTrack is the one shared session-recording path: track, watch
// ticks, and tests all go through it. recorded=false with nil error
// means the save was identical to the last snapshot.
func performTrack(cfg *config.Config) (*diary.Entry, bool, error) {
	curr, err := snapshot.Load(cfg.Paths.SaveState, time.Now())
	if err != nil {
		return nil, false, err
	}

	snapStore := snapshot.NewStore(cfg.Paths.Snapshot())
	prev, err := snapStore.Last()
	if err != nil {
		return nil, false, err
	}
	if prev != nil && prev.Same(curr) {
		return nil, false, nil
	}

	if err := os.MkdirAll(cfg.Paths.DataDir, 0755); err != nil {
		return nil, false, fmt.Errorf("create data dir: %w", err)
	}

	tracker := diary.NewTracker(diary.NewStore(cfg.Paths.Diary()))
	entry, err := tracker.RecordSession(prev, curr)
	if err != nil {
		return nil, false, err
	}

	if err := snapStore.Save(curr); err != nil {
		return entry, true, fmt.Errorf("save snapshot: %w", err)
	}
	if _, err := metrics.NewStore(cfg.Paths.Metrics()).Record(curr); err != nil {
		log.Warn().Err(err).Msg("failed to update metrics")
	}
	if err := refreshRollups(cfg); err != nil {
		log.Warn().Err(err).Msg("failed to refresh rollup cache")
	}
	return entry, true, nil
}

func refreshRollups(cfg *config.Config) error {
	entries, err := loadEntries(cfg)
	if err != nil {
		return err
	}
	store, err := rollup.Open(cfg.Paths.Rollups())
	if err != nil {
		return err
	}
	defer store.Close()
	_, err = store.Refresh(entries)
	return err
}

func loadEntries(cfg *config.Config) ([]diary.Entry, error) {
	l, err := diary.NewStore(cfg.Paths.Diary()).Load()
	if err != nil {
		return nil, err
	}
	return l.Entries, nil
}

func runTrack(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Println("Analyzing save state...")
	entry, recorded, err := performTrack(cfg)
	if err != nil {
		return err
	}
	if !recorded {
		fmt.Println("No changes detected since the last session.")
		return nil
	}

	fmt.Printf("Session recorded: %s -> %s\n", entry.SessionStart, entry.GameDate)
	fmt.Printf("Gold: %+dg (now %dg)\n", entry.Delta.Money, entry.Absolute.Money)
	for _, a := range entry.Accomplishments {
		fmt.Printf("  - %s\n", a)
	}
	return nil
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	entries, err := loadEntries(cfg)
	if err != nil {
		return err
	}

	vcfg := viewConfigFromFlags(cfg)

	// The cache is optional for a view; a missing or unreadable DB just
	// means aggregating from the log directly.
	var index *rollup.Index
	if store, err := rollup.Open(cfg.Paths.Rollups()); err == nil {
		index, _ = store.Load()
		store.Close()
	}

	points, err := view.Build(entries, index, vcfg)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		fmt.Println("No sessions match.")
		return nil
	}

	return printPoints(cmd.OutOrStdout(), points)
}

func viewConfigFromFlags(cfg *config.Config) view.Config {
	vcfg := view.Config{
		Count:       cfg.View.Count,
		Range:       view.Range(viewRangeFlag),
		Granularity: rollup.Granularity(cfg.View.Granularity),
		Axis:        rollup.Axis(cfg.View.Axis),
	}
	if viewAllFlag {
		vcfg.Count = view.CountAll
	} else if viewCountFlag > 0 {
		vcfg.Count = viewCountFlag
	}
	if viewGranularityFlag != "" {
		vcfg.Granularity = rollup.Granularity(viewGranularityFlag)
	}
	if viewAxisFlag != "" {
		vcfg.Axis = rollup.Axis(viewAxisFlag)
	}
	return vcfg
}

func printPoints(w io.Writer, points []view.Point) error {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PERIOD\tSESSIONS\tGOLD\tXP\tDAYS\tBALANCE")
	for _, p := range points {
		fmt.Fprintf(tw, "%s\t%d\t%+d\t%d\t%d\t%d\n",
			p.Label, p.Entries, p.Delta.Money, p.Delta.TotalXP(), p.Delta.DaysPlayed, p.Absolute.Money)
	}
	return tw.Flush()
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	snap, err := snapshot.NewStore(cfg.Paths.Snapshot()).Last()
	if err != nil {
		return err
	}
	entries, err := loadEntries(cfg)
	if err != nil {
		return err
	}
	history, err := metrics.NewStore(cfg.Paths.Metrics()).Load()
	if err != nil {
		return err
	}

	var bundles []bundle.Status
	if snap != nil {
		if bundles, err = bundle.Check(snap); err != nil {
			return err
		}
	}

	d := render.Assemble(snap, entries, history.Trends, bundles)
	if dashboardHTMLFlag {
		if err := os.MkdirAll(cfg.Paths.DataDir, 0755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
		if err := d.WriteHTML(cfg.Paths.Dashboard()); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", cfg.Paths.Dashboard())
		return nil
	}
	fmt.Print(d.Render())
	return nil
}

func runRollups(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	entries, err := loadEntries(cfg)
	if err != nil {
		return err
	}
	store, err := rollup.Open(cfg.Paths.Rollups())
	if err != nil {
		return err
	}
	defer store.Close()

	ix, err := store.Refresh(entries)
	if err != nil {
		return err
	}

	fmt.Printf("Rollup cache rebuilt from %d entries: %s\n", ix.EntryCount, cfg.Paths.Rollups())
	for _, g := range []rollup.Granularity{rollup.ByDay, rollup.ByWeek, rollup.ByPeriod, rollup.ByYear} {
		gameBuckets, _ := ix.Lookup(g, rollup.AxisGame)
		realBuckets, _ := ix.Lookup(g, rollup.AxisReal)
		fmt.Printf("  %-7s game: %d, real: %d\n", g, len(gameBuckets), len(realBuckets))
	}
	return nil
}

func runPromptStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	snap, err := snapshot.NewStore(cfg.Paths.Snapshot()).Last()
	if err != nil {
		return err
	}
	entries, err := loadEntries(cfg)
	if err != nil {
		return err
	}
	var bundles []bundle.Status
	if snap != nil {
		if bundles, err = bundle.Check(snap); err != nil {
			return err
		}
	}

	fmt.Print(prompt.SessionStart(snap, entries, bundles))
	return nil
}

func runPromptEnd(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	entries, err := loadEntries(cfg)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no sessions recorded yet; run 'farmhand track' first")
	}

	fmt.Print(prompt.SessionEnd(&entries[len(entries)-1]))
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	svc := watch.NewService(filepath.Join(cfg.Paths.DataDir, "watch.json"), cfg.Watch.Schedule)
	svc.OnCheck = func() (bool, error) {
		_, recorded, err := performTrack(cfg)
		return recorded, err
	}

	if watchOnceFlag {
		svc.RunNow()
		st := svc.State()
		fmt.Printf("Check: %s", st.LastStatus)
		if st.LastError != "" {
			fmt.Printf(" (%s)", st.LastError)
		}
		fmt.Println()
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := svc.Start(ctx); err != nil {
		return err
	}

	fmt.Printf("Watching save state on schedule %q (Ctrl-C to stop)\n", cfg.Watch.Schedule)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	svc.Stop()
	return nil
}

// advisorOptions carries injectable dependencies for testing.
type advisorOptions struct {
	Factory advisor.RuntimeFactory
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

func runAdvisor(cmd *cobra.Command, args []string) error {
	return runAdvisorWithOptions(advisorOptions{})
}

func runAdvisorWithOptions(opts advisorOptions) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	snap, err := snapshot.NewStore(cfg.Paths.Snapshot()).Last()
	if err != nil {
		return err
	}
	entries, err := loadEntries(cfg)
	if err != nil {
		return err
	}
	var bundles []bundle.Status
	if snap != nil {
		if bundles, err = bundle.Check(snap); err != nil {
			return err
		}
	}

	a, err := advisor.New(cfg, prompt.SessionStart(snap, entries, bundles), opts.Factory)
	if err != nil {
		return err
	}
	defer a.Close()

	stdin := opts.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	ctx := context.Background()

	if advisorMessageFlag != "" {
		answer, err := a.Ask(ctx, advisorMessageFlag)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, answer)
		return nil
	}

	fmt.Fprintln(stdout, "farmhand advisor (type 'exit' to quit)")
	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, "\n> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		answer, err := a.Ask(ctx, input)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			continue
		}
		fmt.Fprintln(stdout, answer)
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Config: error (%v)\n", err)
		return nil
	}

	fmt.Printf("Config: %s\n", config.ConfigPath())
	fmt.Printf("Save state: %s", cfg.Paths.SaveState)
	if _, err := os.Stat(cfg.Paths.SaveState); err != nil {
		fmt.Print(" (not found)")
	}
	fmt.Println()
	fmt.Printf("Data dir: %s\n", cfg.Paths.DataDir)

	if l, err := diary.NewStore(cfg.Paths.Diary()).Load(); err == nil {
		fmt.Printf("Sessions: %d\n", len(l.Entries))
		if last := l.Last(); last != nil {
			fmt.Printf("Last session: %s (%s)\n", last.GameDate, last.RecordedAt.Format("2006-01-02 15:04"))
		}
	}

	fmt.Printf("Watch: enabled=%v schedule=%q\n", cfg.Watch.Enabled, cfg.Watch.Schedule)
	fmt.Printf("Model: %s\n", cfg.Advisor.Model)
	fmt.Printf("Provider: %s\n", providerDisplay(cfg.Advisor.Provider.Type))
	key := cfg.Advisor.Provider.APIKey
	switch {
	case key == "":
		fmt.Println("API Key: not set")
	case len(key) > 8:
		fmt.Printf("API Key: %s...%s\n", key[:4], key[len(key)-4:])
	default:
		fmt.Println("API Key: set")
	}
	return nil
}

func providerDisplay(t string) string {
	if t == "" {
		return "anthropic (default)"
	}
	return t
}

func runOnboard(cmd *cobra.Command, args []string) error {
	cfgDir := config.ConfigDir()
	cfgPath := config.ConfigPath()

	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := config.SaveConfig(config.DefaultConfig()); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("Created config: %s\n", cfgPath)
	} else {
		fmt.Printf("Config already exists: %s\n", cfgPath)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := os.MkdirAll(cfg.Paths.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	fmt.Printf("Data dir ready: %s\n", cfg.Paths.DataDir)
	fmt.Println("\nNext steps:")
	fmt.Printf("  1. Point paths.saveState in %s at your save-state export\n", cfgPath)
	fmt.Println("  2. Run 'farmhand track' after a play session")
	fmt.Println("  3. Run 'farmhand dashboard' to see progress")
	return nil
}
