// Package watch runs the save check on a schedule so sessions get
// recorded without the player remembering to run track by hand.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Outcome of one scheduled check.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

// State is what the watcher remembers between process restarts,
// persisted as JSON next to the other data files.
type State struct {
	LastRunAt        time.Time `json:"lastRunAt"`
	LastStatus       string    `json:"lastStatus,omitempty"`
	LastError        string    `json:"lastError,omitempty"`
	Runs             int       `json:"runs"`
	SessionsRecorded int       `json:"sessionsRecorded"`
}

// CheckFunc performs one save check. recorded reports whether a new
// diary entry was written; false with nil error means the save was
// unchanged and the tick was a no-op.
type CheckFunc func() (recorded bool, err error)

type Service struct {
	statePath string
	schedule  string
	OnCheck   CheckFunc

	mu     sync.Mutex
	state  State
	cron   *cron.Cron
	cancel context.CancelFunc
	stopCh chan struct{}
}

// NewService creates a watcher with a cron expression or @every
// duration schedule. OnCheck must be set before Start.
func NewService(statePath, schedule string) *Service {
	return &Service{statePath: statePath, schedule: schedule}
}

// Start loads persisted state and begins ticking. It returns an error
// for an unparseable schedule; the caller should treat that as a
// config problem, not retry.
func (s *Service) Start(ctx context.Context) error {
	if s.OnCheck == nil {
		return fmt.Errorf("watch: OnCheck not set")
	}

	runCtx, cancel := context.WithCancel(ctx)
	stopCh := make(chan struct{})
	s.mu.Lock()
	s.cancel = cancel
	s.stopCh = stopCh
	s.mu.Unlock()

	if err := s.load(); err != nil {
		log.Warn().Err(err).Msg("failed to load watch state")
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.schedule, s.RunNow); err != nil {
		cancel()
		return fmt.Errorf("invalid watch schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	log.Info().Str("schedule", s.schedule).Msg("watch started")

	go func() {
		select {
		case <-runCtx.Done():
			s.Stop()
		case <-stopCh:
			return
		}
	}()

	return nil
}

// RunNow performs one check immediately, outside the schedule. The
// watch command uses it for its --once mode.
func (s *Service) RunNow() {
	recorded, err := s.OnCheck()

	s.mu.Lock()
	s.state.LastRunAt = time.Now()
	s.state.Runs++
	switch {
	case err != nil:
		s.state.LastStatus = StatusError
		s.state.LastError = err.Error()
		log.Error().Err(err).Msg("watch check failed")
	case recorded:
		s.state.LastStatus = StatusOK
		s.state.LastError = ""
		s.state.SessionsRecorded++
		log.Info().Msg("watch recorded a session")
	default:
		s.state.LastStatus = StatusSkipped
		s.state.LastError = ""
		log.Debug().Msg("watch: save unchanged")
	}
	s.mu.Unlock()

	if err := s.save(); err != nil {
		log.Warn().Err(err).Msg("failed to save watch state")
	}
}

// Stop halts the schedule and waits briefly for an in-flight check.
// Safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	stopCh := s.stopCh
	s.cancel = nil
	s.stopCh = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if stopCh != nil {
		close(stopCh)
	}

	if s.cron != nil {
		stopCtx := s.cron.Stop()
		select {
		case <-stopCtx.Done():
		case <-time.After(5 * time.Second):
			log.Warn().Msg("watch stop timeout waiting for running check")
		}
	}
	log.Info().Msg("watch stopped")
}

// State returns a copy of the current watcher state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Service) load() error {
	data, err := os.ReadFile(s.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Unmarshal(data, &s.state)
}

func (s *Service) save() error {
	dir := filepath.Dir(s.statePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	s.mu.Lock()
	data, err := json.MarshalIndent(s.state, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return os.WriteFile(s.statePath, data, 0644)
}
