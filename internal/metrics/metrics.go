// Package metrics keeps a condensed history of save snapshots for
// trend charts. Unlike the diary it stores points, not deltas, so it
// can be rebuilt or trimmed without touching session history.
package metrics

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/ryanckelly/farmhand/internal/atomicfile"
	"github.com/ryanckelly/farmhand/internal/gamedate"
	"github.com/ryanckelly/farmhand/internal/snapshot"
)

// Point is one condensed snapshot: just the counters the trend charts
// plot, keyed by both calendars.
type Point struct {
	CapturedAt        time.Time      `json:"capturedAt"`
	GameDate          gamedate.Date  `json:"gameDate"`
	Money             int64          `json:"money"`
	TotalEarned       int64          `json:"totalEarned"`
	Animals           int            `json:"animals"`
	SkillLevels       map[string]int `json:"skillLevels"`
	BundlesComplete   int            `json:"bundlesComplete"`
	GoldenWalnuts     int            `json:"goldenWalnuts"`
	PerfectionPercent float64        `json:"perfectionPercent"`
}

// Trends are the headline numbers computed from the last two points.
type Trends struct {
	// DailyIncomeAvg is the money change between the two most recent
	// points. Negative when the player spent more than they earned.
	DailyIncomeAvg int64 `json:"dailyIncomeAvg"`
	// MoneyGrowthRate is that change relative to the previous balance.
	MoneyGrowthRate float64 `json:"moneyGrowthRate"`
}

// History is the persisted metrics file.
type History struct {
	Points []Point `json:"points"`
	Trends Trends  `json:"trends"`
	Meta   Meta    `json:"meta"`
}

type Meta struct {
	TrackingStarted time.Time `json:"trackingStarted"`
	TotalPoints     int       `json:"totalPoints"`
}

// Last returns the most recent point, if any.
func (h *History) Last() (Point, bool) {
	if len(h.Points) == 0 {
		return Point{}, false
	}
	return h.Points[len(h.Points)-1], true
}

// PointFrom condenses a full save snapshot into a trend point.
func PointFrom(s *snapshot.Snapshot) Point {
	levels := make(map[string]int, len(s.Skills))
	for name, st := range s.Skills {
		levels[name] = st.Level
	}
	return Point{
		CapturedAt:        s.CapturedAt,
		GameDate:          s.GameDate,
		Money:             s.Money,
		TotalEarned:       s.TotalEarned,
		Animals:           s.Animals,
		SkillLevels:       levels,
		BundlesComplete:   s.BundlesComplete,
		GoldenWalnuts:     s.GoldenWalnuts,
		PerfectionPercent: s.PerfectionPercent,
	}
}

// ComputeTrends derives the headline trends from the two most recent
// points. Fewer than two points yields zero trends.
func ComputeTrends(points []Point) Trends {
	if len(points) < 2 {
		return Trends{}
	}
	recent := points[len(points)-1]
	previous := points[len(points)-2]

	change := recent.Money - previous.Money
	base := previous.Money
	if base < 1 {
		base = 1
	}
	return Trends{
		DailyIncomeAvg:  change,
		MoneyGrowthRate: float64(change) / float64(base),
	}
}

// Store persists the metrics history as a JSON file with atomic
// replacement, same discipline as the diary log.
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the history; a missing file is an empty history.
func (s *Store) Load() (*History, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (*History, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &History{Meta: Meta{TrackingStarted: time.Now().UTC()}}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read metrics history")
	}
	var h History
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, errors.Wrap(err, "decode metrics history")
	}
	return &h, nil
}

// Record appends a point for the snapshot and refreshes the trends.
// The updated history is returned so callers need not reload.
func (s *Store) Record(snap *snapshot.Snapshot) (*History, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.load()
	if err != nil {
		return nil, err
	}
	h.Points = append(h.Points, PointFrom(snap))
	h.Trends = ComputeTrends(h.Points)
	h.Meta.TotalPoints = len(h.Points)

	if err := atomicfile.WriteJSON(s.path, h); err != nil {
		return nil, errors.Wrap(err, "save metrics history")
	}
	return h, nil
}
