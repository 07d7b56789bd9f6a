package diary

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/ryanckelly/farmhand/internal/atomicfile"
)

// Meta describes the log as a whole; maintained on every append.
type Meta struct {
	Created       time.Time  `json:"created"`
	LastUpdated   *time.Time `json:"lastUpdated"`
	TotalSessions int        `json:"totalSessions"`
}

// Log is the ordered, append-only sequence of diary entries. It is a
// plain value: readers get their own copy of the slice header and must
// treat entries as immutable.
type Log struct {
	Entries []Entry `json:"entries"`
	Meta    Meta    `json:"meta"`
}

// Last returns the most recent entry, or nil for an empty log.
func (l *Log) Last() *Entry {
	if len(l.Entries) == 0 {
		return nil
	}
	return &l.Entries[len(l.Entries)-1]
}

// Store persists the diary log as a single JSON document, replaced
// atomically on every save so a failed write never tears the history.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Load reads the full log. A missing file yields an empty log.
func (s *Store) Load() (*Log, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Log{Meta: Meta{Created: time.Now()}}, nil
		}
		return nil, errors.Wrap(err, "read diary log")
	}
	var l Log
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, errors.Wrap(err, "parse diary log")
	}
	return &l, nil
}

// Save writes the whole log in one atomic replace.
func (s *Store) Save(l *Log) error {
	return errors.Wrap(atomicfile.WriteJSON(s.path, l), "save diary log")
}
