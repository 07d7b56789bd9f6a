package snapshot

import (
	"bytes"
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/ryanckelly/farmhand/internal/atomicfile"
)

// Load reads an already-decoded save-state JSON file and returns a
// validated Snapshot. Unknown fields are rejected here, at the
// boundary, so the core never sees a loosely shaped record. If the
// file carries no capture timestamp, now is stamped in.
func Load(path string, now time.Time) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read save state")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var s Snapshot
	if err := dec.Decode(&s); err != nil {
		return nil, &InvalidError{Field: "(document)", Reason: err.Error()}
	}
	if s.CapturedAt.IsZero() {
		s.CapturedAt = now
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Store holds the single current-state record, overwritten whole each
// time a session is recorded.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Last returns the previously saved snapshot, or (nil, nil) when none
// has been recorded yet (the very first run).
func (st *Store) Last() (*Snapshot, error) {
	data, err := os.ReadFile(st.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read snapshot")
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "parse snapshot")
	}
	return &s, nil
}

// Save atomically replaces the stored snapshot.
func (st *Store) Save(s *Snapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return atomicfile.WriteJSON(st.path, s)
}
