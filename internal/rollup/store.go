package rollup

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/ryanckelly/farmhand/internal/diary"
)

// errStaleCache marks a persisted index that no longer matches the
// diary log. It never escapes this package: Refresh recovers by
// rebuilding from the log.
var errStaleCache = errors.New("rollup cache stale")

// Store persists the rollup index in SQLite. The database is a
// disposable cache: deleting the file only costs a rebuild.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "create cache dir")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open rollup cache")
	}
	s := &Store{db: db}
	if err := s.configure(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return errors.Wrapf(err, "sqlite pragma %q", p)
		}
	}
	return nil
}

func (s *Store) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rollup_meta (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			entry_count INTEGER NOT NULL,
			built_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS rollup_buckets (
			axis TEXT NOT NULL,
			granularity TEXT NOT NULL,
			sort_key INTEGER NOT NULL,
			label TEXT NOT NULL,
			delta_json TEXT NOT NULL DEFAULT '{}',
			absolute_json TEXT NOT NULL DEFAULT '{}',
			entries INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (axis, granularity, sort_key)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrap(err, "init rollup schema")
		}
	}
	return nil
}

// Save replaces the persisted index in one transaction.
func (s *Store) Save(ix *Index) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM rollup_buckets`); err != nil {
		return errors.Wrap(err, "clear buckets")
	}
	if _, err := tx.Exec(
		`INSERT INTO rollup_meta (id, entry_count, built_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET entry_count = excluded.entry_count, built_at = excluded.built_at`,
		ix.EntryCount, ix.BuiltAt.UTC().Format(time.RFC3339),
	); err != nil {
		return errors.Wrap(err, "save meta")
	}

	insert, err := tx.Prepare(
		`INSERT INTO rollup_buckets (axis, granularity, sort_key, label, delta_json, absolute_json, entries)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "prepare insert")
	}
	defer insert.Close()

	for axis, byG := range ix.buckets {
		for g, buckets := range byG {
			for _, b := range buckets {
				deltaJSON, err := json.Marshal(b.Delta)
				if err != nil {
					return errors.Wrap(err, "marshal delta")
				}
				absJSON, err := json.Marshal(b.Absolute)
				if err != nil {
					return errors.Wrap(err, "marshal absolute")
				}
				if _, err := insert.Exec(string(axis), string(g), b.Key, b.Label,
					string(deltaJSON), string(absJSON), b.Entries); err != nil {
					return errors.Wrap(err, "insert bucket")
				}
			}
		}
	}
	return errors.Wrap(tx.Commit(), "commit")
}

// Load reads the persisted index. A cache that has never been written
// returns (nil, nil).
func (s *Store) Load() (*Index, error) {
	var entryCount int
	var builtAt string
	err := s.db.QueryRow(`SELECT entry_count, built_at FROM rollup_meta WHERE id = 1`).
		Scan(&entryCount, &builtAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read meta")
	}

	ix := &Index{EntryCount: entryCount}
	if ts, err := time.Parse(time.RFC3339, builtAt); err == nil {
		ix.BuiltAt = ts
	}

	rows, err := s.db.Query(
		`SELECT axis, granularity, sort_key, label, delta_json, absolute_json, entries
		 FROM rollup_buckets ORDER BY axis, granularity, sort_key`)
	if err != nil {
		return nil, errors.Wrap(err, "read buckets")
	}
	defer rows.Close()

	for rows.Next() {
		var axis, g, deltaJSON, absJSON string
		var b Bucket
		if err := rows.Scan(&axis, &g, &b.Key, &b.Label, &deltaJSON, &absJSON, &b.Entries); err != nil {
			return nil, errors.Wrap(err, "scan bucket")
		}
		if err := json.Unmarshal([]byte(deltaJSON), &b.Delta); err != nil {
			return nil, errors.Wrap(err, "parse delta")
		}
		if err := json.Unmarshal([]byte(absJSON), &b.Absolute); err != nil {
			return nil, errors.Wrap(err, "parse absolute")
		}
		existing, _ := ix.Lookup(Granularity(g), Axis(axis))
		ix.put(Granularity(g), Axis(axis), append(existing, b))
	}
	return ix, rows.Err()
}

// Refresh returns an index that matches the diary entries, reusing the
// persisted cache when it is current and rebuilding it otherwise.
// Staleness is recovered here and never reaches the caller as an error.
func (s *Store) Refresh(entries []diary.Entry) (*Index, error) {
	ix, err := s.Load()
	if err == nil && ix != nil && !ix.Fresh(len(entries)) {
		err = errStaleCache
	}
	if err != nil || ix == nil {
		if errors.Is(err, errStaleCache) {
			log.Debug().
				Int("cached", ix.EntryCount).
				Int("log", len(entries)).
				Msg("rollup cache stale, rebuilding")
		} else if err != nil {
			// A corrupt cache is treated the same as a stale one.
			log.Warn().Err(err).Msg("rollup cache unreadable, rebuilding")
		}
		ix = Build(entries)
		if err := s.Save(ix); err != nil {
			return nil, err
		}
	}
	return ix, nil
}
