package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store archives run results in a SQLite database. The full document is
// kept as a JSON payload; a few columns are lifted out for listing and
// filtering without decoding every run.
type Store struct {
	db *sql.DB
}

// RunInfo is one row of the run index.
type RunInfo struct {
	RunID     string
	Timestamp time.Time
	Status    string
	Gas       string
	Length    float64
}

// OpenStore opens or creates the database at path. Use ":memory:" for an
// ephemeral store.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("results: store path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id         TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			status     TEXT NOT NULL,
			gas        TEXT NOT NULL,
			length     REAL NOT NULL,
			payload    TEXT NOT NULL
		)
	`)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Save inserts or replaces one run document keyed by its run ID.
func (s *Store) Save(ctx context.Context, r *Results) error {
	if r.Metadata.RunID == "" {
		return errors.New("results: run ID is required")
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode run %s: %w", r.Metadata.RunID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, status, gas, length, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			created_at = excluded.created_at,
			status     = excluded.status,
			gas        = excluded.gas,
			length     = excluded.length,
			payload    = excluded.payload
	`, r.Metadata.RunID, r.Metadata.Timestamp.UTC().Format(time.RFC3339Nano),
		r.Metadata.Status, r.Fibre.Gas, r.Fibre.Length, payload)
	return err
}

// Get loads one run by ID. The second return value reports whether the
// run exists.
func (s *Store) Get(ctx context.Context, id string) (*Results, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM runs WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var r Results
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, false, fmt.Errorf("decode run %s: %w", id, err)
	}
	return &r, true, nil
}

// List returns the run index, newest first.
func (s *Store) List(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, status, gas, length
		FROM runs ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		var info RunInfo
		var created string
		if err := rows.Scan(&info.RunID, &created, &info.Status, &info.Gas, &info.Length); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			info.Timestamp = ts
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Delete removes one run by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	return err
}
