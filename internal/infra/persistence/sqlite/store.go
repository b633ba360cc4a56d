// Package sqlite implements a SQLite-backed snapshot store: the in-memory
// store hydrated from disk on open, with every write mirrored back as a JSON
// payload row.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"lineagecore/internal/infra/persistence"
	"lineagecore/internal/infra/persistence/memory"
)

// Compile-time contract assertion.
var _ persistence.Store = (*Store)(nil)

// Store persists snapshots to a single SQLite table as JSON blobs.
type Store struct {
	*memory.Store
	db *sql.DB
}

// NewStore opens (or creates) the database at path and hydrates the store
// from any snapshots already present.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "lineagecore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		name TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}
	s := &Store{Store: memory.New(), db: db}
	if err := s.load(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT name, payload FROM snapshots`)
	if err != nil {
		return fmt.Errorf("select snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()
	snaps := make(map[string]persistence.Snapshot)
	for rows.Next() {
		var name string
		var payload []byte
		if err := rows.Scan(&name, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		var snap persistence.Snapshot
		if err := json.Unmarshal(payload, &snap); err != nil {
			return fmt.Errorf("decode snapshot %s: %w", name, err)
		}
		snaps[name] = snap
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate snapshots: %w", err)
	}
	s.ImportState(snaps)
	return nil
}

// Put stores the snapshot in memory and mirrors it to the database.
func (s *Store) Put(ctx context.Context, name string, snap persistence.Snapshot) error {
	if err := s.Store.Put(ctx, name, snap); err != nil {
		return err
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", name, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots(name, payload) VALUES(?, ?)
		 ON CONFLICT(name) DO UPDATE SET payload = excluded.payload`,
		name, payload); err != nil {
		return fmt.Errorf("persist snapshot %s: %w", name, err)
	}
	return nil
}

// Delete removes the snapshot from memory and the database.
func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	ok, err := s.Store.Delete(ctx, name)
	if err != nil {
		return ok, err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE name = ?`, name); err != nil {
		return ok, fmt.Errorf("delete snapshot %s: %w", name, err)
	}
	return ok, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
