// Package postgres implements a Postgres-backed snapshot store mirroring the
// in-memory semantics, with snapshots kept as JSONB rows.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"lineagecore/internal/infra/persistence"
	"lineagecore/internal/infra/persistence/memory"
)

// Compile-time contract assertion.
var _ persistence.Store = (*Store)(nil)

const (
	defaultDriver = "pgx"
	// Default DSN mirrors local development defaults; override via NewStore.
	defaultDSN = "postgres://localhost/lineagecore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore
// function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	prev := sqlOpen
	sqlOpen = fn
	openMu.Unlock()
	return func() {
		openMu.Lock()
		sqlOpen = prev
		openMu.Unlock()
	}
}

// Store persists snapshots to Postgres while reusing the in-memory
// implementation for reads.
type Store struct {
	*memory.Store
	db *sql.DB
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back
// to defaultDSN), ensures the snapshot table exists, and hydrates the
// in-memory store from any existing rows.
func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS snapshots (
		name TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("ensure snapshots table: %w", err)
	}
	s := &Store{Store: memory.New(), db: db}
	if err := s.load(ctx); err != nil {
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

// Put stores the snapshot in memory and mirrors it to Postgres.
func (s *Store) Put(ctx context.Context, name string, snap persistence.Snapshot) error {
	if err := s.Store.Put(ctx, name, snap); err != nil {
		return err
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", name, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots(name, payload) VALUES($1, $2)
		 ON CONFLICT(name) DO UPDATE SET payload = excluded.payload`,
		name, payload); err != nil {
		return fmt.Errorf("persist snapshot %s: %w", name, err)
	}
	return nil
}

// Delete removes the snapshot from memory and Postgres.
func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	ok, err := s.Store.Delete(ctx, name)
	if err != nil {
		return ok, err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE name = $1`, name); err != nil {
		return ok, fmt.Errorf("delete snapshot %s: %w", name, err)
	}
	return ok, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
