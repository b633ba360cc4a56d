// Package memory implements the in-memory snapshot store, the core reused by
// the sqlite and postgres backends.
package memory

import (
	"context"
	"sort"
	"sync"

	"lineagecore/internal/infra/persistence"
)

// Compile-time contract assertion.
var _ persistence.Store = (*Store)(nil)

// Store keeps snapshots in process memory. Snapshots are deep-cloned on the
// way in and out so callers can never mutate stored state.
type Store struct {
	mu    sync.RWMutex
	snaps map[string]persistence.Snapshot
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{snaps: make(map[string]persistence.Snapshot)}
}

// Put stores a snapshot under name, replacing any previous one.
func (s *Store) Put(_ context.Context, name string, snap persistence.Snapshot) error {
	s.mu.Lock()
	s.snaps[name] = snap.Clone()
	s.mu.Unlock()
	return nil
}

// Get returns the snapshot stored under name.
func (s *Store) Get(_ context.Context, name string) (persistence.Snapshot, bool, error) {
	s.mu.RLock()
	snap, ok := s.snaps[name]
	s.mu.RUnlock()
	if !ok {
		return persistence.Snapshot{}, false, nil
	}
	return snap.Clone(), true, nil
}

// List returns the stored snapshot names in sorted order.
func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	names := make([]string, 0, len(s.snaps))
	for name := range s.snaps {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)
	return names, nil
}

// Delete removes the snapshot stored under name.
func (s *Store) Delete(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	_, ok := s.snaps[name]
	delete(s.snaps, name)
	s.mu.Unlock()
	return ok, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

// ExportState returns a deep copy of every stored snapshot, keyed by name.
func (s *Store) ExportState() map[string]persistence.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]persistence.Snapshot, len(s.snaps))
	for name, snap := range s.snaps {
		out[name] = snap.Clone()
	}
	return out
}

// ImportState replaces the store contents with the given snapshots.
func (s *Store) ImportState(snaps map[string]persistence.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps = make(map[string]persistence.Snapshot, len(snaps))
	for name, snap := range snaps {
		s.snaps[name] = snap.Clone()
	}
}
