// Package persistence defines the snapshot store contract for table
// collections: named, whole-collection snapshots serialized through the
// substrate's own column-set encoding. Implementations live in the memory,
// sqlite, and postgres subpackages.
package persistence

import (
	"context"

	"lineagecore/internal/tables"
)

// Snapshot is one stored tree sequence: the full table collection plus its
// optional reference sequence.
type Snapshot struct {
	Collection        *tables.Collection `json:"collection"`
	ReferenceSequence string             `json:"reference_sequence,omitempty"`
}

// Clone returns a deep copy so stored state never aliases caller state.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{ReferenceSequence: s.ReferenceSequence}
	if s.Collection != nil {
		out.Collection = s.Collection.Clone()
	}
	return out
}

// Store persists named snapshots. Put replaces any existing snapshot under
// the same name.
type Store interface {
	Put(ctx context.Context, name string, snap Snapshot) error
	Get(ctx context.Context, name string) (Snapshot, bool, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) (bool, error)
	Close() error
}
