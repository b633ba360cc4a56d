package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"lineagecore/internal/infra/persistence"
)

const snapshotContentType = "application/json"

// PutSnapshot serializes a table snapshot and stores it under key.
func PutSnapshot(ctx context.Context, store Store, key string, snap persistence.Snapshot) (Info, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return Info{}, fmt.Errorf("encode snapshot %s: %w", key, err)
	}
	return store.Put(ctx, key, bytes.NewReader(payload), PutOptions{ContentType: snapshotContentType})
}

// GetSnapshot retrieves and decodes the snapshot stored under key.
func GetSnapshot(ctx context.Context, store Store, key string) (persistence.Snapshot, error) {
	_, rc, err := store.Get(ctx, key)
	if err != nil {
		return persistence.Snapshot{}, err
	}
	defer func() { _ = rc.Close() }()
	payload, err := io.ReadAll(rc)
	if err != nil {
		return persistence.Snapshot{}, fmt.Errorf("read snapshot %s: %w", key, err)
	}
	var snap persistence.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return persistence.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return snap, nil
}
