// Package archive stores serialized tree-sequence snapshots as opaque
// payloads so they can be handed between tools and machines: a local
// filesystem driver for development, an S3-compatible driver for shared
// deployments, and an in-memory driver for tests.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// Driver identifies a concrete archive backend implementation.
type Driver string

const (
	// DriverFilesystem is the local filesystem implementation (default, dev).
	DriverFilesystem Driver = "fs"
	// DriverS3 is an S3 / MinIO compatible implementation.
	DriverS3 Driver = "s3"
	// DriverMemory is the in-memory implementation used in tests.
	DriverMemory Driver = "memory"
)

// ErrNotFound reports a key with no stored payload.
var ErrNotFound = errors.New("archive: not found")

// PutOptions specifies optional parameters for Put.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Info describes a stored payload.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
}

// Store is the interface for archive backends. Put replaces any payload
// already stored under the key.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

// Open selects a Store implementation using environment variables.
//
//	LINEAGECORE_ARCHIVE_DRIVER: fs|s3|memory (default fs)
//	LINEAGECORE_ARCHIVE_FS_ROOT: directory root when driver=fs (default ./archivedata)
//	(S3 specific variables documented in s3.go)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("LINEAGECORE_ARCHIVE_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return NewFilesystem(os.Getenv("LINEAGECORE_ARCHIVE_FS_ROOT"))
	case DriverS3:
		return OpenS3FromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown archive driver %s", driver)
	}
}

// Compile-time contract assertions.
var (
	_ Store = (*Memory)(nil)
	_ Store = (*Filesystem)(nil)
	_ Store = (*S3)(nil)
)

func cloneMetadata(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
