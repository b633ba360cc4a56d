package archive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const metaSuffix = ".meta"

// Filesystem implements Store on a local directory. Each payload is a file
// under the root, with a sidecar JSON file carrying its metadata.
type Filesystem struct {
	root string
}

// NewFilesystem returns a filesystem store rooted at root (default
// ./archivedata). The directory is created if missing.
func NewFilesystem(root string) (*Filesystem, error) {
	if root == "" {
		root = "archivedata"
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create archive root: %w", err)
	}
	return &Filesystem{root: root}, nil
}

// Driver returns the archive driver identifier.
func (s *Filesystem) Driver() Driver { return DriverFilesystem }

// sanitizeKey rejects keys that would escape the root directory.
func (s *Filesystem) sanitizeKey(key string) (string, error) {
	if key == "" {
		return "", errors.New("archive: empty key")
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("archive: invalid key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

// Put writes the payload to a temp file, fsyncs metadata alongside it, and
// renames into place so readers never observe a partial object.
func (s *Filesystem) Put(_ context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	path, err := s.sanitizeKey(key)
	if err != nil {
		return Info{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return Info{}, fmt.Errorf("create key dirs: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".archive-*")
	if err != nil {
		return Info{}, fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	hash := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hash), r)
	if err != nil {
		_ = tmp.Close()
		return Info{}, fmt.Errorf("write payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Info{}, fmt.Errorf("close temp: %w", err)
	}

	info := Info{
		Key:          key,
		Size:         size,
		ContentType:  opts.ContentType,
		ETag:         hex.EncodeToString(hash.Sum(nil)),
		Metadata:     cloneMetadata(opts.Metadata),
		LastModified: time.Now().UTC(),
	}
	metaBytes, err := json.Marshal(info)
	if err != nil {
		return Info{}, fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.WriteFile(path+metaSuffix, metaBytes, 0o640); err != nil {
		return Info{}, fmt.Errorf("write metadata: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(path + metaSuffix)
		return Info{}, fmt.Errorf("rename payload: %w", err)
	}
	return info, nil
}

// Get returns payload metadata and a reader over the file content.
func (s *Filesystem) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	info, err := s.Head(ctx, key)
	if err != nil {
		return Info{}, nil, err
	}
	path, err := s.sanitizeKey(key)
	if err != nil {
		return Info{}, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Info{}, nil, ErrNotFound
		}
		return Info{}, nil, fmt.Errorf("open payload: %w", err)
	}
	return info, f, nil
}

// Head returns payload metadata from the sidecar file.
func (s *Filesystem) Head(_ context.Context, key string) (Info, error) {
	path, err := s.sanitizeKey(key)
	if err != nil {
		return Info{}, err
	}
	metaBytes, err := os.ReadFile(path + metaSuffix)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Info{}, ErrNotFound
		}
		return Info{}, fmt.Errorf("read metadata: %w", err)
	}
	var info Info
	if err := json.Unmarshal(metaBytes, &info); err != nil {
		return Info{}, fmt.Errorf("decode metadata for %s: %w", key, err)
	}
	return info, nil
}

// Delete removes the payload and its metadata sidecar.
func (s *Filesystem) Delete(_ context.Context, key string) (bool, error) {
	path, err := s.sanitizeKey(key)
	if err != nil {
		return false, err
	}
	err = os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("remove payload: %w", err)
	}
	if err := os.Remove(path + metaSuffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return true, fmt.Errorf("remove metadata: %w", err)
	}
	return true, nil
}

// List walks the root and returns metadata for every payload whose key has
// the given prefix, sorted by key.
func (s *Filesystem) List(ctx context.Context, prefix string) ([]Info, error) {
	var out []Info
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, metaSuffix) {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := s.Head(ctx, key)
		if errors.Is(err, ErrNotFound) {
			return nil // payload without sidecar, skip
		}
		if err != nil {
			return err
		}
		out = append(out, info)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk archive root: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
