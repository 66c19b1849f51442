package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FSStore stores objects on the local filesystem under a root directory.
type FSStore struct {
	root string
}

// NewFSStore creates the root directory if needed and returns the store.
func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root %s: %w", root, err)
	}
	return &FSStore{root: root}, nil
}

// Save writes the reader contents to the file backing key.
func (s *FSStore) Save(ctx context.Context, key string, r io.Reader) (int64, error) {
	if !ValidKey(key) {
		return 0, fmt.Errorf("invalid object key %q", key)
	}
	target := s.Path(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("create object directory: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return 0, fmt.Errorf("create object file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		// Do not leave a half-written object behind.
		f.Close()
		os.Remove(target)
		return 0, fmt.Errorf("write object: %w", err)
	}
	return n, nil
}

// Open returns a reader over the stored object.
func (s *FSStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if !ValidKey(key) {
		return nil, fmt.Errorf("invalid object key %q", key)
	}
	f, err := os.Open(s.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("open object: %w", err)
	}
	return f, nil
}

// Remove deletes the object and any thumbnail derived from it.
func (s *FSStore) Remove(ctx context.Context, key string) error {
	if !ValidKey(key) {
		return fmt.Errorf("invalid object key %q", key)
	}
	target := s.Path(key)
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove object: %w", err)
	}
	// Derived previews share the original's path with a suffix.
	if err := os.Remove(target + ".thumb.jpg"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove thumbnail: %w", err)
	}
	return nil
}

// EnsurePrefix creates the directory backing a user root or folder.
func (s *FSStore) EnsurePrefix(ctx context.Context, prefix string) error {
	if !ValidKey(prefix) {
		return fmt.Errorf("invalid prefix %q", prefix)
	}
	if err := os.MkdirAll(filepath.Join(s.root, filepath.FromSlash(prefix)), 0o755); err != nil {
		return fmt.Errorf("create prefix %s: %w", prefix, err)
	}
	return nil
}

// Path returns the absolute filesystem location for key.
func (s *FSStore) Path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Ping checks the storage root is still accessible.
func (s *FSStore) Ping(ctx context.Context) error {
	if _, err := os.Stat(s.root); err != nil {
		return fmt.Errorf("stat storage root: %w", err)
	}
	return nil
}
