package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// ErrObjectNotFound signals that no stored object exists under the given key.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore abstracts binary storage for uploaded files. Keys are
// slash-separated, rooted at the owning user: {userID}/[folder/]{storedName}.
type ObjectStore interface {
	// Save writes the full reader contents under key, creating any missing
	// prefixes, and returns the number of bytes written. A failed write must
	// not leave a partial object behind.
	Save(ctx context.Context, key string, r io.Reader) (int64, error)
	// Open returns a reader over the object. ErrObjectNotFound if absent.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Remove deletes the object. A missing object is not an error.
	Remove(ctx context.Context, key string) error
	// EnsurePrefix provisions the given key prefix (a user root or folder).
	EnsurePrefix(ctx context.Context, prefix string) error
	// Path reports the local filesystem path for key, or "" when the
	// backend has no local representation.
	Path(key string) string
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
}

// URLSigner is implemented by backends that can hand out pre-signed
// download URLs instead of streaming bytes through the API.
type URLSigner interface {
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ValidKey rejects keys that could escape the storage root.
func ValidKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}
