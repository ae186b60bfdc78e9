package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned when a requested object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key     string // bucket-relative key
	URI     string // scheme://bucket/key, filled in by Blobs
	Size    int64
	Updated time.Time
}

// ObjectStorage defines the interface for object storage operations.
// Implementations address objects by bucket and key; Blobs adds scheme routing on top.
type ObjectStorage interface {
	// Upload streams reader into bucket/key, overwriting any existing object.
	Upload(ctx context.Context, bucket, key string, reader io.Reader, contentType string) error

	// Download opens bucket/key for reading. Missing objects yield ErrObjectNotFound.
	Download(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// Exists checks if an object exists
	Exists(ctx context.Context, bucket, key string) (bool, error)

	// List returns the objects directly under prefix (no descent into sub-prefixes).
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, bucket, key string) error
}
