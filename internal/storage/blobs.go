package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Content types used for connector artifacts.
const (
	ContentTypeJSON   = "application/json"
	ContentTypeNDJSON = "application/x-ndjson"
	ContentTypeText   = "text/plain"
	ContentTypeBinary = "application/octet-stream"
)

// Blobs is a path-addressed facade over the scheme-specific backends.
type Blobs struct {
	backends map[string]ObjectStorage
}

// NewBlobs creates a Blobs routing each scheme to its backend.
// Parameters:
//   - backends: backend per URI scheme (gs, s3, file).
// Returns:
//   - *Blobs: router ready for use.
func NewBlobs(backends map[string]ObjectStorage) *Blobs {
	copied := make(map[string]ObjectStorage, len(backends))
	for scheme, backend := range backends {
		copied[scheme] = backend
	}
	return &Blobs{backends: copied}
}

func (b *Blobs) resolve(uri string) (ObjectStorage, Location, error) {
	loc, err := ParseLocation(uri)
	if err != nil {
		return nil, Location{}, err
	}
	backend, ok := b.backends[loc.Scheme]
	if !ok {
		return nil, Location{}, fmt.Errorf("no object storage configured for scheme %q", loc.Scheme)
	}
	return backend, loc, nil
}

// Exists checks whether the object at uri exists.
func (b *Blobs) Exists(ctx context.Context, uri string) (bool, error) {
	backend, loc, err := b.resolve(uri)
	if err != nil {
		return false, err
	}
	return backend.Exists(ctx, loc.Bucket, loc.Key)
}

// Open opens the object at uri for reading.
func (b *Blobs) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	backend, loc, err := b.resolve(uri)
	if err != nil {
		return nil, err
	}
	return backend.Download(ctx, loc.Bucket, loc.Key)
}

// ReadAll reads the full object at uri.
func (b *Blobs) ReadAll(ctx context.Context, uri string) ([]byte, error) {
	reader, err := b.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", uri, err)
	}
	return data, nil
}

// ReadJSON decodes the JSON object at uri into v.
// Missing objects yield an error wrapping ErrObjectNotFound.
func (b *Blobs) ReadJSON(ctx context.Context, uri string, v interface{}) error {
	data, err := b.ReadAll(ctx, uri)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return fmt.Errorf("blob not found: %s: %w", uri, err)
		}
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", uri, err)
	}
	return nil
}

// Upload streams reader to uri, overwriting any existing object.
func (b *Blobs) Upload(ctx context.Context, uri string, reader io.Reader, contentType string) error {
	backend, loc, err := b.resolve(uri)
	if err != nil {
		return err
	}
	if loc.Key == "" {
		return fmt.Errorf("invalid object path: %q has no object key", uri)
	}
	return backend.Upload(ctx, loc.Bucket, loc.Key, reader, contentType)
}

// WriteString stores data at uri with the given content type.
func (b *Blobs) WriteString(ctx context.Context, uri, data, contentType string) error {
	return b.Upload(ctx, uri, strings.NewReader(data), contentType)
}

// WriteJSON stores v as JSON at uri.
func (b *Blobs) WriteJSON(ctx context.Context, uri string, v interface{}, indent bool) error {
	var (
		data []byte
		err  error
	)
	if indent {
		data, err = json.MarshalIndent(v, "", "    ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", uri, err)
	}
	return b.Upload(ctx, uri, bytes.NewReader(data), ContentTypeJSON)
}

// WriteNDJSON stores records at uri as newline-delimited JSON.
func WriteNDJSON[T any](ctx context.Context, b *Blobs, uri string, records []T) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i := range records {
		if err := enc.Encode(records[i]); err != nil {
			return fmt.Errorf("failed to encode record %d for %s: %w", i, uri, err)
		}
	}
	return b.Upload(ctx, uri, &buf, ContentTypeNDJSON)
}

// List returns the objects directly under the directory uri.
func (b *Blobs) List(ctx context.Context, uri string) ([]ObjectInfo, error) {
	backend, loc, err := b.resolve(uri)
	if err != nil {
		return nil, err
	}
	objects, err := backend.List(ctx, loc.Bucket, dirPrefix(loc.Key))
	if err != nil {
		return nil, err
	}
	for i := range objects {
		objects[i].URI = Location{Scheme: loc.Scheme, Bucket: loc.Bucket, Key: objects[i].Key}.String()
	}
	return objects, nil
}

// Delete removes the object at uri.
func (b *Blobs) Delete(ctx context.Context, uri string) error {
	backend, loc, err := b.resolve(uri)
	if err != nil {
		return err
	}
	return backend.Delete(ctx, loc.Bucket, loc.Key)
}
