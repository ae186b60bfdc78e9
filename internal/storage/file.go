package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStorage implements ObjectStorage on the local filesystem.
// file://bucket/key maps to <root>/bucket/key.
type FileStorage struct {
	root string
}

// NewFileStorage creates a filesystem backend rooted at root.
func NewFileStorage(root string) *FileStorage {
	return &FileStorage{root: root}
}

func (s *FileStorage) path(bucket, key string) string {
	return filepath.Join(s.root, bucket, filepath.FromSlash(key))
}

// Upload writes reader to bucket/key, creating parent directories.
func (s *FileStorage) Upload(ctx context.Context, bucket, key string, reader io.Reader, contentType string) error {
	target := s.path(bucket, key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", target, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, reader); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to upload object %s/%s: %w", bucket, key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to move object into place: %w", err)
	}
	return nil
}

// Download opens bucket/key for reading.
func (s *FileStorage) Download(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(bucket, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s/%s: %w", bucket, key, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to download object: %w", err)
	}
	return f, nil
}

// Exists checks if bucket/key is a regular file.
func (s *FileStorage) Exists(ctx context.Context, bucket, key string) (bool, error) {
	info, err := os.Stat(s.path(bucket, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}
	return info.Mode().IsRegular(), nil
}

// List returns regular files directly under prefix.
// A prefix without a trailing slash also matches partial names, like object stores do.
func (s *FileStorage) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	var dirKey, namePrefix string
	if idx := strings.LastIndex(prefix, "/"); idx != -1 {
		dirKey, namePrefix = prefix[:idx], prefix[idx+1:]
	} else {
		namePrefix = prefix
	}

	entries, err := os.ReadDir(s.path(bucket, dirKey))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	var objects []ObjectInfo
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".upload-") {
			continue
		}
		if !strings.HasPrefix(entry.Name(), namePrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}
		key := entry.Name()
		if dirKey != "" {
			key = dirKey + "/" + entry.Name()
		}
		objects = append(objects, ObjectInfo{
			Key:     key,
			Size:    info.Size(),
			Updated: info.ModTime(),
		})
	}
	return objects, nil
}

// Delete removes bucket/key. Missing objects are not an error.
func (s *FileStorage) Delete(ctx context.Context, bucket, key string) error {
	if err := os.Remove(s.path(bucket, key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
