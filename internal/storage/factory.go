package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
)

// BackendsConfig selects which backends NewBlobsFor constructs.
type BackendsConfig struct {
	S3       *S3Config // nil uses the default AWS chain when an s3:// URI is present
	FileRoot string    // root directory for file:// URIs
}

// NewBlobsFor creates a Blobs with a backend for every scheme used by uris.
// Backends are only constructed for schemes actually referenced.
// Parameters:
//   - ctx: context for client construction.
//   - cfg: backend settings.
//   - uris: every object URI the run will address.
// Returns:
//   - *Blobs: router with the required backends.
//   - io.Closer: releases backend clients.
//   - error: non-nil if a scheme is unsupported or a client cannot be created.
func NewBlobsFor(ctx context.Context, cfg *BackendsConfig, uris ...string) (*Blobs, io.Closer, error) {
	schemes, err := SchemesOf(uris...)
	if err != nil {
		return nil, nil, err
	}

	backends := make(map[string]ObjectStorage, len(schemes))
	var closers closerList
	for _, scheme := range schemes {
		switch scheme {
		case SchemeGCS:
			gcs, err := NewGCSStorage(ctx)
			if err != nil {
				_ = closers.Close()
				return nil, nil, err
			}
			backends[scheme] = gcs
			closers = append(closers, gcs)
		case SchemeS3:
			s3cfg := cfg.S3
			if s3cfg == nil {
				s3cfg = &S3Config{}
			}
			s3, err := NewS3Storage(ctx, s3cfg)
			if err != nil {
				_ = closers.Close()
				return nil, nil, err
			}
			backends[scheme] = s3
		case SchemeFile:
			root := cfg.FileRoot
			if root == "" {
				root = "/"
			}
			backends[scheme] = NewFileStorage(root)
		}
	}

	return NewBlobs(backends), closers, nil
}

// SchemesOf returns the sorted distinct schemes of uris, ignoring empty entries.
func SchemesOf(uris ...string) ([]string, error) {
	seen := map[string]struct{}{}
	for _, uri := range uris {
		if uri == "" {
			continue
		}
		loc, err := ParseLocation(uri)
		if err != nil {
			return nil, err
		}
		switch loc.Scheme {
		case SchemeGCS, SchemeS3, SchemeFile:
		default:
			return nil, fmt.Errorf("unsupported object storage scheme %q in %s", loc.Scheme, uri)
		}
		seen[loc.Scheme] = struct{}{}
	}

	schemes := make([]string, 0, len(seen))
	for scheme := range seen {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	return schemes, nil
}

type closerList []io.Closer

func (c closerList) Close() error {
	var first error
	for _, closer := range c {
		if err := closer.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
