package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/timmy/hdfsconnector/internal/domain"
	"github.com/timmy/hdfsconnector/internal/source"
)

// Adapter implements source.FileSource for a directory tree mounted on the
// local filesystem, such as an HDFS NFS gateway mount.
type Adapter struct {
	basePath  string
	uriPrefix string
}

var _ source.FileSource = (*Adapter)(nil)

// NewAdapter creates a new mounted-directory adapter.
// Parameters:
//   - basePath: local directory the source root is mounted at.
//   - uriPrefix: prefix of the URIs reported for files, e.g. hdfs://10.0.0.5:9870.
//     Empty reports file:// URIs of the local path.
// Returns:
//   - *Adapter: initialized adapter.
func NewAdapter(basePath, uriPrefix string) *Adapter {
	return &Adapter{
		basePath:  filepath.Clean(basePath),
		uriPrefix: strings.TrimRight(uriPrefix, "/"),
	}
}

// List returns the regular files directly under dir, in name order.
func (a *Adapter) List(ctx context.Context, dir string) ([]domain.FileEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel := strings.Trim(dir, "/")
	entries, err := os.ReadDir(a.localPath(rel))
	if err != nil {
		return nil, fmt.Errorf("%w: /%s: %v", source.ErrListingFailed, rel, err)
	}

	files := make([]domain.FileEntry, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		path := strings.TrimPrefix(rel+"/"+entry.Name(), "/")
		uri := a.URI(path)
		if a.uriPrefix != "" {
			uri = source.FileURI(a.uriPrefix, dir, entry.Name())
		}
		modified := info.ModTime().UTC()
		files = append(files, domain.FileEntry{
			Name:             entry.Name(),
			Path:             "/" + path,
			URI:              uri,
			Size:             info.Size(),
			CreationTime:     modified,
			LastModifiedTime: modified,
		})
	}
	return files, nil
}

// Open opens path for reading.
func (a *Adapter) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(a.localPath(strings.Trim(path, "/")))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

// URI returns the address of path under the configured prefix.
func (a *Adapter) URI(path string) string {
	path = strings.Trim(path, "/")
	if a.uriPrefix == "" {
		return "file://" + filepath.ToSlash(a.localPath(path))
	}
	return a.uriPrefix + "/" + path
}

func (a *Adapter) localPath(rel string) string {
	return filepath.Join(a.basePath, filepath.FromSlash(rel))
}
