package source

import (
	"context"
	"errors"
	"io"

	"github.com/timmy/hdfsconnector/internal/domain"
)

// ErrListingFailed marks a source directory that could not be listed
// (service unreachable, directory missing, permission denied).
var ErrListingFailed = errors.New("source listing failed")

// FileSource defines the interface for remote hierarchical file services.
type FileSource interface {
	// List returns the files directly under dir. Subdirectories are skipped.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - dir: source-relative directory path.
	// Returns:
	//   - []domain.FileEntry: one entry per file, in listing order.
	//   - error: wraps ErrListingFailed when the directory cannot be listed.
	List(ctx context.Context, dir string) ([]domain.FileEntry, error)

	// Open streams the content of a single file.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - path: source-relative file path.
	// Returns:
	//   - io.ReadCloser: file content; caller must close.
	//   - error: non-nil if the file cannot be opened.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// URI returns the fully-qualified address of path on this source.
	// Parameters:
	//   - path: source-relative path.
	// Returns:
	//   - string: address such as hdfs://10.0.0.5:9870/data/a.pdf.
	URI(path string) string
}

// FileURI builds the document address of a listed file. dir is kept as
// configured, slashes included, so ids derived from the URI stay stable
// for documents already indexed.
func FileURI(base, dir, name string) string {
	if dir == "" {
		return base + "/" + name
	}
	return base + "/" + dir + "/" + name
}
