package source

import (
	"context"
	"fmt"
	"io"

	"github.com/timmy/hdfsconnector/internal/domain"
)

// Unavailable returns a FileSource for a service that could not be reached
// at all. Every List fails with ErrListingFailed, so the run ends with
// nothing exported instead of aborting.
func Unavailable(cause error) FileSource {
	return unavailable{cause: cause}
}

type unavailable struct {
	cause error
}

func (u unavailable) List(ctx context.Context, dir string) ([]domain.FileEntry, error) {
	return nil, fmt.Errorf("%w: %s: %v", ErrListingFailed, dir, u.cause)
}

func (u unavailable) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	return nil, fmt.Errorf("source unavailable: %w", u.cause)
}

func (u unavailable) URI(path string) string {
	return path
}
