package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/timmy/hdfsconnector/internal/domain"
	"github.com/timmy/hdfsconnector/internal/logger"
	"github.com/timmy/hdfsconnector/internal/source"
	"github.com/timmy/hdfsconnector/internal/storage"
)

// CopyRequest describes one directory transfer.
type CopyRequest struct {
	SourceDir   string         // source-relative directory
	Destination string         // object store URI prefix receiving the files
	Filter      *regexp.Regexp // nil copies every file
}

// Copier streams files from a FileSource into object storage.
type Copier struct {
	source source.FileSource
	blobs  *storage.Blobs
	logger *logger.Logger
}

// NewCopier creates a new Copier.
// Parameters:
//   - src: remote file service to read from.
//   - blobs: object store receiving the copies.
//   - log: fallback logger when the context carries none.
// Returns:
//   - *Copier: copier bound to src and blobs.
func NewCopier(src source.FileSource, blobs *storage.Blobs, log *logger.Logger) *Copier {
	return &Copier{source: src, blobs: blobs, logger: orDiscard(log)}
}

// Copy lists req.SourceDir once and streams every matching file to
// req.Destination/<name>, overwriting existing objects.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - req: source directory, destination prefix and optional name filter.
// Returns:
//   - *domain.CopyResult: copied files in listing order; nil when the listing
//     failed, which callers treat as nothing to export.
//   - error: non-nil if a file could not be copied or ctx was cancelled.
func (c *Copier) Copy(ctx context.Context, req CopyRequest) (*domain.CopyResult, error) {
	log := logger.Or(ctx, c.logger).WithComponent("copier")
	start := time.Now()

	entries, err := c.source.List(ctx, req.SourceDir)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.WithError(err).WithField("dir", req.SourceDir).Warn("Error listing directory")
		return nil, nil
	}

	result := &domain.CopyResult{Files: make([]domain.CopiedFile, 0, len(entries))}
	for _, entry := range entries {
		if !MatchesName(req.Filter, entry.Name) {
			continue
		}

		dest := storage.Join(req.Destination, entry.Name)
		if err := c.copyFile(ctx, entry, dest); err != nil {
			return nil, err
		}
		result.Files = append(result.Files, domain.CopiedFile{Entry: entry, Destination: dest})

		log.WithFields(logger.Fields{
			"path":           entry.Path,
			"destination":    dest,
			logger.FieldSize: entry.Size,
		}).Debug("File copied")
	}

	log.WithFields(logger.Fields{
		logger.FieldCount:      result.Count(),
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	}).Infof("%d files have been fetched from HDFS", result.Count())
	return result, nil
}

func (c *Copier) copyFile(ctx context.Context, entry domain.FileEntry, dest string) error {
	reader, err := c.source.Open(ctx, entry.Path)
	if err != nil {
		return fmt.Errorf("failed to copy %s: %w", entry.Path, err)
	}
	defer reader.Close()

	contentType := storage.ContentTypeBinary
	if mime := MimeType(entry.Name); mime != nil {
		contentType = *mime
	}
	if err := c.blobs.Upload(ctx, dest, reader, contentType); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", entry.Path, dest, err)
	}
	return nil
}

// MatchesName reports whether name matches filter at its start. A nil filter matches everything.
func MatchesName(filter *regexp.Regexp, name string) bool {
	if filter == nil {
		return true
	}
	loc := filter.FindStringIndex(name)
	return loc != nil && loc[0] == 0
}
