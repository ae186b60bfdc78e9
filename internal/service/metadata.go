package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strings"
	"time"

	"github.com/timmy/hdfsconnector/internal/domain"
	"github.com/timmy/hdfsconnector/internal/logger"
	"github.com/timmy/hdfsconnector/internal/source"
	"github.com/timmy/hdfsconnector/internal/storage"
)

// DocumentIDLength is the number of hex characters kept from the SHA-256 digest.
const DocumentIDLength = 32

var mimeTypes = map[string]string{
	"pdf":  domain.MimeTypePDF,
	"docx": domain.MimeTypeDOCX,
	"pptx": domain.MimeTypePPTX,
}

// MimeType infers the content type from the file extension. Unknown extensions yield nil.
func MimeType(name string) *string {
	mime, ok := mimeTypes[strings.ToLower(FileExt(name))]
	if !ok {
		return nil
	}
	return &mime
}

// FileExt returns the extension of name without the dot.
func FileExt(name string) string {
	return strings.TrimPrefix(path.Ext(name), ".")
}

// DocumentID derives a stable document id from a fully-qualified source URI.
func DocumentID(uri string) string {
	sum := sha256.Sum256([]byte(uri))
	return hex.EncodeToString(sum[:])[:DocumentIDLength]
}

// Records derives one metadata record per copied file.
func Records(files []domain.CopiedFile) []domain.FileMetadata {
	records := make([]domain.FileMetadata, 0, len(files))
	for _, f := range files {
		e := f.Entry
		records = append(records, domain.FileMetadata{
			ID:       DocumentID(e.URI),
			BlobPath: f.Destination,
			MimeType: MimeType(e.Name),
			Properties: domain.BlobProperties{
				Name:         e.Name,
				Ext:          FileExt(e.Name),
				Size:         e.Size,
				CreationTime: domain.FormatTimestamp(e.CreationTime),
				LastModified: domain.FormatTimestamp(e.LastModifiedTime),
			},
			LastModifiedTime: e.LastModifiedTime,
		})
	}
	return records
}

// LatestModified returns the newest modification time among records, or nil if there are none.
func LatestModified(records []domain.FileMetadata) *time.Time {
	var latest *time.Time
	for i := range records {
		t := records[i].LastModifiedTime
		if latest == nil || t.After(*latest) {
			latest = &t
		}
	}
	return latest
}

// MetadataExtractor lists a source directory and describes each file.
type MetadataExtractor struct {
	source source.FileSource
	logger *logger.Logger
}

// NewMetadataExtractor creates a new MetadataExtractor.
func NewMetadataExtractor(src source.FileSource, log *logger.Logger) *MetadataExtractor {
	return &MetadataExtractor{source: src, logger: orDiscard(log)}
}

// Extract lists dir and returns one record per file, with blob paths under dest.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - dir: source-relative directory.
//   - dest: object store prefix the files were copied to.
// Returns:
//   - []domain.FileMetadata: records in listing order; nil when the listing failed.
//   - error: non-nil only if ctx was cancelled.
func (m *MetadataExtractor) Extract(ctx context.Context, dir, dest string) ([]domain.FileMetadata, error) {
	entries, err := m.source.List(ctx, dir)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Or(ctx, m.logger).WithComponent("metadata").WithError(err).
			WithField("dir", dir).Warn("Error listing directory")
		return nil, nil
	}

	files := make([]domain.CopiedFile, 0, len(entries))
	for _, e := range entries {
		files = append(files, domain.CopiedFile{Entry: e, Destination: storage.Join(dest, e.Name)})
	}
	return Records(files), nil
}
