package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/timmy/hdfsconnector/internal/domain"
	"github.com/timmy/hdfsconnector/internal/logger"
	"github.com/timmy/hdfsconnector/internal/storage"
)

// Run directory layout.
const (
	DataDirName      = "data"
	ManifestFileName = "metadata.json"
	ErrorsDirName    = "errors"
)

// DataDir returns the directory receiving copied files.
func DataDir(runDir string) string {
	return storage.Join(runDir, DataDirName)
}

// ManifestPath returns the metadata manifest URI.
func ManifestPath(runDir string) string {
	return storage.Join(runDir, ManifestFileName)
}

// ErrorPrefix returns the prefix for import error reports.
func ErrorPrefix(runDir string) string {
	return storage.Join(runDir, ErrorsDirName) + "/"
}

// ExportService copies a source directory into a run directory, persists
// state and prepares the location handed to the import.
type ExportService struct {
	copier *Copier
	state  *StateTracker
	blobs  *storage.Blobs
	logger *logger.Logger
	now    func() time.Time
}

// NewExportService creates a new export service.
func NewExportService(copier *Copier, state *StateTracker, blobs *storage.Blobs, log *logger.Logger) *ExportService {
	return &ExportService{
		copier: copier,
		state:  state,
		blobs:  blobs,
		logger: orDiscard(log),
		now:    time.Now,
	}
}

// log returns a logger from context if available, otherwise returns the default logger
func (s *ExportService) log(ctx context.Context) *logger.Logger {
	return logger.Or(ctx, s.logger).WithComponent("export")
}

// ExportRequest holds the inputs of one export.
type ExportRequest struct {
	RunDir       string                  // run working directory URI
	Source       domain.SourceDescriptor // directory and name filter to export
	WithMetadata bool                    // write a manifest instead of returning a glob
	PriorState   domain.ExportState      // state returned by StateTracker.Load
}

// ExportResult describes a successful export.
type ExportResult struct {
	DataPath      string // manifest URI or data glob
	FilesExported int
	State         domain.ExportState // state after this run
	Records       []domain.FileMetadata
}

// FullExport re-copies every matching file. The configured filter is applied.
func (s *ExportService) FullExport(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	return s.Export(ctx, req, true)
}

// Export runs one export pass.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - req: run directory, source descriptor and options.
//   - applyFilter: whether req.Source.NameFilter restricts the copied files.
// Returns:
//   - *ExportResult: staged location and new state; nil when there is nothing
//     to export, in which case no state is written.
//   - error: non-nil if copying, state persistence or manifest writing fails.
func (s *ExportService) Export(ctx context.Context, req ExportRequest, applyFilter bool) (*ExportResult, error) {
	start := s.now()

	var filter *regexp.Regexp
	if applyFilter {
		filter = req.Source.NameFilter
	}

	dataDir := DataDir(req.RunDir)
	copied, err := s.copier.Copy(ctx, CopyRequest{
		SourceDir:   req.Source.RootPrefix,
		Destination: dataDir,
		Filter:      filter,
	})
	if err != nil {
		return nil, err
	}
	if copied.Count() == 0 {
		s.log(ctx).WithField("dir", req.Source.RootPrefix).Warn("No files exported")
		return nil, nil
	}

	// Metadata comes from the same listing the copy used.
	records := Records(copied.Files)

	state, err := s.state.Persist(ctx, req.PriorState, LatestModified(records), copied.Count(), req.RunDir)
	if err != nil {
		return nil, err
	}

	result := &ExportResult{
		FilesExported: copied.Count(),
		State:         state,
		Records:       records,
	}

	if !req.WithMetadata {
		result.DataPath = dataDir + "/*"
		return result, nil
	}

	end := s.now()
	docs := make([]domain.DocumentRecord, 0, len(records))
	for _, r := range records {
		docs = append(docs, domain.NewDocumentRecord(r, start, end))
	}
	manifest := ManifestPath(req.RunDir)
	if err := storage.WriteNDJSON(ctx, s.blobs, manifest, docs); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}

	s.log(ctx).WithFields(logger.Fields{
		"manifest":        manifest,
		logger.FieldCount: len(docs),
	}).Info("Manifest written")
	result.DataPath = manifest
	return result, nil
}
