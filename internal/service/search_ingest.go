package service

import (
	"context"
	"fmt"
	"time"

	"github.com/timmy/hdfsconnector/internal/config"
	"github.com/timmy/hdfsconnector/internal/domain"
	"github.com/timmy/hdfsconnector/internal/logger"
	"github.com/timmy/hdfsconnector/internal/repository"
)

// DataStoreStore is the data store API used by SearchIngestService.
type DataStoreStore interface {
	Get(ctx context.Context, id string) (*domain.DataStore, error)
	List(ctx context.Context, prefix string, limit int) ([]domain.DataStore, error)
	Create(ctx context.Context, displayName, id string, withContent bool) (*domain.DataStore, error)
	Import(ctx context.Context, dataStoreName string, req domain.ImportRequest) (*domain.ImportOutcome, error)
	Purge(ctx context.Context, dataStoreName string) (int64, error)
	Delete(ctx context.Context, dataStoreName string) error
}

var _ DataStoreStore = (*repository.DataStoreRepository)(nil)

// Destination selects and configures the target data store.
type Destination struct {
	DataStoreID   string
	DisplayName   string
	WithContent   bool
	AllowCreate   bool
	SearchFirst   bool
	ImportTimeout time.Duration // zero waits without a deadline
}

// DestinationFromConfig converts the destination section of the configuration.
func DestinationFromConfig(cfg *config.DestinationConfig) Destination {
	return Destination{
		DataStoreID:   cfg.DataStoreID,
		DisplayName:   cfg.DataStoreDisplayName,
		WithContent:   cfg.WithContent,
		AllowCreate:   cfg.AllowCreateDataStore,
		SearchFirst:   cfg.SearchFirst,
		ImportTimeout: cfg.ImportTimeout,
	}
}

// ProcessRequest is one import of a staged location.
type ProcessRequest struct {
	RunDir       string
	DataPath     string
	ExportMethod string
	WithMetadata bool
	Destination  Destination
}

// ProcessResult reports the data store used and the import outcome.
type ProcessResult struct {
	DataStore *domain.DataStore
	Outcome   *domain.ImportOutcome
}

// SearchIngestService resolves the target data store and imports staged data into it.
type SearchIngestService struct {
	store  DataStoreStore
	logger *logger.Logger
}

// NewSearchIngestService creates a new SearchIngestService.
// Parameters:
//   - store: data store API.
//   - log: fallback logger.
// Returns:
//   - *SearchIngestService: service bound to store.
func NewSearchIngestService(store DataStoreStore, log *logger.Logger) *SearchIngestService {
	return &SearchIngestService{store: store, logger: orDiscard(log)}
}

func (s *SearchIngestService) log(ctx context.Context) *logger.Logger {
	return logger.Or(ctx, s.logger).WithComponent("search_ingest")
}

// Process resolves the data store and imports req.DataPath into it.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - req: staged location, export method and destination.
// Returns:
//   - *ProcessResult: data store and outcome; returned alongside
//     ErrImportPartialFailure so callers can inspect the samples.
//   - error: resolution, import or partial-failure error.
func (s *SearchIngestService) Process(ctx context.Context, req ProcessRequest) (*ProcessResult, error) {
	switch req.ExportMethod {
	case config.ExportMethodFull, config.ExportMethodIncremental:
	default:
		return nil, fmt.Errorf("%w: unsupported export method: %s", config.ErrInvalidConfig, req.ExportMethod)
	}

	ds, err := s.ResolveDataStore(ctx, req.Destination)
	if err != nil {
		return nil, err
	}

	importReq := BuildImportRequest(req.DataPath, ErrorPrefix(req.RunDir), req.ExportMethod, req.WithMetadata)

	importCtx := ctx
	if req.Destination.ImportTimeout > 0 {
		var cancel context.CancelFunc
		importCtx, cancel = context.WithTimeout(ctx, req.Destination.ImportTimeout)
		defer cancel()
	}

	log := s.log(ctx).WithField(logger.FieldDataStore, ds.Name)
	log.WithFields(logger.Fields{
		"input":               req.DataPath,
		"schema":              importReq.DataSchema,
		"reconciliation_mode": importReq.ReconciliationMode,
	}).Info("Importing data")

	outcome, err := s.store.Import(importCtx, ds.Name, importReq)
	if err != nil {
		return nil, err
	}

	result := &ProcessResult{DataStore: ds, Outcome: outcome}
	if outcome.Failed() {
		log.WithField("error_samples", outcome.ErrorSamples).Error("Error samples")
		return result, fmt.Errorf("%w, see errors: %s", ErrImportPartialFailure, outcome.ErrorReportLocation)
	}
	return result, nil
}

// BuildImportRequest chooses schema, id handling and reconciliation for an import.
func BuildImportRequest(dataPath, errorPrefix, exportMethod string, withMetadata bool) domain.ImportRequest {
	req := domain.ImportRequest{
		InputURIs:          []string{dataPath},
		ReconciliationMode: domain.ReconciliationIncremental,
		ErrorPrefix:        errorPrefix,
	}
	if exportMethod == config.ExportMethodFull {
		req.ReconciliationMode = domain.ReconciliationFull
	}

	// auto_generate_ids and id_field are only accepted with the custom schema.
	if withMetadata {
		req.DataSchema = domain.DataSchemaDocument
	} else {
		autoGenerate := false
		req.DataSchema = domain.DataSchemaCustom
		req.AutoGenerateIDs = &autoGenerate
		req.IDField = "id"
	}
	return req
}

// ResolveDataStore finds or creates the target data store: by id, then by
// display-name prefix when SearchFirst is set, then by creating it when allowed.
func (s *SearchIngestService) ResolveDataStore(ctx context.Context, dest Destination) (*domain.DataStore, error) {
	log := s.log(ctx)

	var ds *domain.DataStore
	if dest.DataStoreID != "" {
		found, err := s.store.Get(ctx, dest.DataStoreID)
		if err != nil {
			return nil, err
		}
		if found != nil {
			log.WithField(logger.FieldDataStore, found.Name).Info("Data store found")
			return found, nil
		}
	}

	if dest.DisplayName == "" {
		return nil, fmt.Errorf("%w: data store display name is required if data_store_id is not provided", config.ErrInvalidConfig)
	}

	if dest.SearchFirst {
		matches, err := s.store.List(ctx, dest.DisplayName, 1)
		if err != nil {
			return nil, err
		}
		if len(matches) > 0 {
			ds = &matches[0]
			log.WithField(logger.FieldDataStore, ds.Name).Info("Data store found by prefix")
			return ds, nil
		}
	}

	if !dest.AllowCreate {
		return nil, fmt.Errorf("%w: %s, and creation is not allowed", ErrDataStoreNotFound, dest.DataStoreID)
	}

	ds, err := s.store.Create(ctx, dest.DisplayName, dest.DataStoreID, dest.WithContent)
	if err != nil {
		return nil, err
	}
	if ds == nil {
		return nil, fmt.Errorf("%w: data store not found: %s", ErrDataStoreCreateFailed, dest.DataStoreID)
	}
	log.WithField(logger.FieldDataStore, ds.Name).Warn("Created data store")
	return ds, nil
}

// DeleteByPrefix deletes every data store whose display name starts with prefix,
// purging documents first when purge is set. Data stores that cannot be deleted
// in their current state are logged and skipped.
// Returns the number of data stores deleted.
func (s *SearchIngestService) DeleteByPrefix(ctx context.Context, prefix string, purge bool) (int, error) {
	log := s.log(ctx)

	stores, err := s.store.List(ctx, prefix, 0)
	if err != nil {
		return 0, err
	}
	log.WithField(logger.FieldCount, len(stores)).Warn("Deleting data stores")

	deleted := 0
	for _, ds := range stores {
		dsLog := log.WithField(logger.FieldDataStore, ds.Name)
		if purge {
			count, err := s.store.Purge(ctx, ds.Name)
			if err != nil {
				return deleted, err
			}
			dsLog.WithField(logger.FieldCount, count).Warn("Data purged")
		}
		if err := s.store.Delete(ctx, ds.Name); err != nil {
			if repository.IsFailedPrecondition(err) {
				dsLog.WithError(err).Warn("Failed to delete data store")
				continue
			}
			return deleted, err
		}
		deleted++
		dsLog.Warn("Data store deleted")
	}
	return deleted, nil
}
