package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/discoveryengine/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/timmy/hdfsconnector/internal/config"
	"github.com/timmy/hdfsconnector/internal/domain"
	"github.com/timmy/hdfsconnector/internal/logger"
)

// Defaults for data store addressing.
const (
	DefaultCollection   = "default_collection"
	DefaultBranch       = "default_branch"
	DefaultPollInterval = 5 * time.Second
)

// benignOperationMessage is reported for operations that finish without a result or error.
const benignOperationMessage = "Long-running operation had neither response nor error set"

var errStopPaging = errors.New("stop paging")

// DataStoreConfig addresses the data stores of one project and location.
type DataStoreConfig struct {
	Project      string
	Location     string
	Collection   string
	Branch       string
	Endpoint     string // overrides the location-derived endpoint
	PollInterval time.Duration
}

// NewDataStoreConfig maps the destination section of the connector config.
func NewDataStoreConfig(dest *config.DestinationConfig) DataStoreConfig {
	return DataStoreConfig{
		Project:      dest.Project,
		Location:     dest.Location,
		Collection:   dest.Collection,
		Branch:       dest.Branch,
		Endpoint:     dest.Endpoint,
		PollInterval: dest.PollInterval,
	}
}

// DataStoreRepository manages data stores and document imports through the Discovery Engine API.
type DataStoreRepository struct {
	service      *discoveryengine.Service
	project      string
	location     string
	collection   string
	branch       string
	pollInterval time.Duration
	now          func() time.Time
	logger       *logger.Logger
}

// NewDataStoreRepository creates a new DataStoreRepository.
// Parameters:
//   - ctx: context used to build the API client.
//   - cfg: project, location and polling settings.
//   - log: logger for operation progress.
//   - opts: extra client options; applied after the endpoint option.
//
// Returns:
//   - *DataStoreRepository: repository bound to cfg.Project and cfg.Location.
//   - error: non-nil if the API client cannot be created.
func NewDataStoreRepository(ctx context.Context, cfg DataStoreConfig, log *logger.Logger, opts ...option.ClientOption) (*DataStoreRepository, error) {
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Branch == "" {
		cfg.Branch = DefaultBranch
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if log == nil {
		log = logger.Discard()
	}

	var clientOpts []option.ClientOption
	if endpoint := Endpoint(cfg.Location, cfg.Endpoint); endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(endpoint))
	}
	clientOpts = append(clientOpts, opts...)

	service, err := discoveryengine.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery engine client: %w", err)
	}

	return &DataStoreRepository{
		service:      service,
		project:      cfg.Project,
		location:     cfg.Location,
		collection:   cfg.Collection,
		branch:       cfg.Branch,
		pollInterval: cfg.PollInterval,
		now:          time.Now,
		logger:       log.WithComponent("datastore_repo"),
	}, nil
}

// Endpoint returns the API endpoint for location. Global uses the client default.
func Endpoint(location, override string) string {
	if override != "" {
		return override
	}
	if location == "" || location == "global" {
		return ""
	}
	return fmt.Sprintf("https://%s-discoveryengine.googleapis.com/", location)
}

// CollectionPath returns projects/{p}/locations/{l}/collections/{c}.
func (r *DataStoreRepository) CollectionPath() string {
	return fmt.Sprintf("projects/%s/locations/%s/collections/%s", r.project, r.location, r.collection)
}

// DataStoreName returns the fully-qualified resource name of id.
func (r *DataStoreRepository) DataStoreName(id string) string {
	return r.CollectionPath() + "/dataStores/" + id
}

// Get retrieves a data store by id.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: data store id within the collection.
//
// Returns:
//   - *domain.DataStore: data store, or nil if it does not exist.
//   - error: non-nil if the lookup fails for any other reason.
func (r *DataStoreRepository) Get(ctx context.Context, id string) (*domain.DataStore, error) {
	ds, err := r.service.Projects.Locations.Collections.DataStores.Get(r.DataStoreName(id)).Context(ctx).Do()
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get data store %s: %w", id, err)
	}
	return toDataStore(ds), nil
}

// List returns data stores whose display name starts with prefix, in server order.
// A positive limit stops paging once that many matches are found.
func (r *DataStoreRepository) List(ctx context.Context, prefix string, limit int) ([]domain.DataStore, error) {
	var out []domain.DataStore
	err := r.service.Projects.Locations.Collections.DataStores.List(r.CollectionPath()).
		Pages(ctx, func(page *discoveryengine.GoogleCloudDiscoveryengineV1ListDataStoresResponse) error {
			for _, ds := range page.DataStores {
				if !strings.HasPrefix(ds.DisplayName, prefix) {
					continue
				}
				out = append(out, *toDataStore(ds))
				if limit > 0 && len(out) >= limit {
					return errStopPaging
				}
			}
			return nil
		})
	if err != nil && !errors.Is(err, errStopPaging) {
		return nil, fmt.Errorf("failed to list data stores: %w", err)
	}
	return out, nil
}

// Create creates a data store and waits for it to become available.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - displayName: display name of the new data store.
//   - id: data store id; empty derives {displayName}_{unix millis}.
//   - withContent: CONTENT_REQUIRED when true, NO_CONTENT otherwise.
//
// Returns:
//   - *domain.DataStore: the created data store, or nil if it cannot be read back.
//   - error: non-nil if creation fails.
func (r *DataStoreRepository) Create(ctx context.Context, displayName, id string, withContent bool) (*domain.DataStore, error) {
	if id == "" {
		id = fmt.Sprintf("%s_%d", displayName, r.now().UnixMilli())
	}
	contentConfig := domain.NoContent
	if withContent {
		contentConfig = domain.ContentRequired
	}

	op, err := r.service.Projects.Locations.Collections.DataStores.Create(r.CollectionPath(),
		&discoveryengine.GoogleCloudDiscoveryengineV1DataStore{
			DisplayName:      displayName,
			IndustryVertical: domain.IndustryVerticalGeneric,
			ContentConfig:    string(contentConfig),
		}).DataStoreId(id).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create data store %s: %w", id, err)
	}
	if _, err := r.WaitOperation(ctx, op); err != nil {
		return nil, fmt.Errorf("failed to create data store %s: %w", id, err)
	}
	return r.Get(ctx, id)
}

// Import runs a bulk document import into the configured branch of a data store
// and blocks until the operation completes.
// Parameters:
//   - ctx: context for cancellation; its deadline bounds the wait.
//   - dataStoreName: fully-qualified data store name.
//   - req: import settings.
//
// Returns:
//   - *domain.ImportOutcome: error samples and report location from the finished operation.
//   - error: non-nil if the request or the operation fails.
func (r *DataStoreRepository) Import(ctx context.Context, dataStoreName string, req domain.ImportRequest) (*domain.ImportOutcome, error) {
	body := &discoveryengine.GoogleCloudDiscoveryengineV1ImportDocumentsRequest{
		GcsSource: &discoveryengine.GoogleCloudDiscoveryengineV1GcsSource{
			InputUris:  req.InputURIs,
			DataSchema: req.DataSchema,
		},
		ReconciliationMode: string(req.ReconciliationMode),
		IdField:            req.IDField,
		ErrorConfig: &discoveryengine.GoogleCloudDiscoveryengineV1ImportErrorConfig{
			GcsPrefix: req.ErrorPrefix,
		},
	}
	if req.AutoGenerateIDs != nil {
		body.AutoGenerateIds = *req.AutoGenerateIDs
		body.ForceSendFields = append(body.ForceSendFields, "AutoGenerateIds")
	}

	parent := r.branchName(dataStoreName)
	op, err := r.service.Projects.Locations.Collections.DataStores.Branches.Documents.Import(parent, body).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to import documents into %s: %w", dataStoreName, err)
	}
	r.logger.WithFields(logger.Fields{
		logger.FieldDataStore: dataStoreName,
		"operation":           op.Name,
	}).Info("Import started")

	raw, err := r.WaitOperation(ctx, op)
	if err != nil {
		return nil, fmt.Errorf("failed to import documents into %s: %w", dataStoreName, err)
	}

	outcome := &domain.ImportOutcome{ErrorReportLocation: req.ErrorPrefix}
	if len(raw) == 0 {
		return outcome, nil
	}
	var resp discoveryengine.GoogleCloudDiscoveryengineV1ImportDocumentsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode import response: %w", err)
	}
	if resp.ErrorConfig != nil && resp.ErrorConfig.GcsPrefix != "" {
		outcome.ErrorReportLocation = resp.ErrorConfig.GcsPrefix
	}
	for _, sample := range resp.ErrorSamples {
		if sample == nil {
			continue
		}
		outcome.ErrorSamples = append(outcome.ErrorSamples, fmt.Sprintf("code %d: %s", sample.Code, sample.Message))
	}
	return outcome, nil
}

// Purge deletes every document in the configured branch of a data store.
// Returns the number of purged documents.
func (r *DataStoreRepository) Purge(ctx context.Context, dataStoreName string) (int64, error) {
	op, err := r.service.Projects.Locations.Collections.DataStores.Branches.Documents.Purge(r.branchName(dataStoreName),
		&discoveryengine.GoogleCloudDiscoveryengineV1PurgeDocumentsRequest{
			Filter: "*",
			Force:  true,
		}).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to purge %s: %w", dataStoreName, err)
	}
	raw, err := r.WaitOperation(ctx, op)
	if err != nil {
		return 0, fmt.Errorf("failed to purge %s: %w", dataStoreName, err)
	}
	if len(raw) == 0 {
		return 0, nil
	}
	var resp discoveryengine.GoogleCloudDiscoveryengineV1PurgeDocumentsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return 0, fmt.Errorf("failed to decode purge response: %w", err)
	}
	return resp.PurgeCount, nil
}

// Delete deletes a data store and waits for completion.
// A data store that cannot be deleted yet yields an error satisfying IsFailedPrecondition.
func (r *DataStoreRepository) Delete(ctx context.Context, dataStoreName string) error {
	op, err := r.service.Projects.Locations.Collections.DataStores.Delete(dataStoreName).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to delete data store %s: %w", dataStoreName, err)
	}
	if _, err := r.WaitOperation(ctx, op); err != nil {
		return fmt.Errorf("failed to delete data store %s: %w", dataStoreName, err)
	}
	return nil
}

// WaitOperation polls a long-running operation until it is done.
// An operation that finishes with neither response nor error counts as success.
// Parameters:
//   - ctx: context for cancellation; the wait is unbounded without a deadline.
//   - op: operation returned by a mutating call.
//
// Returns:
//   - googleapi.RawMessage: the operation response, possibly empty.
//   - error: the operation error, or a polling failure.
func (r *DataStoreRepository) WaitOperation(ctx context.Context, op *discoveryengine.GoogleLongrunningOperation) (googleapi.RawMessage, error) {
	start := time.Now()
	for !op.Done {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("operation %s not finished: %w", op.Name, ctx.Err())
		case <-time.After(r.pollInterval):
		}

		next, err := r.service.Projects.Locations.Operations.Get(op.Name).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("failed to poll operation %s: %w", op.Name, err)
		}
		op = next
		r.logger.WithField("operation", op.Name).Debug("Operation polled")
	}

	log := r.logger.WithFields(logger.Fields{
		"operation":           op.Name,
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	})

	if op.Error != nil {
		if strings.Contains(op.Error.Message, benignOperationMessage) {
			log.Warn("Operation finished without result")
			return nil, nil
		}
		return nil, &OperationError{Name: op.Name, Code: op.Error.Code, Message: op.Error.Message}
	}
	log.Debug("Operation finished")
	return op.Response, nil
}

func (r *DataStoreRepository) branchName(dataStoreName string) string {
	return dataStoreName + "/branches/" + r.branch
}

func toDataStore(ds *discoveryengine.GoogleCloudDiscoveryengineV1DataStore) *domain.DataStore {
	return &domain.DataStore{
		Name:          ds.Name,
		DisplayName:   ds.DisplayName,
		ID:            ds.Name[strings.LastIndex(ds.Name, "/")+1:],
		ContentConfig: domain.ContentConfig(ds.ContentConfig),
	}
}

// OperationError is a long-running operation that finished with an error status.
type OperationError struct {
	Name    string
	Code    int64
	Message string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("operation %s failed: code %d: %s", e.Name, e.Code, e.Message)
}

// gRPC code for FAILED_PRECONDITION.
const codeFailedPrecondition = 9

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusNotFound
	}
	return false
}

// IsFailedPrecondition returns true if the resource is not in a state that allows the call.
func IsFailedPrecondition(err error) bool {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Code == codeFailedPrecondition
	}
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	if gerr.Code == http.StatusPreconditionFailed {
		return true
	}
	var body struct {
		Error struct {
			Status string `json:"status"`
		} `json:"error"`
	}
	if json.Unmarshal([]byte(gerr.Body), &body) == nil && body.Error.Status == "FAILED_PRECONDITION" {
		return true
	}
	return false
}
