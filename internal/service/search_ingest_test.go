package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/hdfsconnector/internal/config"
	"github.com/timmy/hdfsconnector/internal/domain"
	"github.com/timmy/hdfsconnector/internal/repository"
)

func TestResolveDataStore(t *testing.T) {
	t.Run("by id", func(t *testing.T) {
		store := newFakeStore()
		store.add("docs_1", "docs")
		svc := NewSearchIngestService(store, nil)

		ds, err := svc.ResolveDataStore(context.Background(), Destination{DataStoreID: "docs_1"})
		require.NoError(t, err)
		assert.Equal(t, "docs_1", ds.ID)
		assert.Zero(t, store.creates)
	})

	t.Run("by display name prefix", func(t *testing.T) {
		store := newFakeStore()
		store.add("other_1", "other")
		store.add("docs_7", "docs")
		svc := NewSearchIngestService(store, nil)

		ds, err := svc.ResolveDataStore(context.Background(), Destination{
			DisplayName: "docs",
			SearchFirst: true,
			AllowCreate: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "docs_7", ds.ID)
		assert.Zero(t, store.creates)
	})

	t.Run("creates when missing", func(t *testing.T) {
		store := newFakeStore()
		svc := NewSearchIngestService(store, nil)

		ds, err := svc.ResolveDataStore(context.Background(), Destination{
			DataStoreID: "docs_9",
			DisplayName: "docs",
			WithContent: true,
			AllowCreate: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "docs_9", ds.ID)
		assert.Equal(t, domain.ContentRequired, ds.ContentConfig)
		assert.Equal(t, 1, store.creates)
	})

	t.Run("second resolution reuses created store", func(t *testing.T) {
		store := newFakeStore()
		svc := NewSearchIngestService(store, nil)
		dest := Destination{DisplayName: "docs", SearchFirst: true, AllowCreate: true}

		first, err := svc.ResolveDataStore(context.Background(), dest)
		require.NoError(t, err)
		second, err := svc.ResolveDataStore(context.Background(), dest)
		require.NoError(t, err)
		assert.Equal(t, first.Name, second.Name)
		assert.Equal(t, 1, store.creates)
	})

	t.Run("creation not allowed", func(t *testing.T) {
		store := newFakeStore()
		svc := NewSearchIngestService(store, nil)

		_, err := svc.ResolveDataStore(context.Background(), Destination{
			DataStoreID: "missing",
			DisplayName: "docs",
		})
		require.ErrorIs(t, err, ErrDataStoreNotFound)
		assert.Contains(t, err.Error(), "creation is not allowed")
		assert.Zero(t, store.creates)
	})

	t.Run("display name required without id match", func(t *testing.T) {
		svc := NewSearchIngestService(newFakeStore(), nil)

		_, err := svc.ResolveDataStore(context.Background(), Destination{DataStoreID: "missing", AllowCreate: true})
		require.ErrorIs(t, err, config.ErrInvalidConfig)
	})
}

func TestBuildImportRequest(t *testing.T) {
	withMetadata := BuildImportRequest("gs://b/run/metadata.json", "gs://b/run/errors/", config.ExportMethodFull, true)
	assert.Equal(t, domain.DataSchemaDocument, withMetadata.DataSchema)
	assert.Equal(t, domain.ReconciliationFull, withMetadata.ReconciliationMode)
	assert.Nil(t, withMetadata.AutoGenerateIDs)
	assert.Empty(t, withMetadata.IDField)
	assert.Equal(t, []string{"gs://b/run/metadata.json"}, withMetadata.InputURIs)
	assert.Equal(t, "gs://b/run/errors/", withMetadata.ErrorPrefix)

	raw := BuildImportRequest("gs://b/run/data/*", "gs://b/run/errors/", config.ExportMethodIncremental, false)
	assert.Equal(t, domain.DataSchemaCustom, raw.DataSchema)
	assert.Equal(t, domain.ReconciliationIncremental, raw.ReconciliationMode)
	require.NotNil(t, raw.AutoGenerateIDs)
	assert.False(t, *raw.AutoGenerateIDs)
	assert.Equal(t, "id", raw.IDField)
}

func TestProcess(t *testing.T) {
	dest := Destination{DataStoreID: "docs_1"}

	t.Run("imports into resolved store", func(t *testing.T) {
		store := newFakeStore()
		store.add("docs_1", "docs")
		svc := NewSearchIngestService(store, nil)

		result, err := svc.Process(context.Background(), ProcessRequest{
			RunDir:       "gs://b/hdfs/runs/r1",
			DataPath:     "gs://b/hdfs/runs/r1/metadata.json",
			ExportMethod: config.ExportMethodFull,
			WithMetadata: true,
			Destination:  dest,
		})
		require.NoError(t, err)
		assert.Equal(t, "docs_1", result.DataStore.ID)
		require.Len(t, store.imports, 1)
		assert.Equal(t, result.DataStore.Name, store.importNames[0])
		assert.Equal(t, "gs://b/hdfs/runs/r1/errors/", store.imports[0].ErrorPrefix)
	})

	t.Run("partial failure", func(t *testing.T) {
		store := newFakeStore()
		store.add("docs_1", "docs")
		store.outcome = &domain.ImportOutcome{
			ErrorSamples:        []string{"code 3: bad document"},
			ErrorReportLocation: "gs://b/hdfs/runs/r1/errors/",
		}
		svc := NewSearchIngestService(store, nil)

		result, err := svc.Process(context.Background(), ProcessRequest{
			RunDir:       "gs://b/hdfs/runs/r1",
			DataPath:     "gs://b/hdfs/runs/r1/data/*",
			ExportMethod: config.ExportMethodFull,
			Destination:  dest,
		})
		require.ErrorIs(t, err, ErrImportPartialFailure)
		assert.Contains(t, err.Error(), "gs://b/hdfs/runs/r1/errors/")
		require.NotNil(t, result)
		assert.True(t, result.Outcome.Failed())
	})

	t.Run("import error", func(t *testing.T) {
		store := newFakeStore()
		store.add("docs_1", "docs")
		store.importErr = &repository.OperationError{Name: "operations/import-1", Code: 13, Message: "internal"}
		svc := NewSearchIngestService(store, nil)

		_, err := svc.Process(context.Background(), ProcessRequest{
			DataPath:     "gs://b/x",
			ExportMethod: config.ExportMethodFull,
			Destination:  dest,
		})
		var opErr *repository.OperationError
		require.ErrorAs(t, err, &opErr)
		assert.Equal(t, int64(13), opErr.Code)
	})

	t.Run("unsupported method", func(t *testing.T) {
		store := newFakeStore()
		svc := NewSearchIngestService(store, nil)

		_, err := svc.Process(context.Background(), ProcessRequest{ExportMethod: "delta", Destination: dest})
		require.ErrorIs(t, err, config.ErrInvalidConfig)
		assert.Zero(t, store.calls)
	})

	t.Run("import timeout bounds the wait", func(t *testing.T) {
		store := newFakeStore()
		store.add("docs_1", "docs")
		svc := NewSearchIngestService(&deadlineStore{fakeStore: store}, nil)

		_, err := svc.Process(context.Background(), ProcessRequest{
			DataPath:     "gs://b/x",
			ExportMethod: config.ExportMethodFull,
			Destination:  Destination{DataStoreID: "docs_1", ImportTimeout: 10 * time.Millisecond},
		})
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

// deadlineStore blocks imports until the context is done.
type deadlineStore struct {
	*fakeStore
}

func (d *deadlineStore) Import(ctx context.Context, name string, req domain.ImportRequest) (*domain.ImportOutcome, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestDeleteByPrefix(t *testing.T) {
	store := newFakeStore()
	store.add("docs_1", "docs")
	store.add("docs_2", "docs-archive")
	store.add("other_1", "other")
	busy := store.byID["docs_2"].Name
	store.deleteErr[busy] = &repository.OperationError{Code: 9, Message: "data store is attached to an engine"}
	svc := NewSearchIngestService(store, nil)

	deleted, err := svc.DeleteByPrefix(context.Background(), "docs", true)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.Len(t, store.purged, 2)
	assert.Equal(t, []string{store.byID["docs_1"].Name}, store.deleted)
}

func TestDeleteByPrefix_OtherErrorsAbort(t *testing.T) {
	store := newFakeStore()
	store.add("docs_1", "docs")
	store.deleteErr[store.byID["docs_1"].Name] = errors.New("permission denied")
	svc := NewSearchIngestService(store, nil)

	deleted, err := svc.DeleteByPrefix(context.Background(), "docs", false)
	require.Error(t, err)
	assert.Zero(t, deleted)
	assert.Empty(t, store.purged)
}
