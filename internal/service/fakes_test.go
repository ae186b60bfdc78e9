package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/timmy/hdfsconnector/internal/domain"
	"github.com/timmy/hdfsconnector/internal/source"
	"github.com/timmy/hdfsconnector/internal/storage"
)

type fakeFile struct {
	name     string
	content  string
	modified time.Time
}

// fakeSource is an in-memory FileSource keyed by directory.
type fakeSource struct {
	dirs      map[string][]fakeFile
	listErr   error
	openErr   map[string]error
	listCalls int
	openCalls int
}

func newFakeSource() *fakeSource {
	return &fakeSource{dirs: map[string][]fakeFile{}, openErr: map[string]error{}}
}

func (f *fakeSource) add(dir, name, content string, modified time.Time) {
	dir = strings.Trim(dir, "/")
	f.dirs[dir] = append(f.dirs[dir], fakeFile{name: name, content: content, modified: modified})
}

func (f *fakeSource) List(ctx context.Context, dir string) ([]domain.FileEntry, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrListingFailed, f.listErr)
	}
	dir = strings.Trim(dir, "/")
	files, ok := f.dirs[dir]
	if !ok {
		return nil, fmt.Errorf("%w: /%s: FileNotFoundException", source.ErrListingFailed, dir)
	}
	entries := make([]domain.FileEntry, 0, len(files))
	for _, file := range files {
		rel := strings.TrimPrefix(dir+"/"+file.name, "/")
		entries = append(entries, domain.FileEntry{
			Name:             file.name,
			Path:             "/" + rel,
			URI:              f.URI(rel),
			Size:             int64(len(file.content)),
			CreationTime:     file.modified,
			LastModifiedTime: file.modified,
		})
	}
	return entries, nil
}

func (f *fakeSource) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	f.openCalls++
	if err := f.openErr[path]; err != nil {
		return nil, err
	}
	path = strings.Trim(path, "/")
	for dir, files := range f.dirs {
		for _, file := range files {
			if strings.TrimPrefix(dir+"/"+file.name, "/") == path {
				return io.NopCloser(strings.NewReader(file.content)), nil
			}
		}
	}
	return nil, fmt.Errorf("no such file: %s", path)
}

func (f *fakeSource) URI(path string) string {
	return "hdfs://10.0.0.5:9870/" + strings.Trim(path, "/")
}

var _ source.FileSource = (*fakeSource)(nil)

// fakeStore is an in-memory DataStoreStore.
type fakeStore struct {
	byID        map[string]domain.DataStore
	order       []string
	creates     int
	imports     []domain.ImportRequest
	importNames []string
	outcome     *domain.ImportOutcome
	importErr   error
	deleteErr   map[string]error
	purged      []string
	deleted     []string
	calls       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: map[string]domain.DataStore{}, deleteErr: map[string]error{}}
}

func (f *fakeStore) add(id, displayName string) {
	f.byID[id] = domain.DataStore{
		Name:        "projects/p/locations/global/collections/default_collection/dataStores/" + id,
		DisplayName: displayName,
		ID:          id,
	}
	f.order = append(f.order, id)
}

func (f *fakeStore) Get(ctx context.Context, id string) (*domain.DataStore, error) {
	f.calls++
	ds, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	return &ds, nil
}

func (f *fakeStore) List(ctx context.Context, prefix string, limit int) ([]domain.DataStore, error) {
	f.calls++
	var out []domain.DataStore
	for _, id := range f.order {
		ds, ok := f.byID[id]
		if !ok || !strings.HasPrefix(ds.DisplayName, prefix) {
			continue
		}
		out = append(out, ds)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) Create(ctx context.Context, displayName, id string, withContent bool) (*domain.DataStore, error) {
	f.calls++
	f.creates++
	if id == "" {
		id = displayName + "_1"
	}
	f.add(id, displayName)
	ds := f.byID[id]
	if withContent {
		ds.ContentConfig = domain.ContentRequired
	} else {
		ds.ContentConfig = domain.NoContent
	}
	f.byID[id] = ds
	return &ds, nil
}

func (f *fakeStore) Import(ctx context.Context, name string, req domain.ImportRequest) (*domain.ImportOutcome, error) {
	f.calls++
	f.imports = append(f.imports, req)
	f.importNames = append(f.importNames, name)
	if f.importErr != nil {
		return nil, f.importErr
	}
	if f.outcome != nil {
		return f.outcome, nil
	}
	return &domain.ImportOutcome{ErrorReportLocation: req.ErrorPrefix}, nil
}

func (f *fakeStore) Purge(ctx context.Context, name string) (int64, error) {
	f.calls++
	f.purged = append(f.purged, name)
	return 3, nil
}

func (f *fakeStore) Delete(ctx context.Context, name string) error {
	f.calls++
	if err := f.deleteErr[name]; err != nil {
		return err
	}
	f.deleted = append(f.deleted, name)
	return nil
}

var _ DataStoreStore = (*fakeStore)(nil)

func newTestBlobs(t *testing.T) *storage.Blobs {
	t.Helper()
	return storage.NewBlobs(map[string]storage.ObjectStorage{
		storage.SchemeFile: storage.NewFileStorage(t.TempDir()),
	})
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func readLines(t *testing.T, blobs *storage.Blobs, uri string) []string {
	t.Helper()
	data, err := blobs.ReadAll(context.Background(), uri)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}
