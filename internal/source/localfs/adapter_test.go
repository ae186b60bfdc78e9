package localfs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/hdfsconnector/internal/source"
)

func writeFile(t *testing.T, path, content string, modified time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, modified, modified))
}

func TestAdapter_List(t *testing.T) {
	root := t.TempDir()
	modified := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	writeFile(t, filepath.Join(root, "data", "docs", "b.docx"), "bb", modified)
	writeFile(t, filepath.Join(root, "data", "docs", "a.pdf"), "a", modified)
	writeFile(t, filepath.Join(root, "data", "docs", "nested", "c.pdf"), "c", modified)

	a := NewAdapter(root, "hdfs://10.0.0.5:9870")
	files, err := a.List(context.Background(), "/data/docs/")
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "a.pdf", files[0].Name)
	assert.Equal(t, "/data/docs/a.pdf", files[0].Path)
	assert.Equal(t, "hdfs://10.0.0.5:9870//data/docs//a.pdf", files[0].URI)
	assert.Equal(t, int64(1), files[0].Size)
	assert.True(t, modified.Equal(files[0].LastModifiedTime))
	assert.Equal(t, files[0].LastModifiedTime, files[0].CreationTime)
	assert.Equal(t, "b.docx", files[1].Name)
}

func TestAdapter_ListMissingDir(t *testing.T) {
	_, err := NewAdapter(t.TempDir(), "").List(context.Background(), "missing")
	require.ErrorIs(t, err, source.ErrListingFailed)
}

func TestAdapter_Open(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "data", "a.pdf"), "%PDF", time.Now())
	a := NewAdapter(root, "")

	rc, err := a.Open(context.Background(), "/data/a.pdf")
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(body))

	_, err = a.Open(context.Background(), "/data/missing.pdf")
	require.Error(t, err)
}

func TestAdapter_URIWithoutPrefix(t *testing.T) {
	root := t.TempDir()
	a := NewAdapter(root, "")
	assert.Equal(t, "file://"+filepath.ToSlash(filepath.Join(root, "data", "a.pdf")), a.URI("data/a.pdf"))
}
