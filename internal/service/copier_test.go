package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchesName(t *testing.T) {
	tests := []struct {
		pattern string
		name    string
		want    bool
	}{
		{pattern: `.*\.pdf`, name: "a.pdf", want: true},
		{pattern: `report`, name: "report_2024.pdf", want: true},
		{pattern: `report`, name: "old_report.pdf", want: false},
		{pattern: `\d+`, name: "2024.csv", want: true},
		{pattern: `b|a`, name: "cab", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesName(regexp.MustCompile(tt.pattern), tt.name))
		})
	}
	assert.True(t, MatchesName(nil, "anything"))
}

func TestCopier_CopiesMatchingFiles(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource()
	src.add("data/docs", "a.pdf", "pdf-bytes", day(1))
	src.add("data/docs", "b.docx", "docx-bytes", day(2))
	src.add("data/docs", "notes.txt", "txt", day(3))
	blobs := newTestBlobs(t)

	copier := NewCopier(src, blobs, nil)
	result, err := copier.Copy(ctx, CopyRequest{
		SourceDir:   "data/docs",
		Destination: "file://staging/run/data",
		Filter:      regexp.MustCompile(`[ab]\.`),
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, []string{"a.pdf", "b.docx"}, result.Names())
	assert.Equal(t, "file://staging/run/data/a.pdf", result.Files[0].Destination)

	data, err := blobs.ReadAll(ctx, "file://staging/run/data/b.docx")
	require.NoError(t, err)
	assert.Equal(t, "docx-bytes", string(data))

	exists, err := blobs.Exists(ctx, "file://staging/run/data/notes.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCopier_ListingFailureIsNotAnError(t *testing.T) {
	src := newFakeSource()
	src.listErr = errors.New("connection refused")

	result, err := NewCopier(src, newTestBlobs(t), nil).Copy(context.Background(), CopyRequest{
		SourceDir:   "data",
		Destination: "file://staging/run/data",
	})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestCopier_EmptyDirectoryIsDistinctFromFailure(t *testing.T) {
	src := newFakeSource()
	src.add("data", "x.csv", "x", day(1))

	result, err := NewCopier(src, newTestBlobs(t), nil).Copy(context.Background(), CopyRequest{
		SourceDir:   "data",
		Destination: "file://staging/run/data",
		Filter:      regexp.MustCompile(`nomatch`),
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 0, result.Count())
}

func TestCopier_CopyErrorAborts(t *testing.T) {
	src := newFakeSource()
	src.add("data", "a.pdf", "a", day(1))
	src.add("data", "b.pdf", "b", day(2))
	src.openErr["/data/b.pdf"] = errors.New("datanode unavailable")

	result, err := NewCopier(src, newTestBlobs(t), nil).Copy(context.Background(), CopyRequest{
		SourceDir:   "data",
		Destination: "file://staging/run/data",
	})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "datanode unavailable")
}

func TestCopier_CancelledContext(t *testing.T) {
	src := newFakeSource()
	src.listErr = errors.New("interrupted")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCopier(src, newTestBlobs(t), nil).Copy(ctx, CopyRequest{SourceDir: "data", Destination: "file://s/d"})
	assert.ErrorIs(t, err, context.Canceled)
}
