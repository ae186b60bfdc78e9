package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/hdfsconnector/internal/config"
	"github.com/timmy/hdfsconnector/internal/logger"
	"github.com/timmy/hdfsconnector/internal/source"
	"github.com/timmy/hdfsconnector/internal/source/localfs"
)

func TestNewSource_UnresolvableClusterListsNothing(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/nonexistent.json")
	cfg := &config.Config{Source: config.SourceConfig{
		Project:     "p",
		Region:      "us-central1",
		ClusterName: "hdfs-cluster",
		HDFSPort:    9870,
		Prefix:      "data",
	}}

	src, err := newSource(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	require.NotNil(t, src)
	assert.Empty(t, cfg.Source.InternalIP)

	entries, err := src.List(context.Background(), "data")
	assert.Nil(t, entries)
	assert.True(t, errors.Is(err, source.ErrListingFailed))
}

func TestNewSource_MountPath(t *testing.T) {
	cfg := &config.Config{Source: config.SourceConfig{
		MountPath:  t.TempDir(),
		InternalIP: "10.0.0.5",
		HDFSPort:   9870,
	}}

	src, err := newSource(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	assert.IsType(t, &localfs.Adapter{}, src)
	assert.Equal(t, "hdfs://10.0.0.5:9870/data/a.pdf", src.URI("data/a.pdf"))
}
