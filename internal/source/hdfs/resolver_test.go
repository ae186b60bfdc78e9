package hdfs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestClusterResolver_MasterInternalIP(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/projects/proj/regions/us-central1/clusters/docs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"clusterName": "docs",
			"config": map[string]interface{}{
				"gceClusterConfig": map[string]interface{}{
					"zoneUri": "https://www.googleapis.com/compute/v1/projects/proj/zones/us-central1-a",
				},
				"masterConfig": map[string]interface{}{
					"instanceNames": []string{"docs-m"},
				},
			},
		})
	})
	mux.HandleFunc("/projects/proj/zones/us-central1-a/instances/docs-m", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"name": "docs-m",
			"networkInterfaces": []map[string]interface{}{
				{"networkIP": "10.128.0.7"},
			},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	ctx := context.Background()
	resolver, err := NewClusterResolver(ctx, "us-central1",
		option.WithEndpoint(server.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)

	ip, err := resolver.MasterInternalIP(ctx, "proj", "us-central1", "docs")
	require.NoError(t, err)
	assert.Equal(t, "10.128.0.7", ip)
}

func TestClusterResolver_NoMaster(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"clusterName": "docs", "config": map[string]interface{}{}})
	}))
	defer server.Close()

	ctx := context.Background()
	resolver, err := NewClusterResolver(ctx, "us-central1",
		option.WithEndpoint(server.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)

	_, err = resolver.MasterInternalIP(ctx, "proj", "us-central1", "docs")
	assert.ErrorContains(t, err, "no master instances")
}
