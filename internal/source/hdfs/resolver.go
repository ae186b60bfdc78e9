package hdfs

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/compute/v1"
	"google.golang.org/api/dataproc/v1"
	"google.golang.org/api/option"
)

// ClusterResolver looks up the internal address of a Dataproc cluster's master node.
type ClusterResolver struct {
	clusters  *dataproc.Service
	instances *compute.Service
}

// NewClusterResolver creates a resolver bound to the regional Dataproc endpoint.
// Parameters:
//   - ctx: context used to build the API clients.
//   - region: Dataproc region, e.g. us-central1.
//   - opts: extra client options applied to both APIs.
//
// Returns:
//   - *ClusterResolver: resolver ready for lookups.
//   - error: non-nil if a client cannot be created.
func NewClusterResolver(ctx context.Context, region string, opts ...option.ClientOption) (*ClusterResolver, error) {
	dataprocOpts := append([]option.ClientOption{
		option.WithEndpoint(fmt.Sprintf("https://%s-dataproc.googleapis.com/", region)),
	}, opts...)
	clusters, err := dataproc.NewService(ctx, dataprocOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create dataproc client: %w", err)
	}
	instances, err := compute.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create compute client: %w", err)
	}
	return &ClusterResolver{clusters: clusters, instances: instances}, nil
}

// MasterInternalIP returns the internal IP of the cluster's first master instance.
func (r *ClusterResolver) MasterInternalIP(ctx context.Context, project, region, clusterName string) (string, error) {
	cluster, err := r.clusters.Projects.Regions.Clusters.Get(project, region, clusterName).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get cluster %s: %w", clusterName, err)
	}
	if cluster.Config == nil || cluster.Config.MasterConfig == nil || len(cluster.Config.MasterConfig.InstanceNames) == 0 {
		return "", fmt.Errorf("cluster %s has no master instances", clusterName)
	}
	if cluster.Config.GceClusterConfig == nil || cluster.Config.GceClusterConfig.ZoneUri == "" {
		return "", fmt.Errorf("cluster %s has no zone", clusterName)
	}

	zone := lastSegment(cluster.Config.GceClusterConfig.ZoneUri)
	name := cluster.Config.MasterConfig.InstanceNames[0]

	instance, err := r.instances.Instances.Get(project, zone, name).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get instance %s: %w", name, err)
	}
	for _, nic := range instance.NetworkInterfaces {
		if nic.NetworkIP != "" {
			return nic.NetworkIP, nil
		}
	}
	return "", fmt.Errorf("instance %s has no internal IP", name)
}

func lastSegment(uri string) string {
	return uri[strings.LastIndex(uri, "/")+1:]
}
