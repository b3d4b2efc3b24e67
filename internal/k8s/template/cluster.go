package template

import (
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Defaults for the todolist database cluster.
const (
	defaultInstances   = 1
	defaultStorageSize = "10Gi"
	defaultPGVersion   = "16"
)

// ClusterParams configures the CNPG Cluster backing the todolist table.
type ClusterParams struct {
	Namespace   string
	PGVersion   string // e.g., "16"
	StorageSize string // e.g., "10Gi"
	Instances   int
}

// BuildCluster creates the CNPG Cluster. Its initdb bootstrap creates the todolist
// database owned by the todolist role, and CNPG publishes that role's credentials in
// the <cluster>-app secret.
func BuildCluster(params ClusterParams) *unstructured.Unstructured {
	if params.PGVersion == "" {
		params.PGVersion = defaultPGVersion
	}
	if params.StorageSize == "" {
		params.StorageSize = defaultStorageSize
	}
	if params.Instances <= 0 {
		params.Instances = defaultInstances
	}

	return &unstructured.Unstructured{
		Object: map[string]any{
			"apiVersion": "postgresql.cnpg.io/v1",
			"kind":       "Cluster",
			"metadata": map[string]any{
				"name":      ClusterName,
				"namespace": params.Namespace,
				"labels":    labels("database"),
			},
			"spec": map[string]any{
				"instances": int64(params.Instances),
				"imageName": fmt.Sprintf("ghcr.io/cloudnative-pg/postgresql:%s", params.PGVersion),
				"bootstrap": map[string]any{
					"initdb": map[string]any{
						"database": DatabaseName,
						"owner":    DatabaseOwner,
					},
				},
				"storage": map[string]any{
					"size": params.StorageSize,
				},
			},
		},
	}
}
