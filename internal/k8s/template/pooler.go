package template

import (
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// PoolerParams configures the PgBouncer pooler in front of the cluster.
type PoolerParams struct {
	Namespace string
	// PoolMode is "session" or "transaction"; defaults to session, which keeps
	// pgx's per-connection prepared statement cache valid.
	PoolMode string
}

// BuildPooler creates the CNPG Pooler that routes to the cluster's read-write service.
func BuildPooler(params PoolerParams) *unstructured.Unstructured {
	if params.PoolMode == "" {
		params.PoolMode = "session"
	}

	return &unstructured.Unstructured{
		Object: map[string]any{
			"apiVersion": "postgresql.cnpg.io/v1",
			"kind":       "Pooler",
			"metadata": map[string]any{
				"name":      PoolerName,
				"namespace": params.Namespace,
				"labels":    labels("pooler"),
			},
			"spec": map[string]any{
				"cluster": map[string]any{
					"name": ClusterName,
				},
				"instances": int64(1),
				"type":      "rw",
				"pgbouncer": map[string]any{
					"poolMode": params.PoolMode,
				},
			},
		},
	}
}
