package k8s

import (
	"context"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// ResourceManager applies and removes the todolist stack and reads its secrets.
type ResourceManager interface {
	Apply(ctx context.Context, obj *unstructured.Unstructured) error
	Delete(ctx context.Context, obj *unstructured.Unstructured) error
	GetClusterStatus(ctx context.Context, namespace, name string) (ClusterStatus, error)
	GetSecret(ctx context.Context, namespace, name string) (map[string][]byte, error)
}
