package k8s

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
)

// HealthyPhase is the CNPG cluster phase reported once the primary accepts connections.
const HealthyPhase = "Cluster in healthy state"

var (
	clusterGVR = schema.GroupVersionResource{Group: "postgresql.cnpg.io", Version: "v1", Resource: "clusters"}
	secretGVR  = schema.GroupVersionResource{Group: "", Version: "v1", Resource: "secrets"}

	// resources maps every kind of the todolist stack to its REST resource.
	resources = map[schema.GroupVersionKind]schema.GroupVersionResource{
		{Group: "postgresql.cnpg.io", Version: "v1", Kind: "Cluster"}:            clusterGVR,
		{Group: "postgresql.cnpg.io", Version: "v1", Kind: "Pooler"}:             {Group: "postgresql.cnpg.io", Version: "v1", Resource: "poolers"},
		{Group: "apps", Version: "v1", Kind: "Deployment"}:                       {Group: "apps", Version: "v1", Resource: "deployments"},
		{Group: "", Version: "v1", Kind: "Service"}:                              {Group: "", Version: "v1", Resource: "services"},
		{Group: "", Version: "v1", Kind: "ServiceAccount"}:                       {Group: "", Version: "v1", Resource: "serviceaccounts"},
		{Group: "", Version: "v1", Kind: "Secret"}:                               secretGVR,
		{Group: "rbac.authorization.k8s.io", Version: "v1", Kind: "Role"}:        {Group: "rbac.authorization.k8s.io", Version: "v1", Resource: "roles"},
		{Group: "rbac.authorization.k8s.io", Version: "v1", Kind: "RoleBinding"}: {Group: "rbac.authorization.k8s.io", Version: "v1", Resource: "rolebindings"},
	}
)

// ClusterStatus represents the status of a CNPG Cluster resource.
type ClusterStatus struct {
	Phase string
	Ready bool
}

// Manager implements ResourceManager using the Kubernetes dynamic client.
type Manager struct {
	dynamic dynamic.Interface
}

// NewManager creates a ResourceManager from the existing Client.
func (c *Client) NewManager() *Manager {
	return &Manager{dynamic: c.dynamic}
}

// Apply creates obj, or updates it in place when it already exists.
func (m *Manager) Apply(ctx context.Context, obj *unstructured.Unstructured) error {
	gvr, err := resourceFor(obj)
	if err != nil {
		return err
	}

	namespace := obj.GetNamespace()
	name := obj.GetName()
	resource := m.dynamic.Resource(gvr).Namespace(namespace)

	_, err = resource.Create(ctx, obj, metav1.CreateOptions{})
	if err == nil {
		return nil
	}
	if !k8serrors.IsAlreadyExists(err) {
		return fmt.Errorf("creating %s %s/%s: %w", gvr.Resource, namespace, name, err)
	}

	existing, err := resource.Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return fmt.Errorf("getting existing %s %s/%s: %w", gvr.Resource, namespace, name, err)
	}

	obj.SetResourceVersion(existing.GetResourceVersion())
	if _, err := resource.Update(ctx, obj, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("updating %s %s/%s: %w", gvr.Resource, namespace, name, err)
	}
	return nil
}

// Delete removes obj. A resource that is already gone is not an error.
func (m *Manager) Delete(ctx context.Context, obj *unstructured.Unstructured) error {
	gvr, err := resourceFor(obj)
	if err != nil {
		return err
	}

	namespace := obj.GetNamespace()
	name := obj.GetName()
	err = m.dynamic.Resource(gvr).Namespace(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil && !k8serrors.IsNotFound(err) {
		return fmt.Errorf("deleting %s %s/%s: %w", gvr.Resource, namespace, name, err)
	}
	return nil
}

// GetClusterStatus reads the status of a CNPG Cluster resource.
func (m *Manager) GetClusterStatus(ctx context.Context, namespace, name string) (ClusterStatus, error) {
	obj, err := m.dynamic.Resource(clusterGVR).Namespace(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return ClusterStatus{}, fmt.Errorf("getting cluster %s/%s: %w", namespace, name, err)
	}

	phase, _, _ := unstructured.NestedString(obj.Object, "status", "phase")

	return ClusterStatus{
		Phase: phase,
		Ready: phase == HealthyPhase,
	}, nil
}

// GetSecret reads a Kubernetes Secret and returns its data.
func (m *Manager) GetSecret(ctx context.Context, namespace, name string) (map[string][]byte, error) {
	obj, err := m.dynamic.Resource(secretGVR).Namespace(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("getting secret %s/%s: %w", namespace, name, err)
	}

	var secret corev1.Secret
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(obj.Object, &secret); err != nil {
		return nil, fmt.Errorf("converting secret %s/%s: %w", namespace, name, err)
	}

	data := secret.Data
	if data == nil {
		data = map[string][]byte{}
	}
	for k, v := range secret.StringData {
		data[k] = []byte(v)
	}
	return data, nil
}

func resourceFor(obj *unstructured.Unstructured) (schema.GroupVersionResource, error) {
	gvk := obj.GroupVersionKind()
	gvr, ok := resources[gvk]
	if !ok {
		return schema.GroupVersionResource{}, fmt.Errorf("unsupported kind %s", gvk.String())
	}
	return gvr, nil
}
