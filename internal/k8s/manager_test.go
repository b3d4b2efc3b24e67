package k8s

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	clientgotesting "k8s.io/client-go/testing"

	"github.com/daap14/todolist/internal/k8s/template"
)

// newTestManager creates a Manager backed by a fake dynamic client that knows every stack kind.
func newTestManager(objects ...runtime.Object) (*Manager, *dynamicfake.FakeDynamicClient) {
	scheme := runtime.NewScheme()
	for gvk := range resources {
		scheme.AddKnownTypeWithName(gvk, &unstructured.Unstructured{})
		scheme.AddKnownTypeWithName(gvk.GroupVersion().WithKind(gvk.Kind+"List"), &unstructured.UnstructuredList{})
	}

	fakeClient := dynamicfake.NewSimpleDynamicClient(scheme, objects...)
	return &Manager{dynamic: fakeClient}, fakeClient
}

func testStack(t *testing.T) []*unstructured.Unstructured {
	t.Helper()
	objs, err := template.BuildStack(template.StackParams{
		Namespace: "default",
		App:       template.AppParams{Image: "todolist:test"},
	})
	require.NoError(t, err)
	return objs
}

// --- Apply Tests ---

func TestApply_CreatesEveryStackKind(t *testing.T) {
	mgr, fakeClient := newTestManager()
	ctx := context.Background()

	for _, obj := range testStack(t) {
		require.NoError(t, mgr.Apply(ctx, obj), "applying %s", obj.GetKind())

		gvr := resources[obj.GroupVersionKind()]
		got, err := fakeClient.Resource(gvr).Namespace("default").Get(ctx, obj.GetName(), metav1.GetOptions{})
		require.NoError(t, err)
		assert.Equal(t, obj.GetKind(), got.GetKind())
	}
}

func TestApply_UpdateExisting(t *testing.T) {
	ctx := context.Background()

	existing := template.BuildCluster(template.ClusterParams{Namespace: "default"})
	mgr, fakeClient := newTestManager(existing)

	updated := template.BuildCluster(template.ClusterParams{Namespace: "default", PGVersion: "15"})
	require.NoError(t, mgr.Apply(ctx, updated))

	obj, err := fakeClient.Resource(clusterGVR).Namespace("default").Get(ctx, template.ClusterName, metav1.GetOptions{})
	require.NoError(t, err)
	image, _, _ := unstructured.NestedString(obj.Object, "spec", "imageName")
	assert.Equal(t, "ghcr.io/cloudnative-pg/postgresql:15", image)
}

func TestApply_Error(t *testing.T) {
	mgr, fakeClient := newTestManager()

	fakeClient.PrependReactor("create", "clusters", func(action clientgotesting.Action) (bool, runtime.Object, error) {
		return true, nil, assert.AnError
	})

	err := mgr.Apply(context.Background(), template.BuildCluster(template.ClusterParams{Namespace: "default"}))
	assert.Error(t, err)
}

func TestApply_UnsupportedKind(t *testing.T) {
	mgr, _ := newTestManager()

	obj := &unstructured.Unstructured{}
	obj.SetGroupVersionKind(schema.GroupVersionKind{Group: "batch", Version: "v1", Kind: "Job"})
	obj.SetName("migrate")

	err := mgr.Apply(context.Background(), obj)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported kind")
}

// --- Delete Tests ---

func TestDelete_Success(t *testing.T) {
	ctx := context.Background()
	existing := template.BuildPooler(template.PoolerParams{Namespace: "default"})
	mgr, fakeClient := newTestManager(existing)

	require.NoError(t, mgr.Delete(ctx, existing))

	_, err := fakeClient.Resource(resources[existing.GroupVersionKind()]).Namespace("default").Get(ctx, template.PoolerName, metav1.GetOptions{})
	assert.Error(t, err)
}

func TestDelete_NotFound(t *testing.T) {
	mgr, _ := newTestManager()

	err := mgr.Delete(context.Background(), template.BuildCluster(template.ClusterParams{Namespace: "default"}))
	assert.NoError(t, err)
}

func TestDelete_Error(t *testing.T) {
	mgr, fakeClient := newTestManager()

	fakeClient.PrependReactor("delete", "clusters", func(action clientgotesting.Action) (bool, runtime.Object, error) {
		return true, nil, assert.AnError
	})

	err := mgr.Delete(context.Background(), template.BuildCluster(template.ClusterParams{Namespace: "default"}))
	assert.Error(t, err)
}

// --- GetClusterStatus Tests ---

func TestGetClusterStatus(t *testing.T) {
	tests := []struct {
		phase string
		ready bool
	}{
		{phase: "Cluster in healthy state", ready: true},
		{phase: "Setting up primary", ready: false},
		{phase: "", ready: false},
	}

	for _, tt := range tests {
		t.Run(tt.phase, func(t *testing.T) {
			cluster := template.BuildCluster(template.ClusterParams{Namespace: "default"})
			if tt.phase != "" {
				cluster.Object["status"] = map[string]any{"phase": tt.phase}
			}
			mgr, _ := newTestManager(cluster)

			status, err := mgr.GetClusterStatus(context.Background(), "default", template.ClusterName)
			require.NoError(t, err)
			assert.Equal(t, tt.ready, status.Ready)
			assert.Equal(t, tt.phase, status.Phase)
		})
	}
}

func TestGetClusterStatus_NotFound(t *testing.T) {
	mgr, _ := newTestManager()

	_, err := mgr.GetClusterStatus(context.Background(), "default", "nonexistent")
	assert.Error(t, err)
}

// --- GetSecret Tests ---

func secretObject(t *testing.T, secret *corev1.Secret) *unstructured.Unstructured {
	t.Helper()
	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(secret)
	require.NoError(t, err)
	unstr := &unstructured.Unstructured{Object: content}
	unstr.SetGroupVersionKind(schema.GroupVersionKind{Group: "", Version: "v1", Kind: "Secret"})
	return unstr
}

func TestGetSecret_Success(t *testing.T) {
	secret := secretObject(t, &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: template.SecretName, Namespace: "default"},
		Data: map[string][]byte{
			"username": []byte("todolist"),
			"password": []byte("secret123"),
			"host":     []byte("todolist-db-rw"),
			"dbname":   []byte("todolist"),
		},
	})
	mgr, _ := newTestManager(secret)

	data, err := mgr.GetSecret(context.Background(), "default", template.SecretName)
	require.NoError(t, err)
	assert.Equal(t, []byte("todolist"), data["username"])
	assert.Equal(t, []byte("secret123"), data["password"])
	assert.Equal(t, []byte("todolist-db-rw"), data["host"])
}

func TestGetSecret_MergesStringData(t *testing.T) {
	secret := secretObject(t, &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: "manual", Namespace: "default"},
		StringData: map[string]string{"credentials": `{"host":"db"}`},
	})
	mgr, _ := newTestManager(secret)

	data, err := mgr.GetSecret(context.Background(), "default", "manual")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"host":"db"}`), data["credentials"])
}

func TestGetSecret_NotFound(t *testing.T) {
	mgr, _ := newTestManager()

	_, err := mgr.GetSecret(context.Background(), "default", "nonexistent-secret")
	assert.Error(t, err)
}
