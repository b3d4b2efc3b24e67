package provision_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/daap14/todolist/internal/k8s"
	"github.com/daap14/todolist/internal/provision"
)

// --- Mock ResourceManager ---

type mockK8sManager struct {
	mu       sync.Mutex
	applied  []string
	deleted  []string
	applyFn  func(obj *unstructured.Unstructured) error
	deleteFn func(obj *unstructured.Unstructured) error
	statuses []k8s.ClusterStatus
	statusFn func() (k8s.ClusterStatus, error)
	polls    int
}

func (m *mockK8sManager) Apply(_ context.Context, obj *unstructured.Unstructured) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.applyFn != nil {
		if err := m.applyFn(obj); err != nil {
			return err
		}
	}
	m.applied = append(m.applied, obj.GetKind())
	return nil
}

func (m *mockK8sManager) Delete(_ context.Context, obj *unstructured.Unstructured) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteFn != nil {
		if err := m.deleteFn(obj); err != nil {
			return err
		}
	}
	m.deleted = append(m.deleted, obj.GetKind())
	return nil
}

func (m *mockK8sManager) GetClusterStatus(_ context.Context, _, _ string) (k8s.ClusterStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.polls++
	if m.statusFn != nil {
		return m.statusFn()
	}
	if len(m.statuses) == 0 {
		return k8s.ClusterStatus{}, nil
	}
	s := m.statuses[0]
	if len(m.statuses) > 1 {
		m.statuses = m.statuses[1:]
	}
	return s, nil
}

func (m *mockK8sManager) GetSecret(_ context.Context, _, _ string) (map[string][]byte, error) {
	return nil, errors.New("not implemented")
}

func objects(kinds ...string) []*unstructured.Unstructured {
	var out []*unstructured.Unstructured
	for _, kind := range kinds {
		obj := &unstructured.Unstructured{}
		obj.SetKind(kind)
		obj.SetName("todolist")
		out = append(out, obj)
	}
	return out
}

// --- Apply / Teardown ---

func TestApply_InOrder(t *testing.T) {
	mgr := &mockK8sManager{}
	p := provision.New(mgr, time.Millisecond)

	err := p.Apply(context.Background(), objects("Cluster", "Pooler", "Deployment"))

	require.NoError(t, err)
	assert.Equal(t, []string{"Cluster", "Pooler", "Deployment"}, mgr.applied)
}

func TestApply_StopsAtFirstError(t *testing.T) {
	mgr := &mockK8sManager{applyFn: func(obj *unstructured.Unstructured) error {
		if obj.GetKind() == "Pooler" {
			return assert.AnError
		}
		return nil
	}}
	p := provision.New(mgr, time.Millisecond)

	err := p.Apply(context.Background(), objects("Cluster", "Pooler", "Deployment"))

	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, []string{"Cluster"}, mgr.applied)
}

func TestTeardown_ReverseOrder(t *testing.T) {
	mgr := &mockK8sManager{}
	p := provision.New(mgr, time.Millisecond)

	err := p.Teardown(context.Background(), objects("Cluster", "Pooler", "Deployment"))

	require.NoError(t, err)
	assert.Equal(t, []string{"Deployment", "Pooler", "Cluster"}, mgr.deleted)
}

func TestTeardown_ContinuesPastErrors(t *testing.T) {
	mgr := &mockK8sManager{deleteFn: func(obj *unstructured.Unstructured) error {
		if obj.GetKind() == "Pooler" {
			return assert.AnError
		}
		return nil
	}}
	p := provision.New(mgr, time.Millisecond)

	err := p.Teardown(context.Background(), objects("Cluster", "Pooler", "Deployment"))

	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, []string{"Deployment", "Cluster"}, mgr.deleted)
}

// --- WaitReady ---

func TestWaitReady_BecomesHealthy(t *testing.T) {
	mgr := &mockK8sManager{statuses: []k8s.ClusterStatus{
		{Phase: "Setting up primary"},
		{Phase: "Creating primary"},
		{Phase: k8s.HealthyPhase, Ready: true},
	}}
	p := provision.New(mgr, time.Millisecond)

	err := p.WaitReady(context.Background(), "default", "todolist-db")

	require.NoError(t, err)
	assert.Equal(t, 3, mgr.polls)
}

func TestWaitReady_FailedPhase(t *testing.T) {
	mgr := &mockK8sManager{statuses: []k8s.ClusterStatus{{Phase: "Failed to create primary"}}}
	p := provision.New(mgr, time.Millisecond)

	err := p.WaitReady(context.Background(), "default", "todolist-db")

	require.Error(t, err)
	assert.ErrorIs(t, err, provision.ErrClusterFailed)
	assert.Contains(t, err.Error(), "Failed to create primary")
}

func TestWaitReady_LookupErrorsAreTransient(t *testing.T) {
	calls := 0
	mgr := &mockK8sManager{statusFn: func() (k8s.ClusterStatus, error) {
		calls++
		if calls < 3 {
			return k8s.ClusterStatus{}, errors.New("clusters.postgresql.cnpg.io \"todolist-db\" not found")
		}
		return k8s.ClusterStatus{Phase: k8s.HealthyPhase, Ready: true}, nil
	}}
	p := provision.New(mgr, time.Millisecond)

	err := p.WaitReady(context.Background(), "default", "todolist-db")

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWaitReady_ContextCancelled(t *testing.T) {
	mgr := &mockK8sManager{statuses: []k8s.ClusterStatus{{Phase: "Setting up primary"}}}
	p := provision.New(mgr, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := p.WaitReady(ctx, "default", "todolist-db")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, mgr.polls, 1)
}
