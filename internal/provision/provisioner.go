// Package provision applies the todolist stack to a cluster and waits for the
// database to come up.
package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/daap14/todolist/internal/k8s"
)

// ErrClusterFailed is returned by WaitReady when CNPG reports a terminal failure.
var ErrClusterFailed = errors.New("database cluster failed")

// Provisioner drives a k8s.ResourceManager over an ordered set of objects.
type Provisioner struct {
	k8sMgr   k8s.ResourceManager
	interval time.Duration
}

// New creates a new Provisioner polling cluster status every interval.
func New(k8sMgr k8s.ResourceManager, interval time.Duration) *Provisioner {
	return &Provisioner{
		k8sMgr:   k8sMgr,
		interval: interval,
	}
}

// Apply creates or updates objs in order, stopping at the first failure.
func (p *Provisioner) Apply(ctx context.Context, objs []*unstructured.Unstructured) error {
	for _, obj := range objs {
		if err := p.k8sMgr.Apply(ctx, obj); err != nil {
			return err
		}
		slog.Info("applied resource", "kind", obj.GetKind(), "namespace", obj.GetNamespace(), "name", obj.GetName())
	}
	return nil
}

// Teardown deletes objs in reverse order so the app goes before its database.
// It keeps going after a failure and reports every error.
func (p *Provisioner) Teardown(ctx context.Context, objs []*unstructured.Unstructured) error {
	var errs []error
	for i := len(objs) - 1; i >= 0; i-- {
		obj := objs[i]
		if err := p.k8sMgr.Delete(ctx, obj); err != nil {
			slog.Error("failed to delete resource", "kind", obj.GetKind(), "name", obj.GetName(), "error", err)
			errs = append(errs, err)
			continue
		}
		slog.Info("deleted resource", "kind", obj.GetKind(), "namespace", obj.GetNamespace(), "name", obj.GetName())
	}
	return errors.Join(errs...)
}

// WaitReady blocks until the named CNPG cluster is healthy, has failed, or ctx ends.
// Lookup errors are treated as transient while the cluster is being created.
func (p *Provisioner) WaitReady(ctx context.Context, namespace, name string) error {
	slog.Info("waiting for database cluster", "cluster", name, "interval", p.interval.String())
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		done, err := p.check(ctx, namespace, name)
		if done {
			return err
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for cluster %s/%s: %w", namespace, name, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (p *Provisioner) check(ctx context.Context, namespace, name string) (bool, error) {
	status, err := p.k8sMgr.GetClusterStatus(ctx, namespace, name)
	if err != nil {
		slog.Warn("failed to get cluster status", "cluster", name, "error", err)
		return false, nil
	}

	if status.Ready {
		slog.Info("database cluster is ready", "cluster", name)
		return true, nil
	}
	if isFailedPhase(status.Phase) {
		return true, fmt.Errorf("%w: %s/%s is in phase %q", ErrClusterFailed, namespace, name, status.Phase)
	}

	slog.Debug("database cluster not ready yet", "cluster", name, "phase", status.Phase)
	return false, nil
}

func isFailedPhase(phase string) bool {
	switch phase {
	case "Failed", "Error",
		"Cluster in unhealthy state",
		"Failed to create primary",
		"Failed to reconcile":
		return true
	}
	return false
}
