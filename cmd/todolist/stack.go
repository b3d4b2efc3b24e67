package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/daap14/todolist/internal/config"
	"github.com/daap14/todolist/internal/k8s/template"
	"github.com/daap14/todolist/internal/provision"
)

const defaultImage = "ghcr.io/daap14/todolist"

// stackFlags are shared by the manifest, provision and teardown commands.
type stackFlags struct {
	namespace   string
	image       string
	replicas    int32
	port        int32
	pgVersion   string
	storageSize string
	poolMode    string
}

func (f *stackFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.namespace, "namespace", "n", "default", "Kubernetes namespace")
	cmd.Flags().StringVar(&f.image, "image", "", "container image (defaults to "+defaultImage+":<VERSION>)")
	cmd.Flags().Int32Var(&f.replicas, "replicas", 1, "app replicas")
	cmd.Flags().Int32Var(&f.port, "port", 8080, "container port")
	cmd.Flags().StringVar(&f.pgVersion, "pg-version", "", "PostgreSQL major version (default 16)")
	cmd.Flags().StringVar(&f.storageSize, "storage", "", "database volume size (default 10Gi)")
	cmd.Flags().StringVar(&f.poolMode, "pool-mode", "", "PgBouncer pool mode: session or transaction (default session)")
}

func (f *stackFlags) build(version string) ([]*unstructured.Unstructured, error) {
	image := f.image
	if image == "" {
		image = fmt.Sprintf("%s:%s", defaultImage, version)
	}

	return template.BuildStack(template.StackParams{
		Namespace: f.namespace,
		Cluster:   template.ClusterParams{PGVersion: f.pgVersion, StorageSize: f.storageSize},
		Pooler:    template.PoolerParams{PoolMode: f.poolMode},
		App:       template.AppParams{Image: image, Replicas: f.replicas, Port: f.port},
	})
}

func newManifestCmd() *cobra.Command {
	var flags stackFlags
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Print the Kubernetes manifests for the todolist stack",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, closeLog, err := loadConfig()
			if err != nil {
				return err
			}
			defer closeLog()

			objs, err := flags.build(cfg.Version)
			if err != nil {
				return err
			}
			out, err := template.RenderYAML(objs)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	flags.register(cmd)
	return cmd
}

func newProvisionCmd() *cobra.Command {
	var (
		flags    stackFlags
		wait     bool
		timeout  time.Duration
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create or update the todolist stack in the cluster",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, closeLog, err := loadConfig()
			if err != nil {
				return err
			}
			defer closeLog()

			objs, err := flags.build(cfg.Version)
			if err != nil {
				return err
			}
			p, err := newProvisioner(cmd.Context(), cfg, interval)
			if err != nil {
				return err
			}

			if err := p.Apply(cmd.Context(), objs); err != nil {
				return err
			}
			if !wait {
				return nil
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return p.WaitReady(ctx, flags.namespace, template.ClusterName)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the database cluster to become healthy")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "how long --wait may block")
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "cluster status poll interval")
	return cmd
}

func newTeardownCmd() *cobra.Command {
	var flags stackFlags
	cmd := &cobra.Command{
		Use:   "teardown",
		Short: "Delete the todolist stack from the cluster",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, closeLog, err := loadConfig()
			if err != nil {
				return err
			}
			defer closeLog()

			objs, err := flags.build(cfg.Version)
			if err != nil {
				return err
			}
			p, err := newProvisioner(cmd.Context(), cfg, time.Second)
			if err != nil {
				return err
			}
			return p.Teardown(cmd.Context(), objs)
		},
	}
	flags.register(cmd)
	return cmd
}

func newProvisioner(ctx context.Context, cfg *config.Config, interval time.Duration) (*provision.Provisioner, error) {
	client, err := newK8sClient(cfg)
	if err != nil {
		return nil, err
	}

	status := client.CheckConnectivity(ctx)
	if !status.Connected {
		return nil, fmt.Errorf("kubernetes API server is unreachable")
	}
	slog.Info("connected to kubernetes", "version", status.Version)

	return provision.New(client.NewManager(), interval), nil
}
