package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/daap14/todolist/internal/config"
	"github.com/daap14/todolist/internal/database"
	"github.com/daap14/todolist/internal/k8s"
	"github.com/daap14/todolist/internal/todo"
)

// store is an initialized executor plus what is needed to bootstrap and release it.
type store struct {
	exec    database.Executor
	dialect todo.Dialect
	close   func()
}

// openStore connects the configured backend. Postgres pools are initialized here so
// a bad secret or unreachable server fails start-up instead of the first request.
func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	if cfg.DBDriver == config.DriverSQLite {
		exec, err := database.OpenSQLite(ctx, cfg.SQLitePath, int(cfg.DBMaxConns))
		if err != nil {
			return nil, err
		}
		slog.Info("using sqlite database", "path", cfg.SQLitePath)
		return &store{
			exec:    exec,
			dialect: todo.DialectSQLite,
			close:   func() { _ = exec.Close() },
		}, nil
	}

	source, err := credentialSource(cfg)
	if err != nil {
		return nil, err
	}

	mgr := database.NewManager(source, database.WithMaxConns(cfg.DBMaxConns))
	if err := mgr.Initialize(ctx); err != nil {
		return nil, err
	}
	return &store{
		exec:    mgr,
		dialect: todo.DialectPostgres,
		close:   mgr.Close,
	}, nil
}

// credentialSource picks where connection settings come from: an explicit
// DATABASE_URL, the Kubernetes secret in production, or the fixed local bundle.
// DB_HOST, when set, replaces whatever host that source reports.
func credentialSource(cfg *config.Config) (database.CredentialSource, error) {
	source, err := baseSource(cfg)
	if err != nil || cfg.DBHost == "" {
		return source, err
	}
	slog.Info("overriding database host", "host", cfg.DBHost)
	return database.HostOverride{Source: source, Host: cfg.DBHost}, nil
}

func baseSource(cfg *config.Config) (database.CredentialSource, error) {
	if cfg.DatabaseURL != "" {
		bundle, err := database.ParseURL(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
		}
		return database.StaticSource{Bundle: bundle}, nil
	}

	if !cfg.IsProduction() {
		return database.StaticSource{Bundle: database.DevelopmentBundle}, nil
	}

	client, err := newK8sClient(cfg)
	if err != nil {
		return nil, err
	}
	slog.Info("reading database credentials from secret", "secret", cfg.SecretID)
	return database.NewSecretSource(client.NewManager(), cfg.SecretID)
}

func newK8sClient(cfg *config.Config) (*k8s.Client, error) {
	var opts []k8s.ClientOption
	if cfg.KubeconfigPath != "" {
		opts = append(opts, k8s.WithKubeconfig(cfg.KubeconfigPath))
	}
	return k8s.NewClient(opts...)
}
