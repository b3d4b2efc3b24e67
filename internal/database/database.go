package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Row is one result record keyed by column name.
type Row = map[string]any

// Result holds the rows a statement returned and the number of rows it affected.
type Result struct {
	Rows     []Row
	RowCount int64
}

// Executor runs a single parameterized statement.
type Executor interface {
	Execute(ctx context.Context, query string, args ...any) (*Result, error)
}

// Manager owns the process-wide PostgreSQL connection pool.
type Manager struct {
	source   CredentialSource
	maxConns int32
	pool     atomic.Pointer[pgxpool.Pool]
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxConns bounds the number of pooled connections.
func WithMaxConns(n int32) Option {
	return func(m *Manager) {
		m.maxConns = n
	}
}

// NewManager creates a Manager that resolves credentials from source on Initialize.
// No connection is opened until Initialize is called.
func NewManager(source CredentialSource, opts ...Option) *Manager {
	m := &Manager{source: source}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize resolves the credential bundle and creates the connection pool.
// Every failure is reported as ErrConnectFailed; the cause is logged.
func (m *Manager) Initialize(ctx context.Context) error {
	bundle, err := m.source.Resolve(ctx)
	if err != nil {
		slog.Error("resolving database credentials", "error", err)
		return newError(ErrConnectFailed, fmt.Errorf("resolving credentials: %w", err))
	}

	poolCfg, err := pgxpool.ParseConfig(bundle.ConnString())
	if err != nil {
		slog.Error("parsing database connection config", "error", err)
		return newError(ErrConnectFailed, fmt.Errorf("parsing connection config: %w", err))
	}
	if m.maxConns > 0 {
		poolCfg.MaxConns = m.maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		slog.Error("creating connection pool", "error", err)
		return newError(ErrConnectFailed, fmt.Errorf("creating connection pool: %w", err))
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		slog.Error("pinging database", "error", err, "host", bundle.Host, "database", bundle.DBName)
		return newError(ErrConnectFailed, fmt.Errorf("pinging database: %w", err))
	}

	if old := m.pool.Swap(pool); old != nil {
		old.Close()
	}

	slog.Info("database pool initialized",
		"host", bundle.Host,
		"database", bundle.DBName,
		"user", bundle.Username,
		"maxConns", poolCfg.MaxConns,
	)
	return nil
}

// Initialized reports whether the pool has been created.
func (m *Manager) Initialized() bool {
	return m.pool.Load() != nil
}

// Execute borrows one connection, runs query with args and returns the connection
// to the pool before returning, on the error path too.
func (m *Manager) Execute(ctx context.Context, query string, args ...any) (*Result, error) {
	pool := m.pool.Load()
	if pool == nil {
		slog.Error("query attempted before the pool was created")
		return nil, newError(ErrNotInitialized, nil)
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		slog.Error("acquiring database connection", "error", err)
		return nil, newError(ErrConnectionUnavailable, err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, failQuery(query, err)
	}

	records, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, failQuery(query, err)
	}
	if records == nil {
		records = []Row{}
	}

	return &Result{
		Rows:     records,
		RowCount: rows.CommandTag().RowsAffected(),
	}, nil
}

// Ping verifies the database connection is alive.
func (m *Manager) Ping(ctx context.Context) error {
	pool := m.pool.Load()
	if pool == nil {
		return newError(ErrNotInitialized, nil)
	}
	return pool.Ping(ctx)
}

// Close closes the connection pool. It is safe to call on an uninitialized Manager.
func (m *Manager) Close() {
	if pool := m.pool.Swap(nil); pool != nil {
		pool.Close()
	}
}

func failQuery(query string, err error) error {
	kind := classifyPostgres(err)
	slog.Error("query failed", "error", err, "kind", kind.Error(), "query", compact(query))
	return newError(kind, err)
}

func classifyPostgres(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 23: integrity constraint violation
		if strings.HasPrefix(pgErr.Code, "23") {
			return ErrConstraintViolation
		}
		return ErrQueryFailed
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) || pgconn.Timeout(err) {
		return ErrConnectionUnavailable
	}

	return ErrQueryFailed
}

func compact(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
