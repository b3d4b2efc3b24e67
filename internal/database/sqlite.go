package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var placeholderPattern = regexp.MustCompile(`\$(\d+)`)

// SQLiteExecutor runs statements against an embedded SQLite database. It accepts
// the same $N placeholders as PostgreSQL.
type SQLiteExecutor struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens the SQLite database at path. maxConns bounds the pool when > 0.
func OpenSQLite(ctx context.Context, path string, maxConns int) (*SQLiteExecutor, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, newError(ErrConnectFailed, fmt.Errorf("opening sqlite database: %w", err))
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, newError(ErrConnectFailed, fmt.Errorf("pinging sqlite database: %w", err))
	}

	slog.Debug("sqlite database opened", "path", path)
	return &SQLiteExecutor{db: db, path: path}, nil
}

// Execute borrows one connection for the statement and returns it before returning.
func (e *SQLiteExecutor) Execute(ctx context.Context, query string, args ...any) (*Result, error) {
	conn, err := e.db.Conn(ctx)
	if err != nil {
		slog.Error("acquiring sqlite connection", "error", err)
		return nil, newError(ErrConnectionUnavailable, err)
	}
	defer conn.Close()

	stmt := placeholderPattern.ReplaceAllString(query, "?$1")

	rows, err := conn.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, failSQLite(query, err)
	}
	records, err := scanRows(rows)
	if err != nil {
		return nil, failSQLite(query, err)
	}

	count := int64(len(records))
	if !isSelect(stmt) {
		if err := conn.QueryRowContext(ctx, "SELECT changes()").Scan(&count); err != nil {
			return nil, failSQLite(query, err)
		}
	}

	return &Result{Rows: records, RowCount: count}, nil
}

// Close closes the underlying database handle.
func (e *SQLiteExecutor) Close() error {
	return e.db.Close()
}

// Ping verifies the database is reachable.
func (e *SQLiteExecutor) Ping(ctx context.Context) error {
	return e.db.PingContext(ctx)
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	records := []Row{}
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		record := make(Row, len(columns))
		for i, col := range columns {
			record[col] = values[i]
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return records, nil
}

func failSQLite(query string, err error) error {
	kind := ErrQueryFailed
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		kind = ErrConstraintViolation
	}
	slog.Error("query failed", "error", err, "kind", kind.Error(), "query", compact(query))
	return newError(kind, err)
}

func isSelect(stmt string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(stmt)), "SELECT")
}
