package todo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/daap14/todolist/internal/database"
)

// Dialect selects the DDL flavour for EnsureSchema.
type Dialect string

// Supported dialects.
const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

var schemas = map[Dialect]string{
	DialectPostgres: `
		CREATE TABLE IF NOT EXISTS todolist (
			id          SERIAL PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT,
			completed   BOOLEAN NOT NULL DEFAULT false
		)`,
	DialectSQLite: `
		CREATE TABLE IF NOT EXISTS todolist (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			name        TEXT NOT NULL,
			description TEXT,
			completed   BOOLEAN NOT NULL DEFAULT FALSE
		)`,
}

// EnsureSchema creates the todolist table if it does not exist yet.
func EnsureSchema(ctx context.Context, exec database.Executor, dialect Dialect) error {
	ddl, ok := schemas[dialect]
	if !ok {
		return fmt.Errorf("unsupported dialect %q", dialect)
	}

	if _, err := exec.Execute(ctx, ddl); err != nil {
		return fmt.Errorf("creating todolist table: %w", err)
	}

	slog.Info("todolist schema ensured", "dialect", string(dialect))
	return nil
}
