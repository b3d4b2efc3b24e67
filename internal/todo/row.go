package todo

import (
	"fmt"
	"strconv"

	"github.com/daap14/todolist/internal/database"
)

// fromRow maps a result row onto a Todo. Drivers disagree on integer widths and on
// how booleans come back (pgx returns bool, SQLite returns 0/1), so both are accepted.
func fromRow(row database.Row) (Todo, error) {
	var t Todo

	id, err := toInt64(row["id"])
	if err != nil {
		return Todo{}, fmt.Errorf("scanning todo id: %w", err)
	}
	t.ID = id

	name, err := toString(row["name"])
	if err != nil {
		return Todo{}, fmt.Errorf("scanning todo name: %w", err)
	}
	t.Name = name

	if v := row["description"]; v != nil {
		desc, err := toString(v)
		if err != nil {
			return Todo{}, fmt.Errorf("scanning todo description: %w", err)
		}
		t.Description = &desc
	}

	completed, err := toBool(row["completed"])
	if err != nil {
		return Todo{}, fmt.Errorf("scanning todo completed: %w", err)
	}
	t.Completed = completed

	return t, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	case string:
		return strconv.ParseInt(n, 10, 64)
	}
	return 0, fmt.Errorf("unexpected type %T", v)
}

func toString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	}
	return "", fmt.Errorf("unexpected type %T", v)
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case int64:
		return b != 0, nil
	case int32:
		return b != 0, nil
	case int:
		return b != 0, nil
	case nil:
		return false, nil
	}
	return false, fmt.Errorf("unexpected type %T", v)
}
