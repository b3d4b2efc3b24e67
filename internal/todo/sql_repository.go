package todo

import (
	"context"
	"fmt"

	"github.com/daap14/todolist/internal/database"
)

const (
	listQuery = `SELECT * FROM todolist`

	getQuery = `SELECT * FROM todolist WHERE id = $1`

	createQuery = `
		INSERT INTO todolist (name, description, completed)
		VALUES ($1, $2, $3)
		RETURNING id, name, description, completed`

	updateQuery = `
		UPDATE todolist
		SET name = $2,
		    description = $3,
		    completed = $4
		WHERE id = $1
		RETURNING id, name, description, completed`

	deleteQuery = `DELETE FROM todolist WHERE id = $1`
)

// SQLRepository implements Repository on top of a database.Executor.
type SQLRepository struct {
	exec database.Executor
}

// NewRepository creates a new Repository that runs its statements through exec.
func NewRepository(exec database.Executor) Repository {
	return &SQLRepository{exec: exec}
}

// List retrieves every todo.
func (r *SQLRepository) List(ctx context.Context) ([]Todo, error) {
	res, err := r.exec.Execute(ctx, listQuery)
	if err != nil {
		return nil, fmt.Errorf("listing todos: %w", err)
	}

	todos := make([]Todo, 0, len(res.Rows))
	for _, row := range res.Rows {
		t, err := fromRow(row)
		if err != nil {
			return nil, fmt.Errorf("listing todos: %w", err)
		}
		todos = append(todos, t)
	}
	return todos, nil
}

// GetByID retrieves a single todo by id.
func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*Todo, error) {
	res, err := r.exec.Execute(ctx, getQuery, id)
	if err != nil {
		return nil, fmt.Errorf("querying todo %d: %w", id, err)
	}
	return firstRow(res)
}

// Create inserts a todo and returns the stored row, including its generated id.
func (r *SQLRepository) Create(ctx context.Context, in Input) (*Todo, error) {
	res, err := r.exec.Execute(ctx, createQuery, in.Name, in.Description, in.Completed)
	if err != nil {
		return nil, fmt.Errorf("inserting todo: %w", err)
	}

	t, err := firstRow(res)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("inserting todo: no row returned")
	}
	return t, nil
}

// Update replaces name, description and completed of the todo with the given id.
func (r *SQLRepository) Update(ctx context.Context, id int64, in Input) (*Todo, error) {
	res, err := r.exec.Execute(ctx, updateQuery, id, in.Name, in.Description, in.Completed)
	if err != nil {
		return nil, fmt.Errorf("updating todo %d: %w", id, err)
	}
	return firstRow(res)
}

// Delete removes the todo with the given id.
func (r *SQLRepository) Delete(ctx context.Context, id int64) (int64, error) {
	res, err := r.exec.Execute(ctx, deleteQuery, id)
	if err != nil {
		return 0, fmt.Errorf("deleting todo %d: %w", id, err)
	}
	return res.RowCount, nil
}

func firstRow(res *database.Result) (*Todo, error) {
	if len(res.Rows) == 0 {
		return nil, nil
	}
	t, err := fromRow(res.Rows[0])
	if err != nil {
		return nil, err
	}
	return &t, nil
}
