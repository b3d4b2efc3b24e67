package todo

import "context"

// Repository provides CRUD operations on the todolist table. Every method issues
// exactly one statement.
type Repository interface {
	List(ctx context.Context) ([]Todo, error)
	// GetByID returns nil without error when no row has the id.
	GetByID(ctx context.Context, id int64) (*Todo, error)
	Create(ctx context.Context, in Input) (*Todo, error)
	// Update overwrites every mutable field. It returns nil without error when no row has the id.
	Update(ctx context.Context, id int64, in Input) (*Todo, error)
	// Delete returns the number of rows removed; zero is not an error.
	Delete(ctx context.Context, id int64) (int64, error)
}
