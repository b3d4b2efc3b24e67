package todo

// Todo represents a row in the todolist table.
type Todo struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Completed   bool    `json:"completed"`
}

// Input carries the client-supplied fields of a create or update. Nil fields are
// sent to the database as NULL, so required columns are enforced there.
type Input struct {
	Name        *string
	Description *string
	Completed   *bool
}
