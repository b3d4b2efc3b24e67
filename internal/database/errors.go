package database

import "errors"

// Error kinds reported by executors. Callers match them with errors.Is.
var (
	// ErrNotInitialized is returned when a query runs before the pool exists.
	ErrNotInitialized = errors.New("pool was not created; ensure the pool is created when running the app")

	// ErrConnectFailed is returned when credentials cannot be resolved or the pool cannot be built.
	ErrConnectFailed = errors.New("failed to connect database")

	// ErrConnectionUnavailable is returned when no connection could be obtained.
	ErrConnectionUnavailable = errors.New("database connection unavailable")

	// ErrConstraintViolation is returned when the database rejects a row.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrQueryFailed covers every other statement failure.
	ErrQueryFailed = errors.New("failed query")
)

// Error is a classified database failure. Its message is the kind's message only;
// the driver error stays reachable through errors.As/Is for server-side logging.
type Error struct {
	Kind  error
	Cause error
}

func newError(kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

func (e *Error) Error() string {
	return e.Kind.Error()
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}
