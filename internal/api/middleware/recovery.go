package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/daap14/todolist/internal/api/response"
)

// Recovery turns a handler panic into a 500 {"message"} reply. It must sit inside
// RequestLogger so the request record reports the 500. http.ErrAbortHandler is
// re-raised so net/http can abort the connection.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			attrs := append(requestAttrs(r), "panic", rec, "stack", string(debug.Stack()))
			slog.Error("panic recovered", attrs...)
			response.Err(w, http.StatusInternalServerError, "An unexpected error occurred")
		}()
		next.ServeHTTP(w, r)
	})
}
