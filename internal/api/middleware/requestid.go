package middleware

import (
	"context"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestID stores the caller's X-Request-ID, or a fresh UUID, under chi's request id
// key and echoes it back in the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), chimiddleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the id stored by RequestID, or "" outside a request.
func GetRequestID(ctx context.Context) string {
	return chimiddleware.GetReqID(ctx)
}

// requestAttrs are the fields every per-request log record starts with.
func requestAttrs(r *http.Request) []any {
	return []any{
		"method", r.Method,
		"path", r.URL.Path,
		"requestId", GetRequestID(r.Context()),
	}
}
