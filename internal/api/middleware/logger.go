package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// RequestLogger logs one record per request once the handler returns. The combined
// form adds the client address, user agent and referer. A panic that
// escapes the handler is logged as a 500 and re-raised.
func RequestLogger(combined bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				rec := recover()

				status := ww.Status()
				switch {
				case rec != nil:
					status = http.StatusInternalServerError
				case status == 0:
					status = http.StatusOK
				}

				attrs := append(requestAttrs(r),
					"status", status,
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start).String(),
				)
				if combined {
					attrs = append(attrs,
						"remote", r.RemoteAddr,
						"userAgent", r.UserAgent(),
						"referer", r.Referer(),
					)
				}
				slog.Info("request", attrs...)

				if rec != nil {
					panic(rec)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
