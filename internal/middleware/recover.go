package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"portfolio-api/internal/httputil"
)

// Recover turns a handler panic into a 500 envelope.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.ErrorContext(r.Context(), "panic recovered",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				httputil.RespondWithError(w, http.StatusInternalServerError, "Server error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}
