package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/adityaaa08012006/decivue-sub004/internal/apierrors"
)

// Recovery catches a panic from any downstream handler, logs it with a
// stack trace, and returns a 500 instead of letting net/http close the
// connection with no response body. Must be the outermost middleware in
// the chain so nothing below it can panic past it.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						"request_id", GetRequestID(r.Context()),
						"error", rec,
						"stack", string(debug.Stack()),
						"method", r.Method,
						"path", r.URL.Path,
					)
					apierrors.WriteError(w, apierrors.Internal("an internal error occurred").WithRequestID(GetRequestID(r.Context())))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
