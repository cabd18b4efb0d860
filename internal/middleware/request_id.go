package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestID generates or propagates a request ID, making it available to
// later handlers via GetRequestID and echoing it back in the response
// header so clients can correlate retries with server-side logs.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), requestIDContextKey, requestID)
		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
