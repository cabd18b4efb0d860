// Package middleware provides the HTTP middleware chain for the sentinel
// scheduler API: request identification, structured logging, Prometheus
// instrumentation, authentication, rate limiting, CORS, and security
// headers.
package middleware

import "context"

type contextKey int

const (
	requestIDContextKey contextKey = iota
	actorContextKey
)

// HTTP header names used across the middleware chain.
const (
	RequestIDHeader          = "X-Request-ID"
	AuthorizationHeader       = "Authorization"
	RateLimitLimitHeader      = "X-RateLimit-Limit"
	RateLimitRemainingHeader  = "X-RateLimit-Remaining"
	RateLimitResetHeader      = "X-RateLimit-Reset"
	APIVersionHeader          = "X-API-Version"
)

// GetRequestID extracts the request ID stashed by RequestIDMiddleware.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}
