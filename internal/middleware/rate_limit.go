package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/adityaaa08012006/decivue-sub004/internal/apierrors"
)

// RateLimiter hands out a token bucket per client, keyed by the resolved
// actor's user ID where available, falling back to the source IP.
type RateLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// NewRateLimiter builds a limiter allowing requestsPerMinute sustained
// throughput per client, with burst capacity for short spikes.
func NewRateLimiter(requestsPerMinute, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:    burst,
	}
}

func (rl *RateLimiter) limiterFor(clientID string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	l, ok := rl.limiters[clientID]
	if !ok {
		l = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[clientID] = l
	}
	return l
}

// Cleanup drops limiters sitting at a full bucket, i.e. clients that
// haven't made a request since the bucket last topped off. Callers should
// run this periodically (cmd/server ticks it every few minutes) so a
// long-lived process doesn't accumulate one limiter per ever-seen client.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := time.Now()
	for key, l := range rl.limiters {
		if l.TokensAt(now) == float64(rl.burst) {
			delete(rl.limiters, key)
		}
	}
}

// RateLimit enforces per-client request throughput, returning 429 with
// Retry-After once a client's bucket is exhausted.
func RateLimit(requestsPerMinute, burst int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(requestsPerMinute, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := rateLimitClientID(r)

			w.Header().Set(RateLimitLimitHeader, strconv.Itoa(requestsPerMinute))

			if !limiter.limiterFor(clientID).Allow() {
				w.Header().Set(RateLimitRemainingHeader, "0")
				w.Header().Set(RateLimitResetHeader, strconv.FormatInt(time.Now().Add(time.Minute).Unix(), 10))
				w.Header().Set("Retry-After", "60")
				apierrors.WriteError(w, apierrors.RateLimited().WithRequestID(GetRequestID(r.Context())))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitClientID(r *http.Request) string {
	if actor, ok := ActorFromContext(r.Context()); ok {
		return actor.UserID
	}
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
