package middleware

import (
	"log/slog"
	"net/http"

	"github.com/adityaaa08012006/decivue-sub004/internal/collaborators"
)

// ChainConfig assembles the standard middleware stack cmd/server wraps
// every route with. Any field left at its zero value disables that layer,
// letting the lite profile (single user, no network exposure) run with a
// thinner chain than the standard profile.
type ChainConfig struct {
	Logger   *slog.Logger
	Metrics  *Metrics
	Identity collaborators.Identity // nil disables Auth

	CORSConfig CORSConfig // zero value disables CORS

	RateLimitPerMinute int // 0 disables rate limiting
	RateLimitBurst     int

	EnableCompression     bool
	EnableSecurityHeaders bool
	MaxBodyBytes          int64 // 0 disables the BodySize check
}

// Chain composes the full middleware stack around handler in the order
// that keeps recovery outermost and auth closest to the handler:
//
//  1. Recovery    - catches panics from everything below
//  2. RequestID   - stamps a correlation ID before anything logs
//  3. Logging     - one line per request
//  4. Metrics     - Prometheus counters/histograms, if configured
//  5. SecurityHeaders
//  6. CORS
//  7. Compression
//  8. RateLimit   - ahead of Auth so abusive clients never reach it
//  9. Auth        - resolves the actor, if an Identity is configured
func Chain(cfg ChainConfig, route string, handler http.Handler) http.Handler {
	h := handler

	if cfg.Identity != nil {
		h = Auth(cfg.Identity)(h)
	}
	if cfg.RateLimitPerMinute > 0 {
		h = RateLimit(cfg.RateLimitPerMinute, cfg.RateLimitBurst)(h)
	}
	if cfg.EnableCompression {
		h = Compression(h)
	}
	if len(cfg.CORSConfig.AllowedOrigins) > 0 {
		h = CORS(cfg.CORSConfig)(h)
	}
	if cfg.EnableSecurityHeaders {
		h = NewSecurityHeadersMiddleware(nil).Handler(h)
	}
	if cfg.MaxBodyBytes > 0 {
		h = BodySize(cfg.MaxBodyBytes)(h)
	}
	if cfg.Metrics != nil {
		h = cfg.Metrics.Instrument(route, h)
	}
	if cfg.Logger != nil {
		h = Logging(cfg.Logger)(h)
	}
	h = RequestID(h)
	h = Recovery(cfg.Logger)(h)

	return h
}

// DefaultChainConfig returns sane defaults for the standard profile:
// security headers and compression on, a generous per-client rate limit,
// and permissive CORS that a production deployment should tighten.
func DefaultChainConfig(logger *slog.Logger, metrics *Metrics, identity collaborators.Identity) ChainConfig {
	return ChainConfig{
		Logger:                logger,
		Metrics:               metrics,
		Identity:              identity,
		CORSConfig:            DefaultCORSConfig(),
		RateLimitPerMinute:    600,
		RateLimitBurst:        60,
		EnableCompression:     true,
		EnableSecurityHeaders: true,
		MaxBodyBytes:          1 << 20,
	}
}
