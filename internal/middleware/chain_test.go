package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adityaaa08012006/decivue-sub004/internal/middleware"
)

func TestChain_RecoversPanicFromInnerHandler(t *testing.T) {
	cfg := middleware.DefaultChainConfig(nil, nil, nil)
	h := middleware.Chain(cfg, "/test", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChain_AppliesSecurityHeadersAndRequestID(t *testing.T) {
	cfg := middleware.DefaultChainConfig(nil, nil, nil)
	h := middleware.Chain(cfg, "/test", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestChain_WithoutIdentitySkipsAuth(t *testing.T) {
	cfg := middleware.DefaultChainConfig(nil, nil, nil)
	reached := false
	h := middleware.Chain(cfg, "/test", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.True(t, reached)
}
