package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaaa08012006/decivue-sub004/internal/domain"
)

func TestRouter_PublicRoutesNeedNoAuth(t *testing.T) {
	fs := newFakeStore()
	router := NewRouter(RouterConfig{Handlers: newTestHandlers(fs)})

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.NotEqual(t, http.StatusNotFound, rec.Code, "route %s should be registered", path)
	}
}

func TestRouter_OrganizationRoutesResolve(t *testing.T) {
	fs := newFakeStore()
	fs.decisions[testOrg+":d1"] = domain.Decision{ID: "d1", Organization: testOrg, Title: "ship it"}
	router := NewRouter(RouterConfig{Handlers: newTestHandlers(fs)})

	req := httptest.NewRequest(http.MethodGet, "/organizations/"+testOrg+"/decisions/d1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_UnknownMethodNotAllowed(t *testing.T) {
	fs := newFakeStore()
	router := NewRouter(RouterConfig{Handlers: newTestHandlers(fs)})

	req := httptest.NewRequest(http.MethodPut, "/organizations/"+testOrg+"/decisions/d1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
