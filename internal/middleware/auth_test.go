package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaaa08012006/decivue-sub004/internal/collaborators"
	"github.com/adityaaa08012006/decivue-sub004/internal/middleware"
)

type fakeIdentity struct {
	actor collaborators.Actor
	err   error
}

func (f fakeIdentity) Resolve(ctx context.Context, token string) (collaborators.Actor, error) {
	return f.actor, f.err
}

func TestAuth_RejectsMissingHeader(t *testing.T) {
	h := middleware.Auth(fakeIdentity{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuth_RejectsResolveFailure(t *testing.T) {
	h := middleware.Auth(fakeIdentity{err: errors.New("bad token")})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.AuthorizationHeader, "Bearer nope")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuth_ResolvedActorReachesHandler(t *testing.T) {
	actor := collaborators.Actor{UserID: "u1", Role: collaborators.RoleMember, OrganizationID: "org-a"}
	var got collaborators.Actor
	var ok bool
	h := middleware.Auth(fakeIdentity{actor: actor})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = middleware.ActorFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.AuthorizationHeader, "Bearer token")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, ok)
	assert.Equal(t, actor, got)
}

func TestRequireRole_RejectsNonLead(t *testing.T) {
	member := collaborators.Actor{UserID: "u1", Role: collaborators.RoleMember}
	h := middleware.Auth(fakeIdentity{actor: member})(
		middleware.RequireRole(collaborators.RoleLead)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be reached")
		})),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.AuthorizationHeader, "Bearer token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRole_AllowsLead(t *testing.T) {
	lead := collaborators.Actor{UserID: "u1", Role: collaborators.RoleLead}
	reached := false
	h := middleware.Auth(fakeIdentity{actor: lead})(
		middleware.RequireRole(collaborators.RoleLead)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
		})),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.AuthorizationHeader, "Bearer token")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, reached)
}
