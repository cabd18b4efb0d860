package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaaa08012006/decivue-sub004/internal/collaborators"
	"github.com/adityaaa08012006/decivue-sub004/internal/domain"
	"github.com/adityaaa08012006/decivue-sub004/internal/governance"
	"github.com/adityaaa08012006/decivue-sub004/internal/history"
	"github.com/adityaaa08012006/decivue-sub004/internal/identity"
	"github.com/adityaaa08012006/decivue-sub004/internal/middleware"
)

const testOrg = "org-1"

func newTestHandlers(fs *fakeStore) *DecisionHandlers {
	return &DecisionHandlers{
		Store:    fs,
		Workflow: governance.New(fs),
		Recorder: history.New(fs),
	}
}

// withActor wraps handler behind the real Auth middleware so
// middleware.ActorFromContext resolves exactly as it would in production.
func withActor(t *testing.T, actor collaborators.Actor, handler http.HandlerFunc) http.Handler {
	t.Helper()
	resolver := identity.New(map[string]collaborators.Actor{"test-token": actor})
	return middleware.Auth(resolver)(handler)
}

func doRequest(t *testing.T, handler http.Handler, method, path string, vars map[string]string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(middleware.AuthorizationHeader, "Bearer test-token")
	req = mux.SetURLVars(req, vars)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGetDecision_NotFound(t *testing.T) {
	fs := newFakeStore()
	h := newTestHandlers(fs)
	lead := collaborators.Actor{UserID: "u1", Role: collaborators.RoleLead, OrganizationID: testOrg}

	handler := withActor(t, lead, h.GetDecision)
	rec := doRequest(t, handler, http.MethodGet, "/decisions/missing", map[string]string{"org": testOrg, "id": "missing"}, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDecision_Found(t *testing.T) {
	fs := newFakeStore()
	fs.decisions[testOrg+":d1"] = domain.Decision{ID: "d1", Organization: testOrg, Title: "ship it"}
	h := newTestHandlers(fs)
	lead := collaborators.Actor{UserID: "u1", Role: collaborators.RoleLead, OrganizationID: testOrg}

	handler := withActor(t, lead, h.GetDecision)
	rec := doRequest(t, handler, http.MethodGet, "/decisions/d1", map[string]string{"org": testOrg, "id": "d1"}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ship it", got.Title)
}

func TestCreateDecision_Defaults(t *testing.T) {
	fs := newFakeStore()
	h := newTestHandlers(fs)
	member := collaborators.Actor{UserID: "u2", Role: collaborators.RoleMember, OrganizationID: testOrg}

	handler := withActor(t, member, h.CreateDecision)
	rec := doRequest(t, handler, http.MethodPost, "/decisions", map[string]string{"org": testOrg}, createDecisionRequest{
		Title: "adopt postgres",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	var got domain.Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, domain.LifecycleStable, got.Lifecycle)
	assert.Equal(t, 100, got.HealthSignal)
	assert.Equal(t, domain.TierStandard, got.GovernanceTier)
	assert.Equal(t, 30, got.ReviewFrequencyDays)
	assert.Equal(t, "u2", got.Creator)
	assert.NotEmpty(t, got.ID)

	_, ok := fs.decisions[testOrg+":"+got.ID]
	assert.True(t, ok, "decision should be persisted")
}

func TestCreateDecision_ValidationError(t *testing.T) {
	fs := newFakeStore()
	h := newTestHandlers(fs)
	member := collaborators.Actor{UserID: "u2", Role: collaborators.RoleMember, OrganizationID: testOrg}

	handler := withActor(t, member, h.CreateDecision)
	rec := doRequest(t, handler, http.MethodPost, "/decisions", map[string]string{"org": testOrg}, createDecisionRequest{
		Title: "",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEditDecision_AllowedDirectly(t *testing.T) {
	fs := newFakeStore()
	fs.decisions[testOrg+":d1"] = domain.Decision{
		ID: "d1", Organization: testOrg, Title: "old title", GovernanceMode: false,
	}
	h := newTestHandlers(fs)
	member := collaborators.Actor{UserID: "u2", Role: collaborators.RoleMember, OrganizationID: testOrg}

	handler := withActor(t, member, h.EditDecision)
	rec := doRequest(t, handler, http.MethodPatch, "/decisions/d1", map[string]string{"org": testOrg, "id": "d1"}, editDecisionRequest{
		Title: "new title",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "new title", fs.decisions[testOrg+":d1"].Title)
}

func TestEditDecision_RequiresApprovalRaisesRequest(t *testing.T) {
	fs := newFakeStore()
	fs.decisions[testOrg+":d1"] = domain.Decision{
		ID: "d1", Organization: testOrg, Title: "old title",
		GovernanceMode: true, RequiresSecondReviewer: true,
	}
	h := newTestHandlers(fs)
	member := collaborators.Actor{UserID: "u2", Role: collaborators.RoleMember, OrganizationID: testOrg}

	handler := withActor(t, member, h.EditDecision)
	rec := doRequest(t, handler, http.MethodPatch, "/decisions/d1", map[string]string{"org": testOrg, "id": "d1"}, editDecisionRequest{
		Title: "new title",
	})

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Len(t, fs.auditEntries, 1)
	assert.Equal(t, "old title", fs.decisions[testOrg+":d1"].Title, "direct edit must not apply when approval is required")
}

func TestEditDecision_TerminalStateRejected(t *testing.T) {
	fs := newFakeStore()
	fs.decisions[testOrg+":d1"] = domain.Decision{ID: "d1", Organization: testOrg, Lifecycle: domain.LifecycleRetired}
	h := newTestHandlers(fs)
	lead := collaborators.Actor{UserID: "u1", Role: collaborators.RoleLead, OrganizationID: testOrg}

	handler := withActor(t, lead, h.EditDecision)
	rec := doRequest(t, handler, http.MethodPatch, "/decisions/d1", map[string]string{"org": testOrg, "id": "d1"}, editDecisionRequest{
		Title: "resurrect",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLockUnlockDecision(t *testing.T) {
	fs := newFakeStore()
	fs.decisions[testOrg+":d1"] = domain.Decision{ID: "d1", Organization: testOrg}
	h := newTestHandlers(fs)
	lead := collaborators.Actor{UserID: "u1", Role: collaborators.RoleLead, OrganizationID: testOrg}

	lockHandler := withActor(t, lead, h.LockDecision)
	rec := doRequest(t, lockHandler, http.MethodPost, "/decisions/d1/lock", map[string]string{"org": testOrg, "id": "d1"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, fs.decisions[testOrg+":d1"].Locked())

	unlockHandler := withActor(t, lead, h.UnlockDecision)
	rec = doRequest(t, unlockHandler, http.MethodPost, "/decisions/d1/unlock", map[string]string{"org": testOrg, "id": "d1"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, fs.decisions[testOrg+":d1"].Locked())
}

func TestLockDecision_RejectsNonLead(t *testing.T) {
	fs := newFakeStore()
	fs.decisions[testOrg+":d1"] = domain.Decision{ID: "d1", Organization: testOrg}
	h := newTestHandlers(fs)
	member := collaborators.Actor{UserID: "u2", Role: collaborators.RoleMember, OrganizationID: testOrg}

	handler := withActor(t, member, h.LockDecision)
	rec := doRequest(t, handler, http.MethodPost, "/decisions/d1/lock", map[string]string{"org": testOrg, "id": "d1"}, nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, fs.decisions[testOrg+":d1"].Locked())
}

func TestLinkUnlinkDependency(t *testing.T) {
	fs := newFakeStore()
	h := newTestHandlers(fs)
	lead := collaborators.Actor{UserID: "u1", Role: collaborators.RoleLead, OrganizationID: testOrg}

	linkHandler := withActor(t, lead, h.LinkDependency)
	rec := doRequest(t, linkHandler, http.MethodPost, "/decisions/d1/dependencies", map[string]string{"org": testOrg, "id": "d1"}, linkDependencyRequest{
		TargetID: "11111111-1111-1111-1111-111111111111",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	unlinkHandler := withActor(t, lead, h.UnlinkDependency)
	rec = doRequest(t, unlinkHandler, http.MethodDelete, "/decisions/d1/dependencies/d2", map[string]string{"org": testOrg, "id": "d1", "targetId": "d2"}, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
