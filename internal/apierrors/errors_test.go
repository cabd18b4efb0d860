package apierrors_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaaa08012006/decivue-sub004/internal/apierrors"
	"github.com/adityaaa08012006/decivue-sub004/internal/governance"
	"github.com/adityaaa08012006/decivue-sub004/internal/store"
)

func TestAPIError_StatusCode(t *testing.T) {
	tests := []struct {
		code   apierrors.ErrorCode
		status int
	}{
		{apierrors.CodeOK, http.StatusOK},
		{apierrors.CodeNotFound, http.StatusNotFound},
		{apierrors.CodeForbidden, http.StatusForbidden},
		{apierrors.CodeLocked, http.StatusConflict},
		{apierrors.CodeRequiresApproval, http.StatusAccepted},
		{apierrors.CodeRequiresJustification, http.StatusBadRequest},
		{apierrors.CodeCyclicDependency, http.StatusBadRequest},
		{apierrors.CodeTerminalState, http.StatusBadRequest},
		{apierrors.CodeConflict, http.StatusConflict},
		{apierrors.CodeStoreUnavailable, http.StatusServiceUnavailable},
		{apierrors.CodeWriteConflict, http.StatusConflict},
		{apierrors.CodeRateLimited, http.StatusTooManyRequests},
		{apierrors.CodeInternalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := apierrors.New(tt.code, "message")
			assert.Equal(t, tt.status, err.StatusCode())
		})
	}
}

func TestWriteError_SerializesResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	err := apierrors.NotFound("decision").WithRequestID("req-1")

	apierrors.WriteError(rec, err)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apierrors.CodeNotFound, body.Error.Code)
	assert.Equal(t, "req-1", body.Error.RequestID)
}

func TestFromGovernanceDecision(t *testing.T) {
	assert.Nil(t, apierrors.FromGovernanceDecision(governance.Allow, 10))

	cases := map[governance.Decision]apierrors.ErrorCode{
		governance.Deny:                  apierrors.CodeForbidden,
		governance.DenyLocked:            apierrors.CodeLocked,
		governance.RequiresApproval:      apierrors.CodeRequiresApproval,
		governance.RequiresJustification: apierrors.CodeRequiresJustification,
	}
	for decision, wantCode := range cases {
		got := apierrors.FromGovernanceDecision(decision, 10)
		require.NotNil(t, got)
		assert.Equal(t, wantCode, got.Code)
	}
}

func TestFromStoreError(t *testing.T) {
	assert.Nil(t, apierrors.FromStoreError(nil))

	notFound := apierrors.FromStoreError(store.ErrNotFound)
	require.NotNil(t, notFound)
	assert.Equal(t, apierrors.CodeNotFound, notFound.Code)

	cyclic := apierrors.FromStoreError(store.ErrCyclicDependency)
	require.NotNil(t, cyclic)
	assert.Equal(t, apierrors.CodeCyclicDependency, cyclic.Code)

	unknown := apierrors.FromStoreError(errors.New("connection reset"))
	require.NotNil(t, unknown)
	assert.Equal(t, apierrors.CodeStoreUnavailable, unknown.Code)
}
