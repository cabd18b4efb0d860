// Package api assembles the HTTP surface over the governance core: decision
// CRUD, governance workflow actions, dependency linking, review, and the
// scheduler's manual evaluate-now trigger. Handlers talk only to
// collaborators.Store and the core packages (governance, engine, history,
// propagation, scheduler) — never to a concrete store implementation.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/adityaaa08012006/decivue-sub004/internal/apierrors"
	"github.com/adityaaa08012006/decivue-sub004/internal/collaborators"
	"github.com/adityaaa08012006/decivue-sub004/internal/engine"
	"github.com/adityaaa08012006/decivue-sub004/internal/governance"
	"github.com/adityaaa08012006/decivue-sub004/internal/history"
	"github.com/adityaaa08012006/decivue-sub004/internal/middleware"
	"github.com/adityaaa08012006/decivue-sub004/internal/propagation"
	"github.com/adityaaa08012006/decivue-sub004/internal/scheduler"
	"github.com/adityaaa08012006/decivue-sub004/internal/store"
)

// DecisionHandlers wires the HTTP layer to the governance core.
type DecisionHandlers struct {
	Store       collaborators.Store
	Workflow    *governance.Workflow
	Engine      *engine.Engine
	Recorder    *history.Recorder
	Propagator  *propagation.Coordinator
	Scheduler   *scheduler.Scheduler
	Notifier    collaborators.Notifier
	Logger      *slog.Logger
}

func (h *DecisionHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (h *DecisionHandlers) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	if errors.Is(err, store.ErrNotFound) {
		apierrors.WriteError(w, apierrors.NotFound("decision").WithRequestID(requestID))
		return
	}
	if errors.Is(err, store.ErrCyclicDependency) {
		apierrors.WriteError(w, apierrors.CyclicDependency().WithRequestID(requestID))
		return
	}
	h.logger().Error("store operation failed", "request_id", requestID, "error", err)
	apierrors.WriteError(w, apierrors.StoreUnavailable("a storage operation failed").WithRequestID(requestID))
}

// governanceDecisionToError maps a governance.Decision exit code to the
// matching APIError, or nil for governance.Allow.
func governanceDecisionToError(d governance.Decision, minJustificationLength int) *apierrors.APIError {
	switch d {
	case governance.Allow:
		return nil
	case governance.DenyLocked:
		return apierrors.Locked("this decision is locked")
	case governance.Deny:
		return apierrors.Forbidden("you may not edit this decision")
	case governance.RequiresApproval:
		return apierrors.RequiresApproval("this edit requires lead approval")
	case governance.RequiresJustification:
		return apierrors.RequiresJustification(minJustificationLength)
	default:
		return apierrors.Internal("unknown governance decision")
	}
}

// actorOrgID returns the actor's organization, falling back to the
// {org} path variable for callers that never configured Identity (tests,
// local dev without auth enabled).
func actorOrgID(r *http.Request, pathOrgID string) string {
	if actor, ok := middleware.ActorFromContext(r.Context()); ok && actor.OrganizationID != "" {
		return actor.OrganizationID
	}
	return pathOrgID
}

func newID() string { return uuid.New().String() }
