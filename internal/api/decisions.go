package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/adityaaa08012006/decivue-sub004/internal/apierrors"
	"github.com/adityaaa08012006/decivue-sub004/internal/domain"
	"github.com/adityaaa08012006/decivue-sub004/internal/governance"
	"github.com/adityaaa08012006/decivue-sub004/internal/middleware"
	"github.com/adityaaa08012006/decivue-sub004/internal/propagation"
)

const justificationMinLength = 10

// createDecisionRequest is the wire shape for POST /organizations/{org}/decisions.
type createDecisionRequest struct {
	Title                     string         `json:"title" validate:"required,max=300"`
	Description               string         `json:"description"`
	Category                  string         `json:"category"`
	Parameters                map[string]any `json:"parameters"`
	ExpiryDate                *time.Time     `json:"expiry_date"`
	GovernanceMode            bool           `json:"governance_mode"`
	GovernanceTier            string         `json:"governance_tier"`
	RequiresSecondReviewer    bool           `json:"requires_second_reviewer"`
	EditJustificationRequired bool           `json:"edit_justification_required"`
	ReviewFrequencyDays       int            `json:"review_frequency_days"`
}

// CreateDecision handles POST /organizations/{org}/decisions.
func (h *DecisionHandlers) CreateDecision(w http.ResponseWriter, r *http.Request) {
	orgID := actorOrgID(r, mux.Vars(r)["org"])
	requestID := middleware.GetRequestID(r.Context())

	var req createDecisionRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		apierrors.WriteError(w, apierrors.Validation(err.Error()).WithRequestID(requestID))
		return
	}

	actor, _ := middleware.ActorFromContext(r.Context())
	creator := actor.UserID
	if creator == "" {
		creator = "unknown"
	}

	tier := domain.GovernanceTier(req.GovernanceTier)
	if tier == "" {
		tier = domain.TierStandard
	}
	frequency := req.ReviewFrequencyDays
	if frequency <= 0 {
		frequency = 30
	}

	now := time.Now().UTC()
	d := domain.Decision{
		ID:                        newID(),
		Organization:              orgID,
		Creator:                   creator,
		Title:                     req.Title,
		Description:               req.Description,
		Category:                  req.Category,
		Parameters:                req.Parameters,
		Lifecycle:                 domain.LifecycleStable,
		HealthSignal:              100,
		CreatedAt:                 now,
		NeedsEvaluation:           true,
		ExpiryDate:                req.ExpiryDate,
		GovernanceMode:            req.GovernanceMode,
		GovernanceTier:            tier,
		RequiresSecondReviewer:    req.RequiresSecondReviewer,
		EditJustificationRequired: req.EditJustificationRequired,
		ReviewUrgencyScore:        50,
		ReviewFrequencyDays:       frequency,
	}

	if err := h.Store.SaveDecision(r.Context(), d); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	if _, err := h.Recorder.RecordCreation(r.Context(), d); err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, d)
}

// GetDecision handles GET /organizations/{org}/decisions/{id}.
func (h *DecisionHandlers) GetDecision(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	orgID := actorOrgID(r, vars["org"])

	d, err := h.Store.GetDecision(r.Context(), orgID, vars["id"])
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// editDecisionRequest is the wire shape for PATCH /organizations/{org}/decisions/{id}.
type editDecisionRequest struct {
	Title         string `json:"title" validate:"required,max=300"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	Justification string `json:"justification"`
}

// EditDecision handles PATCH /organizations/{org}/decisions/{id}. It applies
// governance.CanEdit and either edits directly, raises an approval request,
// or rejects, matching spec §4.5/§6.
func (h *DecisionHandlers) EditDecision(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	orgID := actorOrgID(r, vars["org"])
	requestID := middleware.GetRequestID(r.Context())

	var req editDecisionRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		apierrors.WriteError(w, apierrors.Validation(err.Error()).WithRequestID(requestID))
		return
	}

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		apierrors.WriteError(w, apierrors.Forbidden("authentication required").WithRequestID(requestID))
		return
	}

	d, err := h.Store.GetDecision(r.Context(), orgID, vars["id"])
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	if d.Lifecycle.Terminal() {
		apierrors.WriteError(w, apierrors.TerminalState(string(d.Lifecycle)).WithRequestID(requestID))
		return
	}

	// collaborators.Store has no "find the open request for this decision"
	// query, only lookup-by-request-id; a critical-tier second review is
	// therefore always treated as not yet pending here, and the actual
	// gate is re-checked when a lead calls ResolveEditRequest.
	decision := governance.CanEdit(*d, actor, req.Justification, false)
	proposed := domain.EditableSnapshot{Title: req.Title, Description: req.Description, Category: req.Category}

	switch decision {
	case governance.Allow:
		d.Title, d.Description, d.Category = req.Title, req.Description, req.Category
		if err := h.Store.SaveDecision(r.Context(), *d); err != nil {
			h.writeStoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	case governance.RequiresApproval, governance.RequiresJustification:
		apiErr := governanceDecisionToError(decision, justificationMinLength)
		if decision == governance.RequiresApproval {
			if _, err := h.Workflow.RequestEdit(r.Context(), orgID, d.ID, actor, req.Justification, proposed); err != nil {
				h.writeStoreError(w, r, err)
				return
			}
		}
		apierrors.WriteError(w, apiErr.WithRequestID(requestID))
	default:
		apierrors.WriteError(w, governanceDecisionToError(decision, justificationMinLength).WithRequestID(requestID))
	}
}

// resolveEditRequest is the wire shape for POST .../governance/requests/{requestId}/resolve.
type resolveEditRequest struct {
	Approve       bool   `json:"approve"`
	ReviewerNotes string `json:"reviewer_notes"`
}

// ResolveEditRequest handles POST /organizations/{org}/decisions/{id}/governance/requests/{requestId}/resolve.
func (h *DecisionHandlers) ResolveEditRequest(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	orgID := actorOrgID(r, vars["org"])
	requestID := middleware.GetRequestID(r.Context())

	var req resolveEditRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		apierrors.WriteError(w, apierrors.Validation(err.Error()).WithRequestID(requestID))
		return
	}

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		apierrors.WriteError(w, apierrors.Forbidden("authentication required").WithRequestID(requestID))
		return
	}

	entry, err := h.Store.GetGovernanceAuditEntry(r.Context(), orgID, vars["requestId"])
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	if err := h.Workflow.Resolve(r.Context(), orgID, *entry, actor, req.Approve, req.ReviewerNotes); err != nil {
		apierrors.WriteError(w, apierrors.Forbidden(err.Error()).WithRequestID(requestID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

// LockDecision handles POST /organizations/{org}/decisions/{id}/lock.
func (h *DecisionHandlers) LockDecision(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	orgID := actorOrgID(r, vars["org"])
	requestID := middleware.GetRequestID(r.Context())

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		apierrors.WriteError(w, apierrors.Forbidden("authentication required").WithRequestID(requestID))
		return
	}
	if err := h.Workflow.Lock(r.Context(), orgID, vars["id"], actor); err != nil {
		apierrors.WriteError(w, apierrors.Forbidden(err.Error()).WithRequestID(requestID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "locked"})
}

// UnlockDecision handles POST /organizations/{org}/decisions/{id}/unlock.
func (h *DecisionHandlers) UnlockDecision(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	orgID := actorOrgID(r, vars["org"])
	requestID := middleware.GetRequestID(r.Context())

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		apierrors.WriteError(w, apierrors.Forbidden("authentication required").WithRequestID(requestID))
		return
	}
	if err := h.Workflow.Unlock(r.Context(), orgID, vars["id"], actor); err != nil {
		apierrors.WriteError(w, apierrors.Forbidden(err.Error()).WithRequestID(requestID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unlocked"})
}

// LinkDependencyRequest is the wire shape for POST .../dependencies.
type linkDependencyRequest struct {
	TargetID string `json:"target_id" validate:"required,uuid"`
}

// LinkDependency handles POST /organizations/{org}/decisions/{id}/dependencies.
func (h *DecisionHandlers) LinkDependency(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	orgID := actorOrgID(r, vars["org"])
	requestID := middleware.GetRequestID(r.Context())

	var req linkDependencyRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		apierrors.WriteError(w, apierrors.Validation(err.Error()).WithRequestID(requestID))
		return
	}

	edge := domain.DependencyEdge{ID: newID(), Source: vars["id"], Target: req.TargetID}
	if err := h.Store.LinkDependency(r.Context(), edge); err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	if h.Propagator != nil {
		_ = h.Propagator.Apply(r.Context(), propagation.Event{
			Kind:             propagation.EventDependencyLinked,
			OrgID:            orgID,
			SourceDecisionID: vars["id"],
		})
	}

	writeJSON(w, http.StatusCreated, edge)
}

// UnlinkDependency handles DELETE /organizations/{org}/decisions/{id}/dependencies/{targetId}.
func (h *DecisionHandlers) UnlinkDependency(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	orgID := actorOrgID(r, vars["org"])

	if err := h.Store.UnlinkDependency(r.Context(), orgID, vars["id"], vars["targetId"]); err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	if h.Propagator != nil {
		_ = h.Propagator.Apply(r.Context(), propagation.Event{
			Kind:             propagation.EventDependencyUnlinked,
			OrgID:            orgID,
			SourceDecisionID: vars["id"],
		})
	}

	w.WriteHeader(http.StatusNoContent)
}

// Timeline handles GET /organizations/{org}/decisions/{id}/timeline.
func (h *DecisionHandlers) Timeline(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	orgID := actorOrgID(r, vars["org"])

	entries, err := h.Recorder.Timeline(r.Context(), orgID, vars["id"])
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// reviewDecisionRequest is the wire shape for POST .../review.
type reviewDecisionRequest struct {
	ReviewType     string  `json:"review_type" validate:"required"`
	Outcome        string  `json:"outcome" validate:"required"`
	Comment        string  `json:"comment"`
	DeferralReason string  `json:"deferral_reason"`
	NextReviewDays *int    `json:"next_review_days"`
}

// ReviewDecision handles POST /organizations/{org}/decisions/{id}/review.
func (h *DecisionHandlers) ReviewDecision(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	orgID := actorOrgID(r, vars["org"])
	requestID := middleware.GetRequestID(r.Context())

	var req reviewDecisionRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		apierrors.WriteError(w, apierrors.Validation(err.Error()).WithRequestID(requestID))
		return
	}

	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		apierrors.WriteError(w, apierrors.Forbidden("authentication required").WithRequestID(requestID))
		return
	}

	d, err := h.Store.GetDecision(r.Context(), orgID, vars["id"])
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	var nextReviewDate *time.Time
	if req.NextReviewDays != nil {
		t := time.Now().UTC().AddDate(0, 0, *req.NextReviewDays)
		nextReviewDate = &t
	}

	updated, err := h.Recorder.ReviewDecision(r.Context(), orgID, *d, actor,
		domain.ReviewType(req.ReviewType), domain.ReviewOutcome(req.Outcome),
		req.Comment, req.DeferralReason, nextReviewDate, time.Now().UTC())
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
