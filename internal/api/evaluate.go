package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/adityaaa08012006/decivue-sub004/internal/apierrors"
	"github.com/adityaaa08012006/decivue-sub004/internal/middleware"
)

// TriggerEvaluation handles POST /organizations/{org}/evaluate-now: runs one
// scheduler batch synchronously for the organization, outside the regular
// tick interval. Intended for operator use (e.g. right after a bulk
// assumption import), not for routine client traffic.
func (h *DecisionHandlers) TriggerEvaluation(w http.ResponseWriter, r *http.Request) {
	orgID := actorOrgID(r, mux.Vars(r)["org"])
	requestID := middleware.GetRequestID(r.Context())

	result, err := h.Scheduler.RunEvaluationBatch(r.Context(), orgID, time.Now().UTC())
	if err != nil {
		h.logger().Error("manual evaluation batch failed", "request_id", requestID, "organization", orgID, "error", err)
		apierrors.WriteError(w, apierrors.StoreUnavailable("evaluation batch failed").WithRequestID(requestID))
		return
	}
	writeJSON(w, http.StatusOK, result)
}
