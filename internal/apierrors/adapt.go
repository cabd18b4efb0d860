package apierrors

import (
	"errors"

	"github.com/adityaaa08012006/decivue-sub004/internal/governance"
	"github.com/adityaaa08012006/decivue-sub004/internal/store"
)

// FromGovernanceDecision turns a governance.CanEdit result into the
// matching APIError, or nil if the decision was Allow.
func FromGovernanceDecision(d governance.Decision, justificationMinLength int) *APIError {
	switch d {
	case governance.Allow:
		return nil
	case governance.Deny:
		return Forbidden("you are not permitted to edit this decision")
	case governance.DenyLocked:
		return Locked("this decision is locked by another user")
	case governance.RequiresApproval:
		return RequiresApproval("this edit requires approval from a second reviewer")
	case governance.RequiresJustification:
		return RequiresJustification(justificationMinLength)
	default:
		return Internal("unrecognized governance decision")
	}
}

// FromStoreError maps a collaborators.Store error onto an APIError. Callers
// should check this before falling back to a generic StoreUnavailable for
// unclassified infrastructure faults (e.g. a dropped connection, a context
// deadline) surfaced by the resilience retry layer.
func FromStoreError(err error) *APIError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return NotFound("decision")
	case errors.Is(err, store.ErrCyclicDependency):
		return CyclicDependency()
	default:
		return StoreUnavailable(err.Error())
	}
}
