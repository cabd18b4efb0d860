// Package notify provides a live feed implementation of the
// collaborators.Notifier contract: an in-process event bus broadcast to
// websocket subscribers, so a UI can watch decisions surface lifecycle
// changes, health degradation, and governance escalations as they happen.
package notify

import (
	"time"

	"github.com/google/uuid"
)

// Event is a feed-internal representation of a collaborators.Notification,
// shaped for broadcast and ordered with a monotonically increasing
// sequence number (assigned by the Bus on Publish).
type Event struct {
	// Type mirrors collaborators.NotificationType (assumption_conflict,
	// decision_conflict, health_degraded, lifecycle_changed, needs_review,
	// assumption_broken, dependency_broken, governance_event).
	Type string `json:"type"`

	// ID is a unique event ID.
	ID string `json:"id"`

	// Severity mirrors collaborators.Severity (info, warning, critical).
	Severity string `json:"severity"`

	// OrgID scopes the event; subscribers filter to the organizations they
	// are allowed to see.
	OrgID string `json:"org_id"`

	// DecisionID is the decision this event concerns, if any.
	DecisionID string `json:"decision_id,omitempty"`

	// Message is a human-readable summary.
	Message string `json:"message"`

	// Metadata carries type-specific detail (old/new lifecycle, conflict
	// counts, urgency score, etc).
	Metadata map[string]any `json:"metadata,omitempty"`

	// OccurredAt is when the underlying state transition happened.
	OccurredAt time.Time `json:"occurred_at"`

	// Sequence is a monotonically increasing bus-assigned ordering key.
	Sequence int64 `json:"sequence"`
}

func newEvent(eventType, severity, orgID, decisionID, message string, metadata map[string]any, occurredAt time.Time) Event {
	return Event{
		Type:       eventType,
		ID:         uuid.New().String(),
		Severity:   severity,
		OrgID:      orgID,
		DecisionID: decisionID,
		Message:    message,
		Metadata:   metadata,
		OccurredAt: occurredAt,
	}
}
