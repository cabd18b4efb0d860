// Package collaborators declares the external contracts the core depends on
// but does not implement: persistence, identity, notification delivery, and
// AI-assisted conflict detection. Concrete implementations live in
// internal/store, internal/notify, and test fakes — never here.
package collaborators

import (
	"context"
	"time"

	"github.com/adityaaa08012006/decivue-sub004/internal/domain"
)

// Store is the persistence contract: CRUD plus transactions over the
// decision graph and its history tables. Implementations must support
// atomic multi-write for (decision field update + DecisionVersion +
// history row + dirty-flag clear), and must serialize governance edits per
// decision via row-level locking.
type Store interface {
	GetDecision(ctx context.Context, orgID, decisionID string) (*domain.Decision, error)
	ListDecisionsNeedingEvaluation(ctx context.Context, orgID string, stalenessThreshold time.Duration, limit int) ([]domain.Decision, error)
	SaveDecision(ctx context.Context, d domain.Decision) error

	GetLinkedAssumptionIDs(ctx context.Context, orgID, decisionID string) ([]string, error)
	GetAssumptions(ctx context.Context, orgID string, ids []string) ([]domain.Assumption, error)
	GetUniversalAssumptions(ctx context.Context, orgID string) ([]domain.Assumption, error)
	GetLinkedConstraintIDs(ctx context.Context, orgID, decisionID string) ([]string, error)
	GetConstraints(ctx context.Context, orgID string, ids []string) ([]domain.Constraint, error)
	GetDependencies(ctx context.Context, orgID, decisionID string) ([]domain.DependencySnapshot, error)
	GetDependents(ctx context.Context, orgID, decisionID string) ([]string, error)

	// LinkDependency validates acyclicity and inserts the edge in one
	// transaction; returns ErrCyclicDependency if the edge would create a
	// cycle.
	LinkDependency(ctx context.Context, edge domain.DependencyEdge) error
	UnlinkDependency(ctx context.Context, orgID, source, target string) error

	// WithTx runs fn inside a single transaction; fn's returned error rolls
	// the transaction back. Used for the atomic (decision + version +
	// history + flag-clear) commit the Scheduler and governance workflow
	// both require.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	AppendEvaluationHistory(ctx context.Context, rec domain.EvaluationHistory) error
	AppendDecisionVersion(ctx context.Context, v domain.DecisionVersion) (domain.DecisionVersion, error)
	AppendRelationChange(ctx context.Context, c domain.DecisionRelationChange) error
	AppendReview(ctx context.Context, r domain.DecisionReview) error
	AppendGovernanceAuditEntry(ctx context.Context, e domain.GovernanceAuditEntry) (domain.GovernanceAuditEntry, error)
	ResolveGovernanceAuditEntry(ctx context.Context, e domain.GovernanceAuditEntry) error
	GetGovernanceAuditEntry(ctx context.Context, orgID, id string) (*domain.GovernanceAuditEntry, error)

	GetVersionHistory(ctx context.Context, orgID, decisionID string) ([]domain.DecisionVersion, error)
	GetRelationHistory(ctx context.Context, orgID, decisionID string) ([]domain.DecisionRelationChange, error)
	GetReviewHistory(ctx context.Context, orgID, decisionID string) ([]domain.DecisionReview, error)
	GetEvaluationHistory(ctx context.Context, orgID, decisionID string) ([]domain.EvaluationHistory, error)

	GetUnresolvedAssumptionConflicts(ctx context.Context, orgID, decisionID string) ([]domain.AssumptionConflict, error)
	GetUnresolvedDecisionConflicts(ctx context.Context, orgID, decisionID string) ([]domain.DecisionConflict, error)
	CountUnresolvedConflicts(ctx context.Context, orgID, decisionID string) (assumptionConflicts, decisionConflicts int, err error)
}

// Role is a team member's governance role.
type Role string

const (
	RoleLead   Role = "lead"
	RoleMember Role = "member"
)

// Actor is the resolved identity of whoever is calling a command: who they
// are, their role, and which organization they act within.
type Actor struct {
	UserID         string
	Role           Role
	OrganizationID string
}

// Identity resolves an opaque caller token into an Actor. Transport-layer
// concern (session, API key, SSO) — the core only ever sees the resolved
// Actor.
type Identity interface {
	Resolve(ctx context.Context, token string) (Actor, error)
}

// NotificationType enumerates the user-visible events the core can ask the
// Notifier to surface.
type NotificationType string

const (
	NotifyAssumptionConflict NotificationType = "assumption_conflict"
	NotifyDecisionConflict   NotificationType = "decision_conflict"
	NotifyHealthDegraded     NotificationType = "health_degraded"
	NotifyLifecycleChanged   NotificationType = "lifecycle_changed"
	NotifyNeedsReview        NotificationType = "needs_review"
	NotifyAssumptionBroken   NotificationType = "assumption_broken"
	NotifyDependencyBroken   NotificationType = "dependency_broken"
	NotifyGovernanceEvent    NotificationType = "governance_event"
)

// Severity is how loudly a Notification should be surfaced.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Notification is one typed, user-facing event emitted from a core state
// transition.
type Notification struct {
	Type       NotificationType
	Severity   Severity
	DecisionID string
	OrgID      string
	Message    string
	OccurredAt time.Time
	Metadata   map[string]any
}

// Notifier delivers Notifications to whatever UI feed, email pipeline, or
// paging system the deployment wires up. The core only ever emits; it never
// blocks on delivery succeeding.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// ConflictDetector is an opaque producer of conflict records — typically an
// AI-assisted reviewer comparing decisions/assumptions against each other or
// against external signals. The core only reads resolved/unresolved status;
// it never asks the detector to resolve anything.
type ConflictDetector interface {
	DetectAssumptionConflicts(ctx context.Context, orgID, assumptionID string) ([]domain.AssumptionConflict, error)
	DetectDecisionConflicts(ctx context.Context, orgID, decisionID string) ([]domain.DecisionConflict, error)
}
