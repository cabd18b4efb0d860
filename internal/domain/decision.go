// Package domain holds the core data model: Decision, Assumption, Constraint,
// dependency edges, and the append-only history rows that explain how a
// decision's state came to be.
package domain

import (
	"time"
)

// Lifecycle is the categorical state of a decision for external presentation.
type Lifecycle string

const (
	LifecycleStable      Lifecycle = "stable"
	LifecycleUnderReview Lifecycle = "under_review"
	LifecycleAtRisk      Lifecycle = "at_risk"
	LifecycleInvalidated Lifecycle = "invalidated"
	LifecycleRetired     Lifecycle = "retired"
)

// Terminal reports whether the engine must never spontaneously leave this
// lifecycle (invariant 3).
func (l Lifecycle) Terminal() bool {
	return l == LifecycleInvalidated || l == LifecycleRetired
}

// InvalidatedReason explains why a decision transitioned to Invalidated.
type InvalidatedReason string

const (
	ReasonConstraintViolation InvalidatedReason = "constraint_violation"
	ReasonBrokenAssumptions   InvalidatedReason = "broken_assumptions"
	ReasonExpired             InvalidatedReason = "expired"
	ReasonManual              InvalidatedReason = "manual"
)

// GovernanceTier controls how much friction an edit to a decision must pass
// through before it is applied.
type GovernanceTier string

const (
	TierStandard   GovernanceTier = "standard"
	TierHighImpact GovernanceTier = "high_impact"
	TierCritical   GovernanceTier = "critical"
)

// Decision is a long-lived organizational decision under continuous
// evaluation.
type Decision struct {
	ID          string            `json:"id" validate:"required,uuid"`
	Organization string           `json:"organization" validate:"required"`
	Creator     string            `json:"creator" validate:"required"`
	Title       string            `json:"title" validate:"required,max=300"`
	Description string            `json:"description"`
	Category    string            `json:"category,omitempty"`
	Parameters  map[string]any    `json:"parameters,omitempty"`

	Lifecycle         Lifecycle          `json:"lifecycle" validate:"required"`
	HealthSignal      int                `json:"health_signal" validate:"gte=0,lte=100"`
	InvalidatedReason *InvalidatedReason `json:"invalidated_reason,omitempty"`

	CreatedAt      time.Time  `json:"created_at"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	LastEvaluatedAt *time.Time `json:"last_evaluated_at,omitempty"`
	NeedsEvaluation bool       `json:"needs_evaluation"`
	ExpiryDate      *time.Time `json:"expiry_date,omitempty"`

	// Governance
	GovernanceMode          bool           `json:"governance_mode"`
	GovernanceTier          GovernanceTier `json:"governance_tier"`
	RequiresSecondReviewer  bool           `json:"requires_second_reviewer"`
	EditJustificationRequired bool         `json:"edit_justification_required"`
	LockedAt                *time.Time     `json:"locked_at,omitempty"`
	LockedBy                *string        `json:"locked_by,omitempty"`

	// Review intelligence
	ReviewUrgencyScore   int            `json:"review_urgency_score" validate:"gte=0,lte=100"`
	NextReviewDate       *time.Time     `json:"next_review_date,omitempty"`
	ReviewFrequencyDays  int            `json:"review_frequency_days"`
	ConsecutiveDeferrals int            `json:"consecutive_deferrals" validate:"gte=0"`
	UrgencyFactors       map[string]int `json:"urgency_factors,omitempty"`
}

// Locked reports whether the decision currently carries a governance lock.
func (d *Decision) Locked() bool {
	return d.LockedBy != nil && *d.LockedBy != ""
}

// EditableSnapshot is the subset of Decision fields the governance
// edit-approval workflow is allowed to change directly (spec §4.5).
type EditableSnapshot struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Snapshot extracts the editable fields for version-history diffing.
func (d *Decision) Snapshot() EditableSnapshot {
	return EditableSnapshot{Title: d.Title, Description: d.Description, Category: d.Category}
}

// AssumptionStatus is the health of a single assumption.
type AssumptionStatus string

const (
	AssumptionValid  AssumptionStatus = "valid"
	AssumptionShaky  AssumptionStatus = "shaky"
	AssumptionBroken AssumptionStatus = "broken"
)

// AssumptionScope determines whether an assumption applies to one decision
// or to every decision in its organization.
type AssumptionScope string

const (
	ScopeUniversal       AssumptionScope = "universal"
	ScopeDecisionSpecific AssumptionScope = "decision_specific"
)

// Assumption is a belief a decision (or a whole organization) is made against.
type Assumption struct {
	ID           string           `json:"id" validate:"required,uuid"`
	Organization string           `json:"organization" validate:"required"`
	Description  string           `json:"description" validate:"required"`
	Status       AssumptionStatus `json:"status" validate:"required"`
	Scope        AssumptionScope  `json:"scope" validate:"required"`
}

// ConstraintType classifies why a constraint exists.
type ConstraintType string

const (
	ConstraintLegal      ConstraintType = "legal"
	ConstraintBudget     ConstraintType = "budget"
	ConstraintPolicy     ConstraintType = "policy"
	ConstraintTechnical  ConstraintType = "technical"
	ConstraintCompliance ConstraintType = "compliance"
	ConstraintOther      ConstraintType = "other"
)

// Constraint is a rule a decision must continue to honor, expressed as a
// small predicate over the decision's parameters/metadata (see
// internal/engine/predicate.go).
type Constraint struct {
	ID             string         `json:"id" validate:"required,uuid"`
	Organization   string         `json:"organization" validate:"required"`
	Name           string         `json:"name" validate:"required"`
	Description    string         `json:"description"`
	Type           ConstraintType `json:"type" validate:"required"`
	ValidationSpec []byte         `json:"validation_spec,omitempty"`
	IsImmutable    bool           `json:"is_immutable"`
}

// DependencyEdge is a directed edge: Source depends on Target.
type DependencyEdge struct {
	ID     string `json:"id" validate:"required,uuid"`
	Source string `json:"source" validate:"required,uuid"`
	Target string `json:"target" validate:"required,uuid"`
}

// DependencySnapshot is the subset of a depended-on decision's state the
// engine needs: lifecycle and health, nothing else.
type DependencySnapshot struct {
	DecisionID   string
	Lifecycle    Lifecycle
	HealthSignal int
}

// AssumptionConflict is an unresolved disagreement about an assumption,
// normally raised by an external ConflictDetector.
type AssumptionConflict struct {
	ID           string     `json:"id" validate:"required,uuid"`
	AssumptionID string     `json:"assumption_id" validate:"required,uuid"`
	DecisionID   string     `json:"decision_id" validate:"required,uuid"`
	Counterpart  string     `json:"counterpart"`
	Resolved     bool       `json:"resolved"`
	RaisedAt     time.Time  `json:"raised_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

// DecisionConflict is an unresolved disagreement directly about a decision.
type DecisionConflict struct {
	ID          string     `json:"id" validate:"required,uuid"`
	DecisionID  string     `json:"decision_id" validate:"required,uuid"`
	Counterpart string     `json:"counterpart"`
	Resolved    bool       `json:"resolved"`
	RaisedAt    time.Time  `json:"raised_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}
