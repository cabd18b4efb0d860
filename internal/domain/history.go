package domain

import "time"

// TriggerSource explains what caused an evaluation to run.
type TriggerSource string

const (
	TriggerAutomatic       TriggerSource = "automatic"
	TriggerManualReview    TriggerSource = "manual_review"
	TriggerAssumptionChange TriggerSource = "assumption_change"
	TriggerConstraintChange TriggerSource = "constraint_change"
	TriggerDependencyChange TriggerSource = "dependency_change"
	TriggerTimeTick         TriggerSource = "time_tick"
)

// TraceStep is one phase outcome from an Engine run.
type TraceStep struct {
	StepName  string         `json:"step_name"`
	Passed    bool           `json:"passed"`
	Details   string         `json:"details"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// EvaluationHistory is an append-only record of one Engine run against a
// decision.
type EvaluationHistory struct {
	ID                string             `json:"id" validate:"required,uuid"`
	DecisionID        string             `json:"decision_id" validate:"required,uuid"`
	OldLifecycle      Lifecycle          `json:"old_lifecycle"`
	NewLifecycle      Lifecycle          `json:"new_lifecycle"`
	OldHealth         int                `json:"old_health"`
	NewHealth         int                `json:"new_health"`
	InvalidatedReason *InvalidatedReason `json:"invalidated_reason,omitempty"`
	Trace             []TraceStep        `json:"trace"`
	TriggeredBy       TriggerSource      `json:"triggered_by"`
	EvaluatedAt       time.Time          `json:"evaluated_at"`
}

// ChangesDetected reports whether the engine run this record describes
// actually moved the decision's observable state.
func (e *EvaluationHistory) ChangesDetected() bool {
	return e.OldLifecycle != e.NewLifecycle || e.OldHealth != e.NewHealth
}

// ChangeType classifies a DecisionVersion row.
type ChangeType string

const (
	ChangeCreated                  ChangeType = "created"
	ChangeFieldUpdated             ChangeType = "field_updated"
	ChangeLifecycleChanged         ChangeType = "lifecycle_changed"
	ChangeManualReview             ChangeType = "manual_review"
	ChangeAssumptionConflictResolved ChangeType = "assumption_conflict_resolved"
	ChangeDecisionConflictResolved ChangeType = "decision_conflict_resolved"
	ChangeRelationAdded            ChangeType = "relation_added"
	ChangeRelationRemoved          ChangeType = "relation_removed"
	ChangeRetirement               ChangeType = "retirement"
	ChangeDeprecation              ChangeType = "deprecation"
	ChangeGovernanceLock           ChangeType = "governance_lock"
	ChangeGovernanceUnlock         ChangeType = "governance_unlock"
	ChangeEditRequested            ChangeType = "edit_requested"
	ChangeEditApproved             ChangeType = "edit_approved"
	ChangeEditRejected             ChangeType = "edit_rejected"
)

// FieldDelta captures a single field's before/after value in a
// DecisionVersion's ChangedFields map.
type FieldDelta struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// DecisionVersion is a dense, monotonically numbered snapshot of a
// decision's editable fields (invariant 6).
type DecisionVersion struct {
	ID            string                `json:"id" validate:"required,uuid"`
	DecisionID    string                `json:"decision_id" validate:"required,uuid"`
	VersionNumber int                   `json:"version_number" validate:"gte=1"`
	Snapshot      EditableSnapshot      `json:"snapshot"`
	ChangeType    ChangeType            `json:"change_type"`
	ChangeSummary string                `json:"change_summary"`
	ChangedFields map[string]FieldDelta `json:"changed_fields,omitempty"`
	ReviewerComment string              `json:"reviewer_comment,omitempty"`
	Metadata      map[string]any        `json:"metadata,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}

// RelationType names which edge kind a DecisionRelationChange concerns.
type RelationType string

const (
	RelationAssumption RelationType = "assumption"
	RelationConstraint RelationType = "constraint"
	RelationDependency RelationType = "dependency"
)

// RelationAction is linked or unlinked.
type RelationAction string

const (
	RelationLinked   RelationAction = "linked"
	RelationUnlinked RelationAction = "unlinked"
)

// DecisionRelationChange records a link/unlink of an assumption, constraint,
// or dependency against a decision.
type DecisionRelationChange struct {
	ID           string         `json:"id" validate:"required,uuid"`
	DecisionID   string         `json:"decision_id" validate:"required,uuid"`
	RelationType RelationType   `json:"relation_type"`
	RelationID   string         `json:"relation_id"`
	Action       RelationAction `json:"action"`
	Reason       string         `json:"reason,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// ReviewType classifies why a human review happened.
type ReviewType string

const (
	ReviewRoutine           ReviewType = "routine"
	ReviewConflictResolution ReviewType = "conflict_resolution"
	ReviewExpiryCheck       ReviewType = "expiry_check"
	ReviewManual            ReviewType = "manual"
)

// ReviewOutcome is the disposition a reviewer recorded.
type ReviewOutcome string

const (
	OutcomeReaffirmed ReviewOutcome = "reaffirmed"
	OutcomeRevised    ReviewOutcome = "revised"
	OutcomeEscalated  ReviewOutcome = "escalated"
	OutcomeDeferred   ReviewOutcome = "deferred"
)

// DecisionReview is an explicit human review of a decision.
type DecisionReview struct {
	ID              string         `json:"id" validate:"required,uuid"`
	DecisionID      string         `json:"decision_id" validate:"required,uuid"`
	Reviewer        string         `json:"reviewer" validate:"required"`
	ReviewType      ReviewType     `json:"review_type"`
	Comment         string         `json:"comment,omitempty"`
	PreLifecycle    Lifecycle      `json:"pre_lifecycle"`
	PostLifecycle   Lifecycle      `json:"post_lifecycle"`
	PreHealth       int            `json:"pre_health"`
	PostHealth      int            `json:"post_health"`
	Outcome         ReviewOutcome  `json:"outcome"`
	DeferralReason  string         `json:"deferral_reason,omitempty"`
	NextReviewDate  *time.Time     `json:"next_review_date,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

// GovernanceAction classifies a GovernanceAuditEntry.
type GovernanceAction string

const (
	ActionEditRequested          GovernanceAction = "edit_requested"
	ActionEditApproved           GovernanceAction = "edit_approved"
	ActionEditRejected           GovernanceAction = "edit_rejected"
	ActionSecondReviewRequested  GovernanceAction = "second_review_requested"
	ActionSecondReviewApproved   GovernanceAction = "second_review_approved"
	ActionDecisionLocked         GovernanceAction = "decision_locked"
	ActionDecisionUnlocked       GovernanceAction = "decision_unlocked"
)

// GovernanceAuditEntry is an append-only log of a governance-gated action.
type GovernanceAuditEntry struct {
	ID              string           `json:"id" validate:"required,uuid"`
	DecisionID      string           `json:"decision_id" validate:"required,uuid"`
	Action          GovernanceAction `json:"action"`
	Requester       string           `json:"requester" validate:"required"`
	Approver        *string          `json:"approver,omitempty"`
	Justification   string           `json:"justification,omitempty"`
	ProposedChanges EditableSnapshot `json:"proposed_changes,omitempty"`
	PreviousState   map[string]any   `json:"previous_state,omitempty"`
	NewState        map[string]any   `json:"new_state,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	ResolvedAt      *time.Time       `json:"resolved_at,omitempty"`
}

// Resolved reports whether this audit entry has a terminal disposition.
func (g *GovernanceAuditEntry) Resolved() bool {
	return g.ResolvedAt != nil
}

// TimelineEntryType tags which stream a merged timeline entry came from.
type TimelineEntryType string

const (
	TimelineVersion         TimelineEntryType = "version"
	TimelineReview          TimelineEntryType = "review"
	TimelineRelationChange  TimelineEntryType = "relation_change"
	TimelineEvaluation      TimelineEntryType = "evaluation"
)

// TimelineEntry is one merged row from the four history streams (spec §4.6).
type TimelineEntry struct {
	Type      TimelineEntryType `json:"type"`
	EventTime time.Time         `json:"event_time"`
	Version   *DecisionVersion         `json:"version,omitempty"`
	Review    *DecisionReview          `json:"review,omitempty"`
	Relation  *DecisionRelationChange  `json:"relation,omitempty"`
	Evaluation *EvaluationHistory      `json:"evaluation,omitempty"`
}
