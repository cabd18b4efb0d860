// Package history implements the append-only version/relation/review
// writers and the four-stream timeline aggregator that explains "why did
// this change" for a decision (spec §4.6).
package history

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/adityaaa08012006/decivue-sub004/internal/collaborators"
	"github.com/adityaaa08012006/decivue-sub004/internal/domain"
)

// Store is the subset of collaborators.Store the Recorder needs: writers for
// the four history streams plus the reads that back the timeline
// aggregator. collaborators.Store satisfies this automatically.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	SaveDecision(ctx context.Context, d domain.Decision) error
	AppendEvaluationHistory(ctx context.Context, rec domain.EvaluationHistory) error
	AppendDecisionVersion(ctx context.Context, v domain.DecisionVersion) (domain.DecisionVersion, error)
	AppendReview(ctx context.Context, r domain.DecisionReview) error
	GetVersionHistory(ctx context.Context, orgID, decisionID string) ([]domain.DecisionVersion, error)
	GetRelationHistory(ctx context.Context, orgID, decisionID string) ([]domain.DecisionRelationChange, error)
	GetReviewHistory(ctx context.Context, orgID, decisionID string) ([]domain.DecisionReview, error)
	GetEvaluationHistory(ctx context.Context, orgID, decisionID string) ([]domain.EvaluationHistory, error)
}

// Recorder wraps a Store with the history-writing and timeline-aggregation
// operations the core needs.
type Recorder struct {
	store Store
}

// New builds a Recorder over store.
func New(store Store) *Recorder {
	return &Recorder{store: store}
}

// RecordCreation writes version 1 (changeType=created) for a newly inserted
// decision, as required at insertion time by spec §4.6.
func (r *Recorder) RecordCreation(ctx context.Context, d domain.Decision) (domain.DecisionVersion, error) {
	return r.store.AppendDecisionVersion(ctx, domain.DecisionVersion{
		ID:            generateID(),
		DecisionID:    d.ID,
		VersionNumber: 1,
		Snapshot:      d.Snapshot(),
		ChangeType:    domain.ChangeCreated,
		ChangeSummary: "decision created",
		CreatedAt:     d.CreatedAt,
	})
}

// RecordEvaluation writes an EvaluationHistory row iff the engine detected a
// change, per spec §4.4(a) — the Scheduler is the caller that decides when
// to invoke this.
func (r *Recorder) RecordEvaluation(ctx context.Context, rec domain.EvaluationHistory) error {
	if !rec.ChangesDetected() {
		return nil
	}
	return r.store.AppendEvaluationHistory(ctx, rec)
}

// ReviewOutcomeResult is the mutation ReviewDecision applies to a decision's
// deferral bookkeeping, per spec §6's review outcome rules.
type ReviewOutcomeResult struct {
	ConsecutiveDeferrals int
	LastReviewedAt       *time.Time
}

// ApplyReviewOutcome implements spec §6's review-outcome rules: deferred
// increments the deferral counter without advancing lastReviewedAt;
// reaffirmed/revised/escalated resets the counter and advances
// lastReviewedAt (invariant 5: lastReviewedAt only moves via an explicit
// review).
func ApplyReviewOutcome(d domain.Decision, outcome domain.ReviewOutcome, now time.Time) ReviewOutcomeResult {
	if outcome == domain.OutcomeDeferred {
		return ReviewOutcomeResult{
			ConsecutiveDeferrals: d.ConsecutiveDeferrals + 1,
			LastReviewedAt:       d.LastReviewedAt,
		}
	}
	return ReviewOutcomeResult{ConsecutiveDeferrals: 0, LastReviewedAt: &now}
}

// ReviewDecision records an explicit human review: advances lastReviewedAt
// (or not, per outcome rules), appends a DecisionReview row, and persists
// the decision's updated deferral bookkeeping — all atomically.
func (r *Recorder) ReviewDecision(ctx context.Context, orgID string, d domain.Decision, reviewer collaborators.Actor, reviewType domain.ReviewType, outcome domain.ReviewOutcome, comment, deferralReason string, nextReviewDate *time.Time, now time.Time) (domain.Decision, error) {
	result := ApplyReviewOutcome(d, outcome, now)
	preLifecycle, preHealth := d.Lifecycle, d.HealthSignal

	d.ConsecutiveDeferrals = result.ConsecutiveDeferrals
	d.LastReviewedAt = result.LastReviewedAt

	err := r.store.WithTx(ctx, func(ctx context.Context) error {
		if err := r.store.SaveDecision(ctx, d); err != nil {
			return err
		}
		return r.store.AppendReview(ctx, domain.DecisionReview{
			ID:             generateID(),
			DecisionID:     d.ID,
			Reviewer:       reviewer.UserID,
			ReviewType:     reviewType,
			Comment:        comment,
			PreLifecycle:   preLifecycle,
			PostLifecycle:  d.Lifecycle,
			PreHealth:      preHealth,
			PostHealth:     d.HealthSignal,
			Outcome:        outcome,
			DeferralReason: deferralReason,
			NextReviewDate: nextReviewDate,
			CreatedAt:      now,
		})
	})
	return d, err
}

// Timeline merges the four history streams for decisionID, sorted by event
// time descending, each entry carrying its source-stream type tag.
func (r *Recorder) Timeline(ctx context.Context, orgID, decisionID string) ([]domain.TimelineEntry, error) {
	versions, err := r.store.GetVersionHistory(ctx, orgID, decisionID)
	if err != nil {
		return nil, fmt.Errorf("history: loading versions: %w", err)
	}
	reviews, err := r.store.GetReviewHistory(ctx, orgID, decisionID)
	if err != nil {
		return nil, fmt.Errorf("history: loading reviews: %w", err)
	}
	relations, err := r.store.GetRelationHistory(ctx, orgID, decisionID)
	if err != nil {
		return nil, fmt.Errorf("history: loading relation changes: %w", err)
	}
	evaluations, err := r.store.GetEvaluationHistory(ctx, orgID, decisionID)
	if err != nil {
		return nil, fmt.Errorf("history: loading evaluations: %w", err)
	}

	entries := make([]domain.TimelineEntry, 0, len(versions)+len(reviews)+len(relations)+len(evaluations))
	for i := range versions {
		v := versions[i]
		entries = append(entries, domain.TimelineEntry{Type: domain.TimelineVersion, EventTime: v.CreatedAt, Version: &v})
	}
	for i := range reviews {
		rv := reviews[i]
		entries = append(entries, domain.TimelineEntry{Type: domain.TimelineReview, EventTime: rv.CreatedAt, Review: &rv})
	}
	for i := range relations {
		rc := relations[i]
		entries = append(entries, domain.TimelineEntry{Type: domain.TimelineRelationChange, EventTime: rc.CreatedAt, Relation: &rc})
	}
	for i := range evaluations {
		ev := evaluations[i]
		entries = append(entries, domain.TimelineEntry{Type: domain.TimelineEvaluation, EventTime: ev.EvaluatedAt, Evaluation: &ev})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].EventTime.After(entries[j].EventTime)
	})
	return entries, nil
}

// ReplayTitleDescriptionCategory reconstructs a decision's current editable
// fields by folding every DecisionVersion from version 1 forward — the
// round-trip property of spec §8.
func ReplayTitleDescriptionCategory(versions []domain.DecisionVersion) domain.EditableSnapshot {
	sorted := make([]domain.DecisionVersion, len(versions))
	copy(sorted, versions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].VersionNumber < sorted[j].VersionNumber })

	var out domain.EditableSnapshot
	for _, v := range sorted {
		out = v.Snapshot
	}
	return out
}
