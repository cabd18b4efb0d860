package store_test

import (
	"context"
	"time"

	"github.com/adityaaa08012006/decivue-sub004/internal/domain"
	"github.com/adityaaa08012006/decivue-sub004/internal/store"
)

// fakeCollaboratorsStore is a minimal in-memory collaborators.Store used
// only to exercise CachedStore's decorator behavior; it is not a stand-in
// for the real Postgres/SQLite implementations.
type fakeCollaboratorsStore struct {
	decisions map[string]domain.Decision
}

func (f *fakeCollaboratorsStore) GetDecision(_ context.Context, orgID, decisionID string) (*domain.Decision, error) {
	d, ok := f.decisions[orgID+":"+decisionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := d
	return &cp, nil
}

func (f *fakeCollaboratorsStore) ListDecisionsNeedingEvaluation(context.Context, string, time.Duration, int) ([]domain.Decision, error) {
	return nil, nil
}

func (f *fakeCollaboratorsStore) SaveDecision(_ context.Context, d domain.Decision) error {
	if f.decisions == nil {
		f.decisions = map[string]domain.Decision{}
	}
	f.decisions[d.Organization+":"+d.ID] = d
	return nil
}

func (f *fakeCollaboratorsStore) GetLinkedAssumptionIDs(context.Context, string, string) ([]string, error) {
	return nil, nil
}
func (f *fakeCollaboratorsStore) GetAssumptions(context.Context, string, []string) ([]domain.Assumption, error) {
	return nil, nil
}
func (f *fakeCollaboratorsStore) GetUniversalAssumptions(context.Context, string) ([]domain.Assumption, error) {
	return nil, nil
}
func (f *fakeCollaboratorsStore) GetLinkedConstraintIDs(context.Context, string, string) ([]string, error) {
	return nil, nil
}
func (f *fakeCollaboratorsStore) GetConstraints(context.Context, string, []string) ([]domain.Constraint, error) {
	return nil, nil
}
func (f *fakeCollaboratorsStore) GetDependencies(context.Context, string, string) ([]domain.DependencySnapshot, error) {
	return nil, nil
}
func (f *fakeCollaboratorsStore) GetDependents(context.Context, string, string) ([]string, error) {
	return nil, nil
}
func (f *fakeCollaboratorsStore) LinkDependency(context.Context, domain.DependencyEdge) error {
	return nil
}
func (f *fakeCollaboratorsStore) UnlinkDependency(context.Context, string, string, string) error {
	return nil
}
func (f *fakeCollaboratorsStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
func (f *fakeCollaboratorsStore) AppendEvaluationHistory(context.Context, domain.EvaluationHistory) error {
	return nil
}
func (f *fakeCollaboratorsStore) AppendDecisionVersion(_ context.Context, v domain.DecisionVersion) (domain.DecisionVersion, error) {
	return v, nil
}
func (f *fakeCollaboratorsStore) AppendRelationChange(context.Context, domain.DecisionRelationChange) error {
	return nil
}
func (f *fakeCollaboratorsStore) AppendReview(context.Context, domain.DecisionReview) error {
	return nil
}
func (f *fakeCollaboratorsStore) AppendGovernanceAuditEntry(_ context.Context, e domain.GovernanceAuditEntry) (domain.GovernanceAuditEntry, error) {
	return e, nil
}
func (f *fakeCollaboratorsStore) ResolveGovernanceAuditEntry(context.Context, domain.GovernanceAuditEntry) error {
	return nil
}
func (f *fakeCollaboratorsStore) GetGovernanceAuditEntry(context.Context, string, string) (*domain.GovernanceAuditEntry, error) {
	return nil, store.ErrNotFound
}
func (f *fakeCollaboratorsStore) GetVersionHistory(context.Context, string, string) ([]domain.DecisionVersion, error) {
	return nil, nil
}
func (f *fakeCollaboratorsStore) GetRelationHistory(context.Context, string, string) ([]domain.DecisionRelationChange, error) {
	return nil, nil
}
func (f *fakeCollaboratorsStore) GetReviewHistory(context.Context, string, string) ([]domain.DecisionReview, error) {
	return nil, nil
}
func (f *fakeCollaboratorsStore) GetEvaluationHistory(context.Context, string, string) ([]domain.EvaluationHistory, error) {
	return nil, nil
}
func (f *fakeCollaboratorsStore) GetUnresolvedAssumptionConflicts(context.Context, string, string) ([]domain.AssumptionConflict, error) {
	return nil, nil
}
func (f *fakeCollaboratorsStore) GetUnresolvedDecisionConflicts(context.Context, string, string) ([]domain.DecisionConflict, error) {
	return nil, nil
}
func (f *fakeCollaboratorsStore) CountUnresolvedConflicts(context.Context, string, string) (int, int, error) {
	return 0, 0, nil
}
