package api

import (
	"context"
	"time"

	"github.com/adityaaa08012006/decivue-sub004/internal/domain"
	"github.com/adityaaa08012006/decivue-sub004/internal/store"
)

// fakeStore is a minimal in-memory collaborators.Store, enough to drive
// the handlers under test without a real database. It mirrors
// internal/store's own fakeCollaboratorsStore test helper.
type fakeStore struct {
	decisions    map[string]domain.Decision
	auditEntries map[string]domain.GovernanceAuditEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		decisions:    map[string]domain.Decision{},
		auditEntries: map[string]domain.GovernanceAuditEntry{},
	}
}

func (f *fakeStore) GetDecision(_ context.Context, orgID, decisionID string) (*domain.Decision, error) {
	d, ok := f.decisions[orgID+":"+decisionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := d
	return &cp, nil
}

func (f *fakeStore) ListDecisionsNeedingEvaluation(context.Context, string, time.Duration, int) ([]domain.Decision, error) {
	return nil, nil
}

func (f *fakeStore) SaveDecision(_ context.Context, d domain.Decision) error {
	f.decisions[d.Organization+":"+d.ID] = d
	return nil
}

func (f *fakeStore) GetLinkedAssumptionIDs(context.Context, string, string) ([]string, error) {
	return nil, nil
}
func (f *fakeStore) GetAssumptions(context.Context, string, []string) ([]domain.Assumption, error) {
	return nil, nil
}
func (f *fakeStore) GetUniversalAssumptions(context.Context, string) ([]domain.Assumption, error) {
	return nil, nil
}
func (f *fakeStore) GetLinkedConstraintIDs(context.Context, string, string) ([]string, error) {
	return nil, nil
}
func (f *fakeStore) GetConstraints(context.Context, string, []string) ([]domain.Constraint, error) {
	return nil, nil
}
func (f *fakeStore) GetDependencies(context.Context, string, string) ([]domain.DependencySnapshot, error) {
	return nil, nil
}
func (f *fakeStore) GetDependents(context.Context, string, string) ([]string, error) {
	return nil, nil
}
func (f *fakeStore) LinkDependency(context.Context, domain.DependencyEdge) error {
	return nil
}
func (f *fakeStore) UnlinkDependency(context.Context, string, string, string) error {
	return nil
}
func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
func (f *fakeStore) AppendEvaluationHistory(context.Context, domain.EvaluationHistory) error {
	return nil
}
func (f *fakeStore) AppendDecisionVersion(_ context.Context, v domain.DecisionVersion) (domain.DecisionVersion, error) {
	return v, nil
}
func (f *fakeStore) AppendRelationChange(context.Context, domain.DecisionRelationChange) error {
	return nil
}
func (f *fakeStore) AppendReview(context.Context, domain.DecisionReview) error {
	return nil
}
func (f *fakeStore) AppendGovernanceAuditEntry(_ context.Context, e domain.GovernanceAuditEntry) (domain.GovernanceAuditEntry, error) {
	if e.ID == "" {
		e.ID = "audit-" + e.DecisionID
	}
	f.auditEntries[e.ID] = e
	return e, nil
}
func (f *fakeStore) ResolveGovernanceAuditEntry(_ context.Context, e domain.GovernanceAuditEntry) error {
	f.auditEntries[e.ID] = e
	return nil
}
func (f *fakeStore) GetGovernanceAuditEntry(_ context.Context, _, id string) (*domain.GovernanceAuditEntry, error) {
	e, ok := f.auditEntries[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := e
	return &cp, nil
}
func (f *fakeStore) GetVersionHistory(context.Context, string, string) ([]domain.DecisionVersion, error) {
	return nil, nil
}
func (f *fakeStore) GetRelationHistory(context.Context, string, string) ([]domain.DecisionRelationChange, error) {
	return nil, nil
}
func (f *fakeStore) GetReviewHistory(context.Context, string, string) ([]domain.DecisionReview, error) {
	return nil, nil
}
func (f *fakeStore) GetEvaluationHistory(context.Context, string, string) ([]domain.EvaluationHistory, error) {
	return nil, nil
}
func (f *fakeStore) GetUnresolvedAssumptionConflicts(context.Context, string, string) ([]domain.AssumptionConflict, error) {
	return nil, nil
}
func (f *fakeStore) GetUnresolvedDecisionConflicts(context.Context, string, string) ([]domain.DecisionConflict, error) {
	return nil, nil
}
func (f *fakeStore) CountUnresolvedConflicts(context.Context, string, string) (int, int, error) {
	return 0, 0, nil
}
