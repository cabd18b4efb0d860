package scheduler_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaaa08012006/decivue-sub004/internal/domain"
	"github.com/adityaaa08012006/decivue-sub004/internal/engine"
	"github.com/adityaaa08012006/decivue-sub004/internal/history"
	"github.com/adityaaa08012006/decivue-sub004/internal/propagation"
	"github.com/adityaaa08012006/decivue-sub004/internal/scheduler"
)

type fakeStore struct {
	mu        sync.Mutex
	decisions []domain.Decision
	saved     []domain.Decision
	evals     []domain.EvaluationHistory
}

func (f *fakeStore) ListDecisionsNeedingEvaluation(_ context.Context, _ string, _ time.Duration, _ int) ([]domain.Decision, error) {
	return f.decisions, nil
}
func (f *fakeStore) GetLinkedAssumptionIDs(_ context.Context, _, _ string) ([]string, error) {
	return nil, nil
}
func (f *fakeStore) GetAssumptions(_ context.Context, _ string, _ []string) ([]domain.Assumption, error) {
	return nil, nil
}
func (f *fakeStore) GetUniversalAssumptions(_ context.Context, _ string) ([]domain.Assumption, error) {
	return nil, nil
}
func (f *fakeStore) GetLinkedConstraintIDs(_ context.Context, _, _ string) ([]string, error) {
	return nil, nil
}
func (f *fakeStore) GetConstraints(_ context.Context, _ string, _ []string) ([]domain.Constraint, error) {
	return nil, nil
}
func (f *fakeStore) GetDependencies(_ context.Context, _, _ string) ([]domain.DependencySnapshot, error) {
	return nil, nil
}
func (f *fakeStore) SaveDecision(_ context.Context, d domain.Decision) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, d)
	return nil
}
func (f *fakeStore) AppendEvaluationHistory(_ context.Context, rec domain.EvaluationHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evals = append(f.evals, rec)
	return nil
}
func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
func (f *fakeStore) CountUnresolvedConflicts(_ context.Context, _, _ string) (int, int, error) {
	return 0, 0, nil
}
func (f *fakeStore) AppendDecisionVersion(_ context.Context, v domain.DecisionVersion) (domain.DecisionVersion, error) {
	return v, nil
}
func (f *fakeStore) AppendReview(_ context.Context, _ domain.DecisionReview) error { return nil }
func (f *fakeStore) GetVersionHistory(_ context.Context, _, _ string) ([]domain.DecisionVersion, error) {
	return nil, nil
}
func (f *fakeStore) GetRelationHistory(_ context.Context, _, _ string) ([]domain.DecisionRelationChange, error) {
	return nil, nil
}
func (f *fakeStore) GetReviewHistory(_ context.Context, _, _ string) ([]domain.DecisionReview, error) {
	return nil, nil
}
func (f *fakeStore) GetEvaluationHistory(_ context.Context, _, _ string) ([]domain.EvaluationHistory, error) {
	return nil, nil
}

type fakePropagator struct {
	mu     sync.Mutex
	events []propagation.Event
}

func (p *fakePropagator) Apply(_ context.Context, ev propagation.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func newSchedulerFor(t *testing.T, store *fakeStore, prop *fakePropagator) *scheduler.Scheduler {
	t.Helper()
	return scheduler.New(store, engine.New(nil), history.New(store), prop, scheduler.Config{BatchSize: 10, Workers: 2}, nil, nil)
}

func TestSelectCandidates_SkipsRetiredAndSortsByUrgencyThenStaleness(t *testing.T) {
	now := time.Now()
	oldEval := now.Add(-48 * time.Hour)
	store := &fakeStore{decisions: []domain.Decision{
		{ID: "retired", Organization: "org1", Lifecycle: domain.LifecycleRetired, NeedsEvaluation: true},
		{ID: "low-urgency", Organization: "org1", Lifecycle: domain.LifecycleStable, NeedsEvaluation: true, ReviewUrgencyScore: 10},
		{ID: "high-urgency", Organization: "org1", Lifecycle: domain.LifecycleStable, NeedsEvaluation: true, ReviewUrgencyScore: 90},
		{ID: "stale", Organization: "org1", Lifecycle: domain.LifecycleStable, ReviewUrgencyScore: 90, LastEvaluatedAt: &oldEval},
	}}
	s := newSchedulerFor(t, store, &fakePropagator{})

	candidates, err := s.SelectCandidates(context.Background(), "org1", now)

	require.NoError(t, err)
	ids := make([]string, len(candidates))
	for i, d := range candidates {
		ids[i] = d.ID
	}
	assert.NotContains(t, ids, "retired")
	require.Len(t, ids, 3)
	assert.Equal(t, "high-urgency", ids[0])
	assert.Equal(t, "stale", ids[1])
	assert.Equal(t, "low-urgency", ids[2])
}

func TestRunEvaluationBatch_PersistsAndPropagatesOnChange(t *testing.T) {
	now := time.Now()
	store := &fakeStore{decisions: []domain.Decision{
		{ID: "d1", Organization: "org1", Lifecycle: domain.LifecycleStable, HealthSignal: 100, NeedsEvaluation: true, CreatedAt: now},
	}}
	prop := &fakePropagator{}
	s := newSchedulerFor(t, store, prop)

	result, err := s.RunEvaluationBatch(context.Background(), "org1", now)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Selected)
	assert.Equal(t, 1, result.Evaluated)
	require.Len(t, store.saved, 1)
	assert.False(t, store.saved[0].NeedsEvaluation)
	assert.NotNil(t, store.saved[0].LastEvaluatedAt)
}

func TestRunEvaluationBatch_NoCandidatesIsNoop(t *testing.T) {
	store := &fakeStore{}
	s := newSchedulerFor(t, store, &fakePropagator{})

	result, err := s.RunEvaluationBatch(context.Background(), "org1", time.Now())

	require.NoError(t, err)
	assert.Equal(t, 0, result.Selected)
	assert.Empty(t, store.saved)
}
