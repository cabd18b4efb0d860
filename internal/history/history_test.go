package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaaa08012006/decivue-sub004/internal/domain"
	"github.com/adityaaa08012006/decivue-sub004/internal/history"
)

func TestApplyReviewOutcome_Deferred(t *testing.T) {
	reviewedAt := time.Now().Add(-48 * time.Hour)
	d := domain.Decision{ConsecutiveDeferrals: 1, LastReviewedAt: &reviewedAt}

	result := history.ApplyReviewOutcome(d, domain.OutcomeDeferred, time.Now())

	assert.Equal(t, 2, result.ConsecutiveDeferrals)
	assert.Equal(t, &reviewedAt, result.LastReviewedAt)
}

func TestApplyReviewOutcome_ReaffirmedResetsDeferralsAndAdvancesReview(t *testing.T) {
	reviewedAt := time.Now().Add(-48 * time.Hour)
	d := domain.Decision{ConsecutiveDeferrals: 3, LastReviewedAt: &reviewedAt}
	now := time.Now()

	result := history.ApplyReviewOutcome(d, domain.OutcomeReaffirmed, now)

	assert.Equal(t, 0, result.ConsecutiveDeferrals)
	require.NotNil(t, result.LastReviewedAt)
	assert.WithinDuration(t, now, *result.LastReviewedAt, time.Millisecond)
}

func TestReplayTitleDescriptionCategory_RoundTrip(t *testing.T) {
	versions := []domain.DecisionVersion{
		{VersionNumber: 1, Snapshot: domain.EditableSnapshot{Title: "v1 title"}},
		{VersionNumber: 3, Snapshot: domain.EditableSnapshot{Title: "v3 title", Description: "third"}},
		{VersionNumber: 2, Snapshot: domain.EditableSnapshot{Title: "v2 title"}},
	}

	got := history.ReplayTitleDescriptionCategory(versions)

	assert.Equal(t, "v3 title", got.Title)
	assert.Equal(t, "third", got.Description)
}

type fakeStore struct {
	versions    []domain.DecisionVersion
	reviews     []domain.DecisionReview
	relations   []domain.DecisionRelationChange
	evaluations []domain.EvaluationHistory
	saved       []domain.Decision
}

func (f *fakeStore) GetVersionHistory(_ context.Context, _, _ string) ([]domain.DecisionVersion, error) {
	return f.versions, nil
}
func (f *fakeStore) GetReviewHistory(_ context.Context, _, _ string) ([]domain.DecisionReview, error) {
	return f.reviews, nil
}
func (f *fakeStore) GetRelationHistory(_ context.Context, _, _ string) ([]domain.DecisionRelationChange, error) {
	return f.relations, nil
}
func (f *fakeStore) GetEvaluationHistory(_ context.Context, _, _ string) ([]domain.EvaluationHistory, error) {
	return f.evaluations, nil
}
func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
func (f *fakeStore) SaveDecision(_ context.Context, d domain.Decision) error {
	f.saved = append(f.saved, d)
	return nil
}
func (f *fakeStore) AppendReview(_ context.Context, r domain.DecisionReview) error {
	f.reviews = append(f.reviews, r)
	return nil
}
func (f *fakeStore) AppendDecisionVersion(_ context.Context, v domain.DecisionVersion) (domain.DecisionVersion, error) {
	f.versions = append(f.versions, v)
	return v, nil
}
func (f *fakeStore) AppendEvaluationHistory(_ context.Context, e domain.EvaluationHistory) error {
	f.evaluations = append(f.evaluations, e)
	return nil
}

func TestTimeline_MergesFourStreamsByEventTimeDescending(t *testing.T) {
	base := time.Now()
	store := &fakeStore{
		versions:    []domain.DecisionVersion{{CreatedAt: base.Add(-3 * time.Hour)}},
		reviews:     []domain.DecisionReview{{CreatedAt: base.Add(-1 * time.Hour)}},
		relations:   []domain.DecisionRelationChange{{CreatedAt: base.Add(-2 * time.Hour)}},
		evaluations: []domain.EvaluationHistory{{EvaluatedAt: base}},
	}
	r := historyRecorderFor(t, store)

	entries, err := r.Timeline(context.Background(), "org1", "d1")

	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, domain.TimelineEvaluation, entries[0].Type)
	assert.Equal(t, domain.TimelineReview, entries[1].Type)
	assert.Equal(t, domain.TimelineRelationChange, entries[2].Type)
	assert.Equal(t, domain.TimelineVersion, entries[3].Type)
}

func historyRecorderFor(t *testing.T, s *fakeStore) *history.Recorder {
	t.Helper()
	return history.New(s)
}
