package propagation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaaa08012006/decivue-sub004/internal/domain"
	"github.com/adityaaa08012006/decivue-sub004/internal/propagation"
)

type fakeReader struct {
	linkedToAssumption map[string][]string
	allInOrg           []string
	linkedToConstraint map[string][]string
	dependents         map[string][]string
}

func (f *fakeReader) ListDecisionsLinkedToAssumption(_ context.Context, _, assumptionID string) ([]string, error) {
	return f.linkedToAssumption[assumptionID], nil
}
func (f *fakeReader) ListDecisionIDsInOrg(_ context.Context, _ string) ([]string, error) {
	return f.allInOrg, nil
}
func (f *fakeReader) ListDecisionsLinkedToConstraint(_ context.Context, _, constraintID string) ([]string, error) {
	return f.linkedToConstraint[constraintID], nil
}
func (f *fakeReader) GetDependents(_ context.Context, _, decisionID string) ([]string, error) {
	return f.dependents[decisionID], nil
}
func (f *fakeReader) GetDecisionLifecycle(_ context.Context, _, _ string) (domain.Lifecycle, error) {
	return domain.LifecycleStable, nil
}

type fakeMarker struct {
	calls []struct {
		org string
		ids []string
	}
}

func (f *fakeMarker) MarkDirty(_ context.Context, orgID string, ids []string) error {
	f.calls = append(f.calls, struct {
		org string
		ids []string
	}{orgID, ids})
	return nil
}

func TestApply_UniversalAssumptionDirtiesWholeOrg(t *testing.T) {
	reader := &fakeReader{
		linkedToAssumption: map[string][]string{"a1": {"d1"}},
		allInOrg:           []string{"d1", "d2", "d3"},
	}
	marker := &fakeMarker{}
	c := propagation.New(reader, marker)

	err := c.Apply(context.Background(), propagation.Event{
		Kind: propagation.EventAssumptionChanged, OrgID: "org1",
		AssumptionID: "a1", AssumptionIsUniversal: true,
	})

	require.NoError(t, err)
	require.Len(t, marker.calls, 1)
	assert.ElementsMatch(t, []string{"d1", "d2", "d3"}, marker.calls[0].ids)
}

func TestApply_DecisionSpecificAssumptionOnlyDirtiesLinked(t *testing.T) {
	reader := &fakeReader{linkedToAssumption: map[string][]string{"a1": {"d1"}}}
	marker := &fakeMarker{}
	c := propagation.New(reader, marker)

	err := c.Apply(context.Background(), propagation.Event{
		Kind: propagation.EventAssumptionChanged, OrgID: "org1", AssumptionID: "a1",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, marker.calls[0].ids)
}

func TestApply_DependencyOutputChangeDirtiesOneHopSources(t *testing.T) {
	reader := &fakeReader{dependents: map[string][]string{"d5": {"d4"}}}
	marker := &fakeMarker{}
	c := propagation.New(reader, marker)

	err := c.Apply(context.Background(), propagation.Event{
		Kind: propagation.EventDependencyOutputChanged, OrgID: "org1", TargetDecisionID: "d5",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"d4"}, marker.calls[0].ids)
}

func TestApply_NoFanOutSkipsMarker(t *testing.T) {
	reader := &fakeReader{}
	marker := &fakeMarker{}
	c := propagation.New(reader, marker)

	err := c.Apply(context.Background(), propagation.Event{
		Kind: propagation.EventDependencyLinked, OrgID: "org1",
	})

	require.NoError(t, err)
	assert.Empty(t, marker.calls)
}
