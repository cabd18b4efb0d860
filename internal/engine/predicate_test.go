package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaaa08012006/decivue-sub004/internal/domain"
)

func constraintWithSpec(spec []byte) domain.Constraint {
	return domain.Constraint{ID: "c1", Name: "test", ValidationSpec: spec}
}

func TestEvaluatePredicate_Operators(t *testing.T) {
	data := map[string]any{
		"budget": map[string]any{"usd": 4500.0},
		"region": "eu-west-1",
		"tier":   "gold",
	}

	cases := []struct {
		name string
		p    Predicate
		want bool
	}{
		{"lte pass", Predicate{Path: "budget.usd", Operator: OpLessOrEqual, Value: 5000.0}, true},
		{"lte fail", Predicate{Path: "budget.usd", Operator: OpLessOrEqual, Value: 1000.0}, false},
		{"gte pass", Predicate{Path: "budget.usd", Operator: OpGreaterOrEqual, Value: 4000.0}, true},
		{"eq pass", Predicate{Path: "region", Operator: OpEqual, Value: "eu-west-1"}, true},
		{"in pass", Predicate{Path: "tier", Operator: OpIn, Value: []any{"silver", "gold"}}, true},
		{"in fail", Predicate{Path: "tier", Operator: OpIn, Value: []any{"silver", "bronze"}}, false},
		{"between pass", Predicate{Path: "budget.usd", Operator: OpBetween, Value: []any{1000.0, 5000.0}}, true},
		{"matches pass", Predicate{Path: "region", Operator: OpMatches, Value: "^eu-"}, true},
		{"missing path fails", Predicate{Path: "budget.eur", Operator: OpGreaterOrEqual, Value: 0.0}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			passed, _, err := evaluatePredicate(tc.p, data)
			require.NoError(t, err)
			assert.Equal(t, tc.want, passed)
		})
	}
}

func TestDecodeConstraintPredicates_EmptySpec(t *testing.T) {
	predicates, err := decodeConstraintPredicates(constraintWithSpec(nil))
	require.NoError(t, err)
	assert.Empty(t, predicates)
}

func TestDecodeConstraintPredicates_RoundTrip(t *testing.T) {
	raw, err := json.Marshal([]Predicate{{Path: "budget.usd", Operator: OpLessOrEqual, Value: 5000.0}})
	require.NoError(t, err)

	predicates, err := decodeConstraintPredicates(constraintWithSpec(raw))
	require.NoError(t, err)
	require.Len(t, predicates, 1)
	assert.Equal(t, "budget.usd", predicates[0].Path)
}
