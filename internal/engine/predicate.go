package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Operator is one of the comparison operators the constraint predicate
// language supports (spec §4.1 Phase 1).
type Operator string

const (
	OpLessOrEqual    Operator = "<="
	OpGreaterOrEqual Operator = ">="
	OpEqual          Operator = "=="
	OpIn             Operator = "in"
	OpBetween        Operator = "between"
	OpMatches        Operator = "matches"
)

// Predicate is one clause of a constraint's validation spec: a dotted path
// into the decision's parameters/metadata, compared against Value by
// Operator. Constraints may carry several predicates; all must pass.
type Predicate struct {
	Path     string   `json:"path"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// Violation describes a single failed predicate, expected vs actual, for the
// trace.
type Violation struct {
	ConstraintID string
	ConstraintName string
	Path         string
	Operator     Operator
	Expected     any
	Actual       any
}

// evaluatePredicate resolves Path against data and applies Operator/Value.
// Returns (passed, actualValue, error). A missing path is a failure, not an
// error: the predicate simply does not hold against absent data.
func evaluatePredicate(p Predicate, data map[string]any) (bool, any, error) {
	actual, found := lookupPath(data, p.Path)
	if !found {
		return false, nil, nil
	}

	switch p.Operator {
	case OpEqual:
		return fmt.Sprintf("%v", actual) == fmt.Sprintf("%v", p.Value), actual, nil

	case OpIn:
		values, ok := p.Value.([]any)
		if !ok {
			return false, actual, fmt.Errorf("predicate %q: 'in' requires a list value", p.Path)
		}
		for _, v := range values {
			if fmt.Sprintf("%v", v) == fmt.Sprintf("%v", actual) {
				return true, actual, nil
			}
		}
		return false, actual, nil

	case OpMatches:
		pattern, ok := p.Value.(string)
		if !ok {
			return false, actual, fmt.Errorf("predicate %q: 'matches' requires a string pattern", p.Path)
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false, actual, fmt.Errorf("predicate %q: invalid regex %q: %w", p.Path, pattern, err)
		}
		return re.MatchString(fmt.Sprintf("%v", actual)), actual, nil

	case OpLessOrEqual, OpGreaterOrEqual:
		a, okA := toFloat(actual)
		b, okB := toFloat(p.Value)
		if !okA || !okB {
			return false, actual, fmt.Errorf("predicate %q: %s requires numeric operands", p.Path, p.Operator)
		}
		if p.Operator == OpLessOrEqual {
			return a <= b, actual, nil
		}
		return a >= b, actual, nil

	case OpBetween:
		bounds, ok := p.Value.([]any)
		if !ok || len(bounds) != 2 {
			return false, actual, fmt.Errorf("predicate %q: 'between' requires a [low, high] value", p.Path)
		}
		a, okA := toFloat(actual)
		lo, okLo := toFloat(bounds[0])
		hi, okHi := toFloat(bounds[1])
		if !okA || !okLo || !okHi {
			return false, actual, fmt.Errorf("predicate %q: 'between' requires numeric operands", p.Path)
		}
		return a >= lo && a <= hi, actual, nil

	default:
		return false, actual, fmt.Errorf("predicate %q: unknown operator %q", p.Path, p.Operator)
	}
}

// lookupPath walks a dotted path ("limits.budget.usd") through nested maps.
func lookupPath(data map[string]any, path string) (any, bool) {
	if data == nil {
		return nil, false
	}
	parts := strings.Split(path, ".")
	var cur any = data
	for _, part := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := m[part]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
