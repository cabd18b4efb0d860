package engine

import (
	"fmt"
	"time"

	"github.com/adityaaa08012006/decivue-sub004/internal/domain"
)

// phaseConstraintValidation is Phase 1: every linked constraint's predicates
// must hold against the decision's parameters. A single failed predicate
// hard-fails the whole decision.
func (e *Engine) phaseConstraintValidation(in Input, health int) (domain.Lifecycle, int, *domain.InvalidatedReason, domain.TraceStep) {
	now := in.CurrentTimestamp
	data := in.Decision.Parameters

	var violations []Violation
	for _, c := range in.Constraints {
		predicates, err := decodeConstraintPredicates(c)
		if err != nil {
			violations = append(violations, Violation{
				ConstraintID: c.ID, ConstraintName: c.Name,
				Path: "<validation_spec>", Expected: "valid predicate JSON", Actual: err.Error(),
			})
			continue
		}
		for _, p := range predicates {
			passed, actual, err := evaluatePredicate(p, data)
			if err != nil || !passed {
				expected := fmt.Sprintf("%s %v", p.Operator, p.Value)
				if err != nil {
					expected = err.Error()
				}
				violations = append(violations, Violation{
					ConstraintID: c.ID, ConstraintName: c.Name,
					Path: p.Path, Operator: p.Operator, Expected: expected, Actual: actual,
				})
			}
		}
	}

	if len(violations) > 0 {
		step := domain.TraceStep{
			StepName:  stepConstraintValidation,
			Passed:    false,
			Details:   fmt.Sprintf("%d constraint predicate(s) violated", len(violations)),
			Timestamp: now,
			Metadata:  map[string]any{"violations": violations},
		}
		return domain.LifecycleInvalidated, 0, reasonPtr(domain.ReasonConstraintViolation), step
	}

	step := domain.TraceStep{
		StepName:  stepConstraintValidation,
		Passed:    true,
		Details:   fmt.Sprintf("%d constraint(s) checked, all satisfied", len(in.Constraints)),
		Timestamp: now,
	}
	return in.Decision.Lifecycle, health, nil, step
}

// phaseDependencyPropagation is Phase 2: the working health ceiling is the
// minimum health of all direct dependencies. Dependencies never invalidate;
// they only lower the ceiling.
func (e *Engine) phaseDependencyPropagation(in Input, health int) (int, domain.TraceStep) {
	now := in.CurrentTimestamp
	if len(in.Dependencies) == 0 {
		return health, domain.TraceStep{
			StepName: stepDependencyPropagation, Passed: true,
			Details: "no dependencies; ceiling 100", Timestamp: now,
		}
	}

	ceiling := 100
	for _, dep := range in.Dependencies {
		if dep.HealthSignal < ceiling {
			ceiling = dep.HealthSignal
		}
	}
	newHealth := health
	if ceiling < newHealth {
		newHealth = ceiling
	}

	return newHealth, domain.TraceStep{
		StepName: stepDependencyPropagation, Passed: true,
		Details:   fmt.Sprintf("ceiling %d from %d dependencies applied", ceiling, len(in.Dependencies)),
		Timestamp: now,
		Metadata:  map[string]any{"ceiling": ceiling, "dependency_count": len(in.Dependencies)},
	}
}

// phaseAssumptionCheck is Phase 3: any Broken universal assumption hard-fails
// immediately; decision-specific assumptions apply a proportional penalty
// and hard-fail only once the broken ratio crosses AssumptionHardFailRatio.
// When both rules would fire in the same pass, universal-broken wins.
func (e *Engine) phaseAssumptionCheck(in Input, health int) (domain.Lifecycle, int, *domain.InvalidatedReason, domain.TraceStep) {
	now := in.CurrentTimestamp

	var universalBroken []string
	var specificTotal, specificBroken, specificShaky int
	for _, a := range in.Assumptions {
		switch a.Scope {
		case domain.ScopeUniversal:
			if a.Status == domain.AssumptionBroken {
				universalBroken = append(universalBroken, a.ID)
			}
		case domain.ScopeDecisionSpecific:
			specificTotal++
			switch a.Status {
			case domain.AssumptionBroken:
				specificBroken++
			case domain.AssumptionShaky:
				specificShaky++
			}
		}
	}

	if len(universalBroken) > 0 {
		step := domain.TraceStep{
			StepName: stepAssumptionCheck, Passed: false,
			Details:   fmt.Sprintf("%d broken universal assumption(s)", len(universalBroken)),
			Timestamp: now,
			Metadata:  map[string]any{"broken_universal_assumption_ids": universalBroken},
		}
		return domain.LifecycleInvalidated, 0, reasonPtr(domain.ReasonBrokenAssumptions), step
	}

	if specificTotal == 0 {
		return in.Decision.Lifecycle, health, nil, domain.TraceStep{
			StepName: stepAssumptionCheck, Passed: true,
			Details: "no decision-specific assumptions linked", Timestamp: now,
		}
	}

	ratio := float64(specificBroken) / float64(specificTotal)
	penalty := int(ratio * AssumptionPenaltyCeiling)
	newHealth := health - penalty

	meta := map[string]any{
		"decision_specific_total":  specificTotal,
		"decision_specific_broken": specificBroken,
		"decision_specific_shaky":  specificShaky,
		"broken_ratio":             ratio,
		"penalty":                  penalty,
	}

	if ratio >= AssumptionHardFailRatio {
		step := domain.TraceStep{
			StepName: stepAssumptionCheck, Passed: false,
			Details:   fmt.Sprintf("broken ratio %.2f >= hard-fail threshold %.2f", ratio, AssumptionHardFailRatio),
			Timestamp: now, Metadata: meta,
		}
		return domain.LifecycleInvalidated, 0, reasonPtr(domain.ReasonBrokenAssumptions), step
	}

	step := domain.TraceStep{
		StepName: stepAssumptionCheck, Passed: true,
		Details:   fmt.Sprintf("proportional penalty %d applied (%d/%d broken)", penalty, specificBroken, specificTotal),
		Timestamp: now, Metadata: meta,
	}
	return in.Decision.Lifecycle, newHealth, nil, step
}

// phaseExpiryRetirement is Phase 4: a decision more than
// ExpiryRetirementGraceDays past its expiry date is force-retired. This is
// terminal within the same evaluation — no later phase touches state.
func (e *Engine) phaseExpiryRetirement(d domain.Decision, now time.Time, lifecycle domain.Lifecycle) (domain.Lifecycle, *domain.InvalidatedReason, domain.TraceStep, bool) {
	if d.ExpiryDate == nil {
		return lifecycle, nil, domain.TraceStep{
			StepName: stepExpiryRetirement, Passed: true,
			Details: "no expiry date set", Timestamp: now,
		}, false
	}

	overdueDays := daysBetween(*d.ExpiryDate, now)
	if overdueDays > ExpiryRetirementGraceDays {
		return domain.LifecycleRetired, reasonPtr(domain.ReasonExpired), domain.TraceStep{
			StepName: stepExpiryRetirement, Passed: false,
			Details:   fmt.Sprintf("%.1f days overdue exceeds %d day grace", overdueDays, ExpiryRetirementGraceDays),
			Timestamp: now,
		}, true
	}

	return lifecycle, nil, domain.TraceStep{
		StepName: stepExpiryRetirement, Passed: true,
		Details:   fmt.Sprintf("%.1f days overdue within grace (or not yet expired)", overdueDays),
		Timestamp: now,
	}, false
}

// phaseTimeDecay is Phase 5: erodes working health either by distance to
// expiry (expiry-anchored) or by staleness since the last human review
// (review-anchored). Never invalidates.
func (e *Engine) phaseTimeDecay(d domain.Decision, now time.Time, health int) (int, domain.TraceStep) {
	if d.ExpiryDate != nil {
		daysToExpiry := daysBetween(now, *d.ExpiryDate)
		decay := expiryAnchoredDecay(daysToExpiry)
		newHealth := health - decay
		return newHealth, domain.TraceStep{
			StepName: stepTimeDecay, Passed: true,
			Details:   fmt.Sprintf("expiry-anchored decay %d (%.1f days to expiry)", decay, daysToExpiry),
			Timestamp: now,
			Metadata:  map[string]any{"decay": decay, "days_to_expiry": daysToExpiry},
		}
	}

	var lastReviewed time.Time
	if d.LastReviewedAt != nil {
		lastReviewed = *d.LastReviewedAt
	} else {
		lastReviewed = d.CreatedAt
	}
	daysSinceReview := daysBetween(lastReviewed, now)
	decay := floorDiv(daysSinceReview, 30)
	newHealth := health - decay

	return newHealth, domain.TraceStep{
		StepName: stepTimeDecay, Passed: true,
		Details:   fmt.Sprintf("review-anchored decay %d (%.1f days since last review)", decay, daysSinceReview),
		Timestamp: now,
		Metadata:  map[string]any{"decay": decay, "days_since_review": daysSinceReview},
	}
}

// expiryAnchoredDecay implements the piecewise decay schedule of spec §4.1
// Phase 5, expiry-anchored regime. daysToExpiry may be negative (past
// expiry, still within the retirement grace window).
func expiryAnchoredDecay(daysToExpiry float64) int {
	const warningBandDecay = 4 // full 90->30 day decay: 60 days / 15 days-per-point = 4 points

	switch {
	case daysToExpiry > 90:
		return 0
	case daysToExpiry > 30:
		elapsedPast90 := 90 - daysToExpiry
		return floorDiv(elapsedPast90, 15)
	case daysToExpiry > 0:
		insideCriticalWindow := 30 - daysToExpiry
		return warningBandDecay + floorDiv(insideCriticalWindow, 5)
	default:
		overdueDays := -daysToExpiry
		return warningBandDecay + floorDiv(30, 5) + int(overdueDays)
	}
}

// phaseLifecycleDetermination is Phase 6: maps working health onto a
// lifecycle band. Health alone can never produce Invalidated or Retired
// (invariant 2); those are only ever set by an earlier hard-fail phase, and
// this phase is never reached in that case (the pipeline short-circuits).
func (e *Engine) phaseLifecycleDetermination(lifecycle domain.Lifecycle, health int, now time.Time) (domain.Lifecycle, domain.TraceStep) {
	var mapped domain.Lifecycle
	switch {
	case health >= 80:
		mapped = domain.LifecycleStable
	case health >= 60:
		mapped = domain.LifecycleUnderReview
	default:
		mapped = domain.LifecycleAtRisk
	}

	return mapped, domain.TraceStep{
		StepName: stepLifecycleDetermination, Passed: true,
		Details:   fmt.Sprintf("health %d maps to lifecycle %s", health, mapped),
		Timestamp: now,
	}
}
