// Package urgency computes the adaptive review-urgency score for a decision:
// a pure additive factor model, clamped to [0,100], that drives the
// Scheduler's next-review cadence.
package urgency

import (
	"time"

	"github.com/adityaaa08012006/decivue-sub004/internal/domain"
)

const baseScore = 50

// Context is everything the calculator needs about one decision to produce a
// score: the decision itself, plus the conflict counts an external
// ConflictDetector has raised against it and its linked assumptions.
type Context struct {
	Decision                      domain.Decision
	Now                           time.Time
	UnresolvedDecisionConflicts   int
	UnresolvedAssumptionConflicts int
}

// Result is the calculator's output: the clamped score, the chosen review
// cadence, the computed next review date, and a factor breakdown explaining
// how the score was reached.
type Result struct {
	Score               int
	ReviewFrequencyDays int
	NextReviewDate      time.Time
	Factors             map[string]int
}

// Calculate runs the additive factor model of spec §4.2 and returns the
// clamped score with its frequency band and factor breakdown.
func Calculate(ctx Context) Result {
	factors := map[string]int{}

	addFactor(factors, "lifecycle_risk", lifecycleRiskFactor(ctx.Decision.Lifecycle))
	addFactor(factors, "low_health", lowHealthFactor(ctx.Decision.HealthSignal))
	addFactor(factors, "review_aging", reviewAgingFactor(ctx.Decision, ctx.Now))
	addFactor(factors, "expiry_proximity", expiryProximityFactor(ctx.Decision, ctx.Now))
	addFactor(factors, "decision_conflicts", decisionConflictFactor(ctx.UnresolvedDecisionConflicts))
	addFactor(factors, "assumption_conflicts", assumptionConflictFactor(ctx.UnresolvedAssumptionConflicts))
	addFactor(factors, "needs_evaluation", needsEvaluationFactor(ctx.Decision.NeedsEvaluation))
	addFactor(factors, "review_neglect", reviewNeglectFactor(ctx.Decision.ConsecutiveDeferrals))

	total := baseScore
	for _, v := range factors {
		total += v
	}
	score := clamp(total, 0, 100)

	freq := frequencyBand(score)
	return Result{
		Score:               score,
		ReviewFrequencyDays: freq,
		NextReviewDate:      ctx.Now.AddDate(0, 0, freq),
		Factors:             factors,
	}
}

func addFactor(factors map[string]int, name string, value int) {
	if value != 0 {
		factors[name] = value
	}
}

func lifecycleRiskFactor(l domain.Lifecycle) int {
	switch l {
	case domain.LifecycleInvalidated:
		return 25
	case domain.LifecycleAtRisk:
		return 20
	case domain.LifecycleUnderReview:
		return 10
	case domain.LifecycleRetired:
		return -50
	default:
		return 0
	}
}

func lowHealthFactor(health int) int {
	switch {
	case health < 30:
		return 20
	case health < 50:
		return 10
	default:
		return 0
	}
}

func reviewAgingFactor(d domain.Decision, now time.Time) int {
	var lastReviewed time.Time
	if d.LastReviewedAt != nil {
		lastReviewed = *d.LastReviewedAt
	} else {
		lastReviewed = d.CreatedAt
	}
	daysSince := now.Sub(lastReviewed).Hours() / 24
	switch {
	case daysSince > 180:
		return 15
	case daysSince > 90:
		return 8
	default:
		return 0
	}
}

func expiryProximityFactor(d domain.Decision, now time.Time) int {
	if d.ExpiryDate == nil {
		return 0
	}
	daysToExpiry := d.ExpiryDate.Sub(now).Hours() / 24
	switch {
	case daysToExpiry < 7:
		return 15
	case daysToExpiry < 30:
		return 10
	case daysToExpiry < 60:
		return 5
	default:
		return 0
	}
}

func decisionConflictFactor(count int) int {
	switch {
	case count > 2:
		return 15
	case count > 0:
		return 8
	default:
		return 0
	}
}

func assumptionConflictFactor(count int) int {
	switch {
	case count > 1:
		return 10
	case count > 0:
		return 5
	default:
		return 0
	}
}

func needsEvaluationFactor(needsEvaluation bool) int {
	if needsEvaluation {
		return 10
	}
	return 0
}

func reviewNeglectFactor(consecutiveDeferrals int) int {
	switch {
	case consecutiveDeferrals >= 3:
		return 20
	case consecutiveDeferrals == 2:
		return 10
	case consecutiveDeferrals == 1:
		return 5
	default:
		return 0
	}
}

func frequencyBand(score int) int {
	switch {
	case score >= 80:
		return 7
	case score >= 60:
		return 30
	case score >= 40:
		return 60
	default:
		return 90
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
