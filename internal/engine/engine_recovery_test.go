package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/adityaaa08012006/decivue-sub004/internal/domain"
	"github.com/adityaaa08012006/decivue-sub004/internal/engine"
)

// Invariant 4 / Open Question 1: re-evaluating an Invalidated decision whose
// inputs no longer violate anything resets health to 100 first, giving it a
// real chance to recover. AtRisk never gets this reset.
func TestEvaluate_RecoveryFromInvalidated(t *testing.T) {
	now := time.Now()
	d := baseDecision()
	d.Lifecycle = domain.LifecycleInvalidated
	d.HealthSignal = 0
	d.LastReviewedAt = &now

	e := engine.New(nil)
	out := e.Evaluate(engine.Input{Decision: d, CurrentTimestamp: now})

	assert.NotEqual(t, domain.LifecycleInvalidated, out.NewLifecycle)
	assert.Equal(t, domain.LifecycleStable, out.NewLifecycle)
	assert.Equal(t, 100, out.NewHealthSignal)
}

func TestEvaluate_AtRiskIsNotResetLikeInvalidated(t *testing.T) {
	now := time.Now()
	longAgo := now.Add(-400 * 24 * time.Hour)
	d := baseDecision()
	d.Lifecycle = domain.LifecycleAtRisk
	d.HealthSignal = 10
	d.LastReviewedAt = &longAgo

	e := engine.New(nil)
	out := e.Evaluate(engine.Input{Decision: d, CurrentTimestamp: now})

	// AtRisk is not a terminal lifecycle, so the pipeline runs normally from
	// health=10 rather than being reset to 100 — it stays depressed if decay
	// keeps outpacing recovery.
	assert.Equal(t, domain.LifecycleAtRisk, out.NewLifecycle)
	assert.Less(t, out.NewHealthSignal, 80)
}

// Retired is terminal: the engine must never spontaneously leave it.
func TestEvaluate_RetiredStaysRetired(t *testing.T) {
	now := time.Now()
	d := baseDecision()
	d.Lifecycle = domain.LifecycleRetired
	d.HealthSignal = 0

	e := engine.New(nil)
	out := e.Evaluate(engine.Input{Decision: d, CurrentTimestamp: now})

	assert.Equal(t, domain.LifecycleRetired, out.NewLifecycle)
	assert.False(t, out.ChangesDetected)
}
