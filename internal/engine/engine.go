// Package engine implements the deterministic decision-evaluation pipeline:
// constraint validation, dependency propagation, assumption checking, expiry
// retirement, time decay, and lifecycle determination. The engine is a pure
// function of its Input — no randomness, no clock other than the
// CurrentTimestamp passed in, no I/O.
package engine

import (
	"encoding/json"
	"log/slog"
	"math"
	"time"

	"github.com/adityaaa08012006/decivue-sub004/internal/domain"
)

// Input is everything one Evaluate call needs: the decision itself, its
// resolved assumptions (universal ∪ decision-specific), its linked
// constraints, and the health/lifecycle of its direct dependencies.
type Input struct {
	Decision          domain.Decision
	Assumptions       []domain.Assumption
	Constraints       []domain.Constraint
	Dependencies      []domain.DependencySnapshot
	CurrentTimestamp  time.Time
}

// Output is the result of one evaluation: the new lifecycle, health, reason
// (if any), and the ordered trace explaining how the engine got there.
type Output struct {
	NewLifecycle      domain.Lifecycle
	NewHealthSignal   int
	InvalidatedReason *domain.InvalidatedReason
	Trace             []domain.TraceStep
	ChangesDetected   bool
}

// Engine runs the fixed five-phase (six including lifecycle determination)
// pipeline. It carries only a logger for phase-level tracing; it holds no
// mutable state and performs no I/O that could affect its output.
type Engine struct {
	logger *slog.Logger
}

// New builds an Engine. A nil logger is replaced with slog.Default(), never
// with a no-op — trace-level phase logging is useful even without a request
// context.
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Evaluate runs the full pipeline against in and returns the resulting
// Output. Calling Evaluate twice with an identical Input produces a
// byte-identical trace (determinism property, spec §8).
func (e *Engine) Evaluate(in Input) Output {
	d := in.Decision
	now := in.CurrentTimestamp

	// Invariant 4: re-evaluating an Invalidated decision resets its working
	// lifecycle to Stable and health to 100 before anything else runs, so it
	// gets a clean chance to recover if its inputs have healed. AtRisk is
	// never reset this way.
	lifecycle := d.Lifecycle
	health := d.HealthSignal
	if lifecycle == domain.LifecycleInvalidated {
		lifecycle = domain.LifecycleStable
		health = 100
	}

	var reason *domain.InvalidatedReason
	var trace []domain.TraceStep
	hardFailed := lifecycle.Terminal()
	if hardFailed {
		// Retired (or an Invalidated state that wasn't reset — can't happen
		// given the reset above, but kept defensive for Retired) stays put;
		// every phase below records a skip step and does not touch state.
		for _, step := range []string{
			stepConstraintValidation, stepDependencyPropagation, stepAssumptionCheck,
			stepExpiryRetirement, stepTimeDecay, stepLifecycleDetermination,
		} {
			trace = append(trace, e.skipStep(step, now, "decision is in a terminal lifecycle"))
		}
		return e.finish(d, lifecycle, health, reason, trace)
	}

	// Phase 1 — constraint validation.
	lifecycle, health, reason, step1 := e.phaseConstraintValidation(in, health)
	trace = append(trace, step1)
	if lifecycle == domain.LifecycleInvalidated {
		trace = append(trace,
			e.skipStep(stepDependencyPropagation, now, "hard failure in constraint validation"),
			e.skipStep(stepAssumptionCheck, now, "hard failure in constraint validation"),
			e.skipStep(stepExpiryRetirement, now, "hard failure in constraint validation"),
			e.skipStep(stepTimeDecay, now, "hard failure in constraint validation"),
		)
		trace = append(trace, e.keptTerminalStep(lifecycle, now))
		return e.finish(d, lifecycle, health, reason, trace)
	}

	// Phase 2 — dependency propagation.
	health, step2 := e.phaseDependencyPropagation(in, health)
	trace = append(trace, step2)

	// Phase 3 — assumption check.
	lifecycle, health, reason, step3 := e.phaseAssumptionCheck(in, health)
	trace = append(trace, step3)
	if lifecycle == domain.LifecycleInvalidated {
		trace = append(trace,
			e.skipStep(stepExpiryRetirement, now, "hard failure in assumption check"),
			e.skipStep(stepTimeDecay, now, "hard failure in assumption check"),
		)
		trace = append(trace, e.keptTerminalStep(lifecycle, now))
		return e.finish(d, lifecycle, health, reason, trace)
	}

	// Phase 4 — expiry-based retirement.
	lifecycle, reason, step4, retired := e.phaseExpiryRetirement(d, now, lifecycle)
	trace = append(trace, step4)
	if retired {
		trace = append(trace, e.skipStep(stepTimeDecay, now, "decision retired by expiry grace"))
		trace = append(trace, e.keptTerminalStep(lifecycle, now))
		return e.finish(d, lifecycle, health, reason, trace)
	}

	// Phase 5 — time/expiry decay.
	health, step5 := e.phaseTimeDecay(d, now, health)
	trace = append(trace, step5)

	// Phase 6 — lifecycle determination.
	var step6 domain.TraceStep
	lifecycle, step6 = e.phaseLifecycleDetermination(lifecycle, health, now)
	trace = append(trace, step6)

	return e.finish(d, lifecycle, health, reason, trace)
}

func (e *Engine) finish(d domain.Decision, lifecycle domain.Lifecycle, health int, reason *domain.InvalidatedReason, trace []domain.TraceStep) Output {
	out := Output{
		NewLifecycle:      lifecycle,
		NewHealthSignal:   clamp(health, 0, 100),
		InvalidatedReason: reason,
		Trace:             trace,
		ChangesDetected:   lifecycle != d.Lifecycle || clamp(health, 0, 100) != d.HealthSignal,
	}
	e.logger.Debug("engine evaluation complete",
		"decision_id", d.ID,
		"old_lifecycle", d.Lifecycle,
		"new_lifecycle", out.NewLifecycle,
		"old_health", d.HealthSignal,
		"new_health", out.NewHealthSignal,
		"changes_detected", out.ChangesDetected,
	)
	return out
}

func (e *Engine) skipStep(name string, now time.Time, reason string) domain.TraceStep {
	return domain.TraceStep{StepName: name, Passed: true, Details: "skipped: " + reason, Timestamp: now}
}

// keptTerminalStep records phase 6 when an earlier phase already forced a
// terminal lifecycle: "If previous phases set Invalidated or Retired, keep
// it" (spec §4.1 Phase 6).
func (e *Engine) keptTerminalStep(lifecycle domain.Lifecycle, now time.Time) domain.TraceStep {
	return domain.TraceStep{
		StepName:  stepLifecycleDetermination,
		Passed:    true,
		Details:   "kept terminal lifecycle " + string(lifecycle) + " set by an earlier phase",
		Timestamp: now,
	}
}

func reasonPtr(r domain.InvalidatedReason) *domain.InvalidatedReason { return &r }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// decodeConstraintPredicates parses a Constraint's opaque ValidationSpec into
// the predicate list the engine evaluates. An empty spec has no predicates
// and trivially passes.
func decodeConstraintPredicates(c domain.Constraint) ([]Predicate, error) {
	if len(c.ValidationSpec) == 0 {
		return nil, nil
	}
	var predicates []Predicate
	if err := json.Unmarshal(c.ValidationSpec, &predicates); err != nil {
		return nil, err
	}
	return predicates, nil
}

func daysBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours() / 24
}

func floorDiv(a, b float64) int {
	return int(math.Floor(a / b))
}
