// Package scheduler selects decisions due for evaluation, runs them through
// the Engine with a small bounded worker pool, and atomically persists each
// result (spec §4.4, §5).
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/adityaaa08012006/decivue-sub004/internal/domain"
	"github.com/adityaaa08012006/decivue-sub004/internal/engine"
	"github.com/adityaaa08012006/decivue-sub004/internal/history"
	"github.com/adityaaa08012006/decivue-sub004/internal/metrics"
	"github.com/adityaaa08012006/decivue-sub004/internal/propagation"
	"github.com/adityaaa08012006/decivue-sub004/internal/resilience"
	"github.com/adityaaa08012006/decivue-sub004/internal/urgency"
)

// defaultStalenessThreshold is the staleness window from spec §4.4 rule 3.
const defaultStalenessThreshold = 24 * time.Hour

// expiryWindow is the ±30 day window from spec §4.4 rule 4.
const expiryWindow = 30 * 24 * time.Hour

// Store is the subset of collaborators.Store the Scheduler needs: candidate
// selection, the engine's read-side inputs, and the atomic per-decision
// write (decision + optional evaluation history row).
type Store interface {
	ListDecisionsNeedingEvaluation(ctx context.Context, orgID string, stalenessThreshold time.Duration, limit int) ([]domain.Decision, error)
	GetLinkedAssumptionIDs(ctx context.Context, orgID, decisionID string) ([]string, error)
	GetAssumptions(ctx context.Context, orgID string, ids []string) ([]domain.Assumption, error)
	GetUniversalAssumptions(ctx context.Context, orgID string) ([]domain.Assumption, error)
	GetLinkedConstraintIDs(ctx context.Context, orgID, decisionID string) ([]string, error)
	GetConstraints(ctx context.Context, orgID string, ids []string) ([]domain.Constraint, error)
	GetDependencies(ctx context.Context, orgID, decisionID string) ([]domain.DependencySnapshot, error)
	SaveDecision(ctx context.Context, d domain.Decision) error
	AppendEvaluationHistory(ctx context.Context, rec domain.EvaluationHistory) error
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CountUnresolvedConflicts(ctx context.Context, orgID, decisionID string) (assumptionConflicts, decisionConflicts int, err error)
}

// Propagator is the subset of propagation.Coordinator the Scheduler needs:
// notifying downstream decisions that a just-evaluated decision's output
// (lifecycle/health) may have changed.
type Propagator interface {
	Apply(ctx context.Context, ev propagation.Event) error
}

// Config tunes one Scheduler instance. Zero values fall back to spec defaults.
type Config struct {
	StalenessThreshold time.Duration
	BatchSize          int
	Workers            int
	TickWallClockCap   time.Duration
	PerTickRateLimit   float64 // evaluations/sec; 0 disables the limiter
}

func (c Config) withDefaults() Config {
	if c.StalenessThreshold <= 0 {
		c.StalenessThreshold = defaultStalenessThreshold
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.TickWallClockCap <= 0 {
		c.TickWallClockCap = 30 * time.Second
	}
	return c
}

// Scheduler runs ticks: select candidates, evaluate, persist, propagate,
// recompute urgency (spec §4.4).
type Scheduler struct {
	store       Store
	engine      *engine.Engine
	recorder    *history.Recorder
	propagator  Propagator
	cfg         Config
	logger      *slog.Logger
	metrics     *metrics.SchedulerMetrics
	retryPolicy *resilience.RetryPolicy
}

// New builds a Scheduler. A nil logger defaults to slog.Default(); a nil
// metrics set defaults to metrics.DefaultRegistry().Scheduler(). Per-decision
// persistence is retried under resilience.DefaultRetryPolicy with a
// SerializationConflictChecker, matching spec §7 class 3's infra-fault
// retry policy for the store.
func New(store Store, eng *engine.Engine, recorder *history.Recorder, propagator Propagator, cfg Config, logger *slog.Logger, m *metrics.SchedulerMetrics) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.DefaultRegistry().Scheduler()
	}
	retryPolicy := resilience.DefaultRetryPolicy()
	retryPolicy.ErrorChecker = &resilience.SerializationConflictChecker{}
	retryPolicy.Logger = logger
	retryPolicy.Metrics = m.Retry
	retryPolicy.OperationName = "persist_decision"
	return &Scheduler{
		store:       store,
		engine:      eng,
		recorder:    recorder,
		propagator:  propagator,
		cfg:         cfg.withDefaults(),
		logger:      logger,
		metrics:     m,
		retryPolicy: retryPolicy,
	}
}

// TickResult summarizes one RunEvaluationBatch call.
type TickResult struct {
	Selected  int
	Evaluated int
	Changed   int
	Skipped   int
	Errors    []error
}

// RunEvaluationBatch is the scheduler tick: select up to cfg.BatchSize due
// decisions, evaluate each through a bounded worker pool, and persist
// results atomically per decision (spec §6 RunEvaluationBatch).
func (s *Scheduler) RunEvaluationBatch(ctx context.Context, orgID string, now time.Time) (TickResult, error) {
	tickCtx, cancel := context.WithTimeout(ctx, s.cfg.TickWallClockCap)
	defer cancel()

	s.metrics.TicksTotal.Inc()
	start := time.Now()
	defer func() { s.metrics.TickDuration.Observe(time.Since(start).Seconds()) }()

	candidates, err := s.SelectCandidates(tickCtx, orgID, now)
	if err != nil {
		return TickResult{}, fmt.Errorf("scheduler: selecting candidates: %w", err)
	}

	s.metrics.CandidatesQueued.Set(float64(len(candidates)))

	if len(candidates) > s.cfg.BatchSize {
		candidates = candidates[:s.cfg.BatchSize]
	}
	s.metrics.BatchSize.Observe(float64(len(candidates)))

	result := TickResult{Selected: len(candidates)}
	if len(candidates) == 0 {
		return result, nil
	}

	var limiter *rate.Limiter
	if s.cfg.PerTickRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.cfg.PerTickRateLimit), 1)
	}

	sem := make(chan struct{}, s.cfg.Workers)
	results := make(chan tickOutcome, len(candidates))

	for _, d := range candidates {
		select {
		case <-tickCtx.Done():
			results <- tickOutcome{skipped: true}
			continue
		default:
		}

		if limiter != nil {
			if err := limiter.Wait(tickCtx); err != nil {
				results <- tickOutcome{skipped: true}
				continue
			}
		}

		sem <- struct{}{}
		go func(d domain.Decision) {
			defer func() { <-sem }()
			results <- s.evaluateAndPersist(tickCtx, orgID, d, now)
		}(d)
	}

	for i := 0; i < len(candidates); i++ {
		outcome := <-results
		switch {
		case outcome.skipped:
			result.Skipped++
		case outcome.err != nil:
			result.Errors = append(result.Errors, outcome.err)
		default:
			result.Evaluated++
			if outcome.changed {
				result.Changed++
			}
		}
	}

	s.logger.Info("scheduler tick complete",
		"org", orgID,
		"selected", result.Selected,
		"evaluated", result.Evaluated,
		"changed", result.Changed,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
	)
	return result, nil
}

type tickOutcome struct {
	changed bool
	skipped bool
	err     error
}

// evaluateAndPersist runs one decision through the Engine and atomically
// applies the result: saved decision fields, optional EvaluationHistory
// row, needsEvaluation clear, lastEvaluatedAt advance (spec §4.4 a-c, §5
// ordering guarantee).
func (s *Scheduler) evaluateAndPersist(ctx context.Context, orgID string, d domain.Decision, now time.Time) tickOutcome {
	assumptions, err := s.gatherAssumptions(ctx, orgID, d.ID)
	if err != nil {
		return tickOutcome{err: err}
	}
	constraintIDs, err := s.store.GetLinkedConstraintIDs(ctx, orgID, d.ID)
	if err != nil {
		return tickOutcome{err: fmt.Errorf("scheduler: loading constraint links for %s: %w", d.ID, err)}
	}
	constraints, err := s.store.GetConstraints(ctx, orgID, constraintIDs)
	if err != nil {
		return tickOutcome{err: fmt.Errorf("scheduler: loading constraints for %s: %w", d.ID, err)}
	}
	deps, err := s.store.GetDependencies(ctx, orgID, d.ID)
	if err != nil {
		return tickOutcome{err: fmt.Errorf("scheduler: loading dependencies for %s: %w", d.ID, err)}
	}

	out := s.engine.Evaluate(engine.Input{
		Decision:         d,
		Assumptions:      assumptions,
		Constraints:      constraints,
		Dependencies:     deps,
		CurrentTimestamp: now,
	})

	preLifecycle, preHealth := d.Lifecycle, d.HealthSignal
	d.Lifecycle = out.NewLifecycle
	d.HealthSignal = out.NewHealthSignal
	d.InvalidatedReason = out.InvalidatedReason
	d.NeedsEvaluation = false
	d.LastEvaluatedAt = &now

	assumptionConflicts, decisionConflicts, err := s.store.CountUnresolvedConflicts(ctx, orgID, d.ID)
	if err != nil {
		return tickOutcome{err: fmt.Errorf("scheduler: counting conflicts for %s: %w", d.ID, err)}
	}
	urg := urgency.Calculate(urgency.Context{
		Decision:                      d,
		Now:                           now,
		UnresolvedDecisionConflicts:   decisionConflicts,
		UnresolvedAssumptionConflicts: assumptionConflicts,
	})
	d.ReviewUrgencyScore = urg.Score
	d.ReviewFrequencyDays = urg.ReviewFrequencyDays
	d.NextReviewDate = &urg.NextReviewDate
	d.UrgencyFactors = urg.Factors

	err = resilience.WithRetry(ctx, s.retryPolicy, func() error {
		return s.store.WithTx(ctx, func(ctx context.Context) error {
			if err := s.store.SaveDecision(ctx, d); err != nil {
				return err
			}
			if !out.ChangesDetected {
				return nil
			}
			return s.recorder.RecordEvaluation(ctx, domain.EvaluationHistory{
				ID:                generateID(),
				DecisionID:        d.ID,
				OldLifecycle:      preLifecycle,
				NewLifecycle:      d.Lifecycle,
				OldHealth:         preHealth,
				NewHealth:         d.HealthSignal,
				InvalidatedReason: d.InvalidatedReason,
				Trace:             out.Trace,
				TriggeredBy:       domain.TriggerAutomatic,
				EvaluatedAt:       now,
			})
		})
	})
	if err != nil {
		return tickOutcome{err: fmt.Errorf("scheduler: persisting %s: %w", d.ID, err)}
	}

	if preLifecycle != d.Lifecycle || preHealth != d.HealthSignal {
		if err := s.propagator.Apply(ctx, propagation.Event{
			Kind:             propagation.EventDependencyOutputChanged,
			OrgID:            orgID,
			TargetDecisionID: d.ID,
		}); err != nil {
			s.logger.Warn("scheduler: propagation failed", "decision", d.ID, "error", err)
		}
	}

	return tickOutcome{changed: out.ChangesDetected}
}

func (s *Scheduler) gatherAssumptions(ctx context.Context, orgID, decisionID string) ([]domain.Assumption, error) {
	ids, err := s.store.GetLinkedAssumptionIDs(ctx, orgID, decisionID)
	if err != nil {
		return nil, fmt.Errorf("scheduler: loading assumption links for %s: %w", decisionID, err)
	}
	own, err := s.store.GetAssumptions(ctx, orgID, ids)
	if err != nil {
		return nil, fmt.Errorf("scheduler: loading assumptions for %s: %w", decisionID, err)
	}
	universal, err := s.store.GetUniversalAssumptions(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("scheduler: loading universal assumptions for org %s: %w", orgID, err)
	}
	return append(own, universal...), nil
}

// SelectCandidates implements spec §4.4's selection and ordering: any of
// the four trigger rules qualifies a decision; Retired decisions are always
// skipped; survivors are ordered by (reviewUrgencyScore desc,
// lastEvaluatedAt asc), ties broken by id.
func (s *Scheduler) SelectCandidates(ctx context.Context, orgID string, now time.Time) ([]domain.Decision, error) {
	// limit=0 asks the store for every decision satisfying the staleness
	// criterion; the Scheduler applies the full four-rule check itself
	// (over-selection by the store is fine, per spec §5's "readers accept
	// occasional over-selection") and caps the batch after sorting.
	all, err := s.store.ListDecisionsNeedingEvaluation(ctx, orgID, s.cfg.StalenessThreshold, 0)
	if err != nil {
		return nil, err
	}

	candidates := make([]domain.Decision, 0, len(all))
	for _, d := range all {
		if d.Lifecycle == domain.LifecycleRetired {
			continue
		}
		if isDue(d, now, s.cfg.StalenessThreshold) {
			candidates = append(candidates, d)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.ReviewUrgencyScore != b.ReviewUrgencyScore {
			return a.ReviewUrgencyScore > b.ReviewUrgencyScore
		}
		aLast, bLast := lastEvaluatedOrZero(a), lastEvaluatedOrZero(b)
		if !aLast.Equal(bLast) {
			return aLast.Before(bLast)
		}
		return a.ID < b.ID
	})

	return candidates, nil
}

func isDue(d domain.Decision, now time.Time, stalenessThreshold time.Duration) bool {
	if d.NeedsEvaluation {
		return true
	}
	if d.LastEvaluatedAt == nil {
		return true
	}
	if now.Sub(*d.LastEvaluatedAt) > stalenessThreshold {
		return true
	}
	if d.ExpiryDate != nil {
		untilExpiry := d.ExpiryDate.Sub(now)
		withinWindow := untilExpiry >= -expiryWindow && untilExpiry <= expiryWindow
		notEvaluatedRecently := now.Sub(*d.LastEvaluatedAt) > 24*time.Hour
		if withinWindow && notEvaluatedRecently {
			return true
		}
	}
	return false
}

func lastEvaluatedOrZero(d domain.Decision) time.Time {
	if d.LastEvaluatedAt == nil {
		return time.Time{}
	}
	return *d.LastEvaluatedAt
}
