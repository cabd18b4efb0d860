// Package metrics provides centralized Prometheus metrics management for
// the decision engine service.
//
// This package implements a unified taxonomy for Prometheus metrics:
//   - Engine metrics: evaluation runs, lifecycle transitions, phase trace durations
//   - Scheduler metrics: ticks, candidate selection, batch sizing, retry/backoff
//   - Governance metrics: edit requests, lock activity, tier escalations
//   - Store metrics: query duration, transaction retries
//
// All metrics follow the naming convention:
// decivue_<category>_<subsystem>_<metric_name>_<unit>
//
// Example:
//
//	registry := metrics.DefaultRegistry()
//	registry.Engine().EvaluationsTotal.WithLabelValues("stable").Inc()
//	registry.Store().QueryDuration.WithLabelValues("get_decision", "success").Observe(0.01)
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricCategory represents the category of a metric.
type MetricCategory string

const (
	CategoryEngine     MetricCategory = "engine"
	CategoryScheduler  MetricCategory = "scheduler"
	CategoryGovernance MetricCategory = "governance"
	CategoryStore      MetricCategory = "store"
)

// MetricsRegistry is the central registry for all Prometheus metrics.
// Provides organized access to metrics by category.
//
// Thread-safe: all Prometheus metrics are thread-safe by design.
// Singleton: use DefaultRegistry() to get the global instance.
type MetricsRegistry struct {
	namespace string

	engine     *EngineMetrics
	scheduler  *SchedulerMetrics
	governance *GovernanceMetrics
	store      *StoreMetrics

	engineOnce     sync.Once
	schedulerOnce  sync.Once
	governanceOnce sync.Once
	storeOnce      sync.Once
}

var (
	defaultRegistry     *MetricsRegistry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the global singleton MetricsRegistry.
// Safe for concurrent use. Initialized once on first call.
func DefaultRegistry() *MetricsRegistry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewMetricsRegistry("decivue")
	})
	return defaultRegistry
}

// NewMetricsRegistry creates a new MetricsRegistry with the specified namespace.
// For most use cases, use DefaultRegistry() instead.
func NewMetricsRegistry(namespace string) *MetricsRegistry {
	if namespace == "" {
		namespace = "decivue"
	}
	return &MetricsRegistry{namespace: namespace}
}

// Engine returns the Engine metrics manager. Lazy-initialized on first access.
func (r *MetricsRegistry) Engine() *EngineMetrics {
	r.engineOnce.Do(func() {
		r.engine = NewEngineMetrics(r.namespace)
	})
	return r.engine
}

// Scheduler returns the Scheduler metrics manager. Lazy-initialized on first access.
func (r *MetricsRegistry) Scheduler() *SchedulerMetrics {
	r.schedulerOnce.Do(func() {
		r.scheduler = NewSchedulerMetrics(r.namespace)
	})
	return r.scheduler
}

// Governance returns the Governance metrics manager. Lazy-initialized on first access.
func (r *MetricsRegistry) Governance() *GovernanceMetrics {
	r.governanceOnce.Do(func() {
		r.governance = NewGovernanceMetrics(r.namespace)
	})
	return r.governance
}

// Store returns the Store metrics manager. Lazy-initialized on first access.
func (r *MetricsRegistry) Store() *StoreMetrics {
	r.storeOnce.Do(func() {
		r.store = NewStoreMetrics(r.namespace)
	})
	return r.store
}

// Namespace returns the configured namespace for this registry.
func (r *MetricsRegistry) Namespace() string {
	return r.namespace
}

// Register initializes every category and registers its collectors with
// reg, so /metrics actually exposes them. Call once per process, after
// construction and before serving traffic.
func (r *MetricsRegistry) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		r.Engine().EvaluationsTotal,
		r.Engine().LifecycleTransitions,
		r.Engine().PhaseDuration,
		r.Engine().EvaluationChangedTotal,
		r.Scheduler().TicksTotal,
		r.Scheduler().CandidatesQueued,
		r.Scheduler().BatchSize,
		r.Scheduler().TickDuration,
		r.Scheduler().Retry.AttemptsTotal,
		r.Scheduler().Retry.FinalAttemptTotal,
		r.Scheduler().Retry.BackoffSeconds,
		r.Governance().EditRequestsTotal,
		r.Governance().LocksActive,
		r.Governance().EscalationsTotal,
		r.Store().QueryDuration,
		r.Store().TxRetriesTotal,
		r.Store().CacheHitsTotal,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
