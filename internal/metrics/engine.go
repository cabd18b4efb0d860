package metrics

import "github.com/prometheus/client_golang/prometheus"

// EngineMetrics tracks the deterministic evaluation pipeline: how many runs
// complete, what lifecycle each run lands on, and how long each phase takes.
type EngineMetrics struct {
	EvaluationsTotal       *prometheus.CounterVec
	LifecycleTransitions   *prometheus.CounterVec
	PhaseDuration          *prometheus.HistogramVec
	EvaluationChangedTotal prometheus.Counter
}

// NewEngineMetrics registers and returns the Engine metrics collectors under namespace.
func NewEngineMetrics(namespace string) *EngineMetrics {
	return &EngineMetrics{
		EvaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "evaluations_total",
			Help:      "Number of decision evaluations completed, labeled by resulting lifecycle.",
		}, []string{"lifecycle"}),
		LifecycleTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "lifecycle_transitions_total",
			Help:      "Number of lifecycle transitions, labeled by from/to state.",
		}, []string{"from", "to"}),
		PhaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "phase_duration_seconds",
			Help:      "Duration of each evaluation phase.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"phase"}),
		EvaluationChangedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "evaluation_changed_total",
			Help:      "Number of evaluations that produced a detectable change in lifecycle or health.",
		}),
	}
}
