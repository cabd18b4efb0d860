package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulerMetrics tracks the adaptive review scheduler's tick cadence,
// candidate selection, and the retry policy it shares with the store layer.
type SchedulerMetrics struct {
	TicksTotal        prometheus.Counter
	CandidatesQueued  prometheus.Gauge
	BatchSize         prometheus.Histogram
	TickDuration      prometheus.Histogram
	Retry             *RetryMetrics
}

// NewSchedulerMetrics registers and returns the Scheduler metrics collectors under namespace.
func NewSchedulerMetrics(namespace string) *SchedulerMetrics {
	return &SchedulerMetrics{
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "ticks_total",
			Help:      "Number of scheduler ticks executed.",
		}),
		CandidatesQueued: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "candidates_queued",
			Help:      "Number of decisions currently eligible for evaluation, as of the last tick.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "batch_size",
			Help:      "Number of decisions processed per tick.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "tick_duration_seconds",
			Help:      "Wall-clock duration of a full scheduler tick.",
			Buckets:   prometheus.DefBuckets,
		}),
		Retry: NewRetryMetrics(namespace, "scheduler"),
	}
}

// RetryMetrics is a reusable collector set for resilience.WithRetry /
// resilience.WithRetryFunc callers. One instance can be shared across
// every operation name the caller retries; operation identity is carried
// as a label, not a separate collector.
type RetryMetrics struct {
	AttemptsTotal     *prometheus.CounterVec
	FinalAttemptTotal *prometheus.CounterVec
	BackoffSeconds    *prometheus.HistogramVec
}

// NewRetryMetrics registers and returns a RetryMetrics collector set scoped
// to namespace_subsystem_retry_*.
func NewRetryMetrics(namespace, subsystem string) *RetryMetrics {
	return &RetryMetrics{
		AttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "retry_attempts_total",
			Help:      "Number of retried operation attempts, labeled by operation, result, and error class.",
		}, []string{"operation", "result", "error_type"}),
		FinalAttemptTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "retry_final_total",
			Help:      "Outcome of the final retry attempt, labeled by operation, result, and attempt count bucket.",
		}, []string{"operation", "result"}),
		BackoffSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "retry_backoff_seconds",
			Help:      "Backoff delay applied before a retry attempt.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// RecordAttempt records the outcome of a single retry attempt.
func (m *RetryMetrics) RecordAttempt(operation, result, errorType string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.AttemptsTotal.WithLabelValues(operation, result, errorType).Inc()
}

// RecordFinalAttempt records the outcome of the last attempt in a retry loop.
func (m *RetryMetrics) RecordFinalAttempt(operation, result string, totalAttempts int) {
	if m == nil {
		return
	}
	m.FinalAttemptTotal.WithLabelValues(operation, result).Inc()
}

// RecordBackoff records the delay applied before a retry attempt.
func (m *RetryMetrics) RecordBackoff(operation string, delaySeconds float64) {
	if m == nil {
		return
	}
	m.BackoffSeconds.WithLabelValues(operation).Observe(delaySeconds)
}
