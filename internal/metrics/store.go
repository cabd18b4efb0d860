package metrics

import "github.com/prometheus/client_golang/prometheus"

// StoreMetrics tracks persistence-layer latency and transaction behavior.
type StoreMetrics struct {
	QueryDuration  *prometheus.HistogramVec
	TxRetriesTotal prometheus.Counter
	CacheHitsTotal *prometheus.CounterVec
}

// NewStoreMetrics registers and returns the Store metrics collectors under namespace.
func NewStoreMetrics(namespace string) *StoreMetrics {
	return &StoreMetrics{
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "query_duration_seconds",
			Help:      "Duration of store operations, labeled by operation and outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "status"}),
		TxRetriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "tx_retries_total",
			Help:      "Number of transaction retries due to serialization conflicts.",
		}),
		CacheHitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "cache_hits_total",
			Help:      "Cache lookups against the read-through decision cache, labeled by hit/miss.",
		}, []string{"result"}),
	}
}
