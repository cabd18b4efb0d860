package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks the live feed's broadcast behavior.
type Metrics struct {
	ConnectionsActive prometheus.Gauge
	EventsTotal       *prometheus.CounterVec
	BroadcastDuration prometheus.Histogram
	ErrorsTotal       *prometheus.CounterVec
}

// NewMetrics registers the feed's Prometheus collectors under the given
// namespace. Pass a dedicated *prometheus.Registry in tests to avoid
// colliding with DefaultRegisterer across test runs.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ConnectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "connections_active",
			Help:      "Current number of active live-feed subscribers.",
		}),
		EventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "events_total",
			Help:      "Total notifications broadcast, by type and severity.",
		}, []string{"type", "severity"}),
		BroadcastDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "broadcast_duration_seconds",
			Help:      "Duration of one event's fan-out to all subscribers.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "errors_total",
			Help:      "Total delivery errors, by cause.",
		}, []string{"cause"}),
	}
}
