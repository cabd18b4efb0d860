package metrics

import "github.com/prometheus/client_golang/prometheus"

// GovernanceMetrics tracks edit workflow activity, lock contention, and
// tier escalations.
type GovernanceMetrics struct {
	EditRequestsTotal *prometheus.CounterVec
	LocksActive       prometheus.Gauge
	EscalationsTotal  *prometheus.CounterVec
}

// NewGovernanceMetrics registers and returns the Governance metrics collectors under namespace.
func NewGovernanceMetrics(namespace string) *GovernanceMetrics {
	return &GovernanceMetrics{
		EditRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "governance",
			Name:      "edit_requests_total",
			Help:      "Number of edit requests, labeled by resolution outcome.",
		}, []string{"outcome"}),
		LocksActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "governance",
			Name:      "locks_active",
			Help:      "Number of decisions currently locked for exclusive editing.",
		}),
		EscalationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "governance",
			Name:      "tier_escalations_total",
			Help:      "Number of governance tier escalations, labeled by new tier.",
		}, []string{"tier"}),
	}
}
