package orchestrator

import (
	"log/slog"
	"os"
	"time"
)

// New builds the appropriate Orchestrator for a deployment profile: a
// Standalone ticker for the lite profile, a Kubernetes Lease-backed
// LeaderElected orchestrator for the standard profile.
//
// orgID scopes the Lease name so that separate organizations in the same
// standard-profile cluster never contend for one another's lock.
func New(standard bool, orgID string, tick TickFunc, tickInterval time.Duration, client ClientConfig, logger *slog.Logger) (Orchestrator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if !standard {
		return NewStandalone(tick, StandaloneConfig{
			TickInterval: tickInterval,
			Logger:       logger,
		}), nil
	}

	identity, err := os.Hostname()
	if err != nil || identity == "" {
		identity = "sentinel-orchestrator"
	}

	return NewLeaderElectedForCluster(tick, LeaderElectedConfig{
		LeaseName:      leaseName(orgID),
		LeaseNamespace: leaseNamespace(),
		Identity:       identity,
		TickInterval:   tickInterval,
		Client:         client,
		Logger:         logger,
	})
}

func leaseName(orgID string) string {
	if orgID == "" {
		return "sentinel-scheduler"
	}
	return "sentinel-scheduler-" + orgID
}

// leaseNamespace resolves the namespace the Lease lives in from the
// downward-API POD_NAMESPACE env var, falling back to "default" for
// clusters that don't project it.
func leaseNamespace() string {
	if ns := os.Getenv("POD_NAMESPACE"); ns != "" {
		return ns
	}
	return "default"
}
