// Package orchestrator drives the Scheduler's tick loop (spec §5: "a single
// logical orchestrator per organization"). The lite profile runs a single
// process, so every tick it issues is authoritative. The standard profile
// runs multiple replicas for availability, so ticks must be coordinated
// through Kubernetes Lease-based leader election: only the elected replica
// calls TickFunc, and the rest stand by ready to take over.
package orchestrator

import (
	"context"
	"log/slog"
	"time"
)

// TickFunc performs one scheduler tick. Returning an error only logs; it
// never stops the orchestrator, matching the Scheduler's own tolerance for
// per-decision failures within a tick (spec §5).
type TickFunc func(ctx context.Context, now time.Time) error

// Orchestrator runs TickFunc on an interval, with or without coordinating
// leadership across replicas depending on the implementation.
type Orchestrator interface {
	// Run blocks until ctx is cancelled, invoking TickFunc roughly every
	// tick interval while this instance holds leadership (or always, for
	// the standalone implementation).
	Run(ctx context.Context) error

	// IsLeader reports whether this instance is currently permitted to
	// tick. Always true for the standalone implementation.
	IsLeader() bool
}

func runTick(ctx context.Context, logger *slog.Logger, fn TickFunc) {
	if err := fn(ctx, time.Now()); err != nil {
		logger.Error("orchestrator tick failed", "error", err)
	}
}
