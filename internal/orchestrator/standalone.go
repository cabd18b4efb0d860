package orchestrator

import (
	"context"
	"log/slog"
	"time"
)

// StandaloneConfig tunes a Standalone orchestrator.
type StandaloneConfig struct {
	// TickInterval between calls to TickFunc. Defaults to 30s.
	TickInterval time.Duration

	Logger *slog.Logger
}

func (c StandaloneConfig) withDefaults() StandaloneConfig {
	if c.TickInterval <= 0 {
		c.TickInterval = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Standalone is the lite-profile Orchestrator: a single process is always
// the logical orchestrator, so it ticks unconditionally on a fixed interval.
type Standalone struct {
	cfg  StandaloneConfig
	tick TickFunc
}

// NewStandalone builds a Standalone orchestrator.
func NewStandalone(tick TickFunc, cfg StandaloneConfig) *Standalone {
	return &Standalone{cfg: cfg.withDefaults(), tick: tick}
}

// Run ticks immediately and then every TickInterval until ctx is cancelled.
func (s *Standalone) Run(ctx context.Context) error {
	s.cfg.Logger.Info("standalone orchestrator starting", "tick_interval", s.cfg.TickInterval)

	runTick(ctx, s.cfg.Logger, s.tick)

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.cfg.Logger.Info("standalone orchestrator stopping")
			return ctx.Err()
		case <-ticker.C:
			runTick(ctx, s.cfg.Logger, s.tick)
		}
	}
}

// IsLeader always returns true: a standalone process has no peers to lose
// leadership to.
func (s *Standalone) IsLeader() bool {
	return true
}

var _ Orchestrator = (*Standalone)(nil)
