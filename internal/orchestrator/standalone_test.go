package orchestrator

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandalone_TicksImmediatelyAndOnInterval(t *testing.T) {
	var ticks atomic.Int32
	s := NewStandalone(func(ctx context.Context, now time.Time) error {
		ticks.Add(1)
		return nil
	}, StandaloneConfig{TickInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()

	err := s.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, int(ticks.Load()), 2)
}

func TestStandalone_IsLeaderAlwaysTrue(t *testing.T) {
	s := NewStandalone(func(ctx context.Context, now time.Time) error { return nil }, StandaloneConfig{})
	assert.True(t, s.IsLeader())
}

func TestStandalone_TickErrorDoesNotStopLoop(t *testing.T) {
	var ticks atomic.Int32
	s := NewStandalone(func(ctx context.Context, now time.Time) error {
		ticks.Add(1)
		return assert.AnError
	}, StandaloneConfig{TickInterval: 5 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()

	_ = s.Run(ctx)
	assert.GreaterOrEqual(t, int(ticks.Load()), 2)
}
