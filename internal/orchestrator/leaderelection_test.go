package orchestrator

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/kubernetes/fake"
)

func TestLeaderElected_AcquiresLeaseAndTicks(t *testing.T) {
	clientset := fake.NewSimpleClientset()

	var ticks atomic.Int32
	o, err := NewLeaderElected(clientset, func(ctx context.Context, now time.Time) error {
		ticks.Add(1)
		return nil
	}, LeaderElectedConfig{
		LeaseName:      "test-lease",
		LeaseNamespace: "default",
		Identity:       "replica-a",
		TickInterval:   5 * time.Millisecond,
		LeaseDuration:  400 * time.Millisecond,
		RenewDeadline:  200 * time.Millisecond,
		RetryPeriod:    50 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = o.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return o.IsLeader() }, 300*time.Millisecond, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return ticks.Load() > 0 }, 300*time.Millisecond, 5*time.Millisecond)

	<-done
	assert.False(t, o.IsLeader())
}

func TestLeaderElectedConfig_Validate(t *testing.T) {
	clientset := fake.NewSimpleClientset()
	noop := func(ctx context.Context, now time.Time) error { return nil }

	_, err := NewLeaderElected(clientset, noop, LeaderElectedConfig{})
	assert.Error(t, err)

	_, err = NewLeaderElected(clientset, noop, LeaderElectedConfig{
		LeaseName:      "x",
		LeaseNamespace: "default",
		Identity:       "a",
		LeaseDuration:  time.Second,
		RenewDeadline:  2 * time.Second,
	})
	assert.Error(t, err, "renew deadline must not exceed lease duration")
}
