package lock_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaaa08012006/decivue-sub004/internal/lock"
)

func newTestManager(t *testing.T, cfg lock.Config) *lock.Manager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return lock.NewManager(client, cfg, nil)
}

func TestManager_LockAndRelease(t *testing.T) {
	m := newTestManager(t, lock.Config{TTL: time.Second})
	ctx := context.Background()

	l, err := m.Lock(ctx, "org1", "dec1")
	require.NoError(t, err)

	require.NoError(t, l.Release(ctx))
}

func TestManager_SecondLockerBlockedUntilReleased(t *testing.T) {
	m := newTestManager(t, lock.Config{TTL: 5 * time.Second, MaxRetries: 0, AcquireTimeout: time.Second})
	ctx := context.Background()

	first, err := m.Lock(ctx, "org1", "dec1")
	require.NoError(t, err)

	_, err = m.Lock(ctx, "org1", "dec1")
	assert.ErrorIs(t, err, lock.ErrAlreadyLocked)

	require.NoError(t, first.Release(ctx))

	second, err := m.Lock(ctx, "org1", "dec1")
	require.NoError(t, err)
	require.NoError(t, second.Release(ctx))
}

func TestDecisionLock_ReleaseWithoutAcquireIsNotHeld(t *testing.T) {
	m := newTestManager(t, lock.Config{})
	ctx := context.Background()

	l, err := m.Lock(ctx, "org1", "dec1")
	require.NoError(t, err)
	require.NoError(t, l.Release(ctx))

	assert.ErrorIs(t, l.Release(ctx), lock.ErrNotHeld)
}
