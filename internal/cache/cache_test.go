package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/adityaaa08012006/decivue-sub004/internal/cache"
)

func newTestCache(t *testing.T) *cache.RedisCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return cache.NewRedisCacheFromClient(client, nil)
}

func TestRedisCache_SetGetRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		Score int `json:"score"`
	}
	require.NoError(t, c.Set(ctx, "urgency:d1", payload{Score: 42}, time.Minute))

	var got payload
	require.NoError(t, c.Get(ctx, "urgency:d1", &got))
	require.Equal(t, 42, got.Score)
}

func TestRedisCache_GetMissing(t *testing.T) {
	c := newTestCache(t)
	var dest any
	err := c.Get(context.Background(), "missing", &dest)
	require.ErrorIs(t, err, cache.ErrNotFound)
}

func TestRedisCache_DirtySetMembership(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SAdd(ctx, "dirty:org1", "d1", "d2"))
	members, err := c.SMembers(ctx, "dirty:org1")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"d1", "d2"}, members)

	require.NoError(t, c.SRem(ctx, "dirty:org1", "d1"))
	members, err = c.SMembers(ctx, "dirty:org1")
	require.NoError(t, err)
	require.Equal(t, []string{"d2"}, members)
}
