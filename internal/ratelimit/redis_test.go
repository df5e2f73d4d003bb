package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisLimiter(t *testing.T) (*RedisLimiter, *miniredis.Miniredis, *fakeClock) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	l := NewRedisLimiter(client, "gate", testPolicy, zerolog.Nop())
	l.now = clock.Now
	return l, mr, clock
}

func TestRedisLimiter_LocksAfterMaxAttempts(t *testing.T) {
	l, mr, _ := newTestRedisLimiter(t)
	ctx := context.Background()

	d, err := l.Hit(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, 2, d.Remaining)

	d, err = l.Hit(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, 1, d.Remaining)

	d, err = l.Hit(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, d.Locked)

	assert.True(t, mr.Exists("ratelimit:gate:10.0.0.1:lock"))
	assert.False(t, mr.Exists("ratelimit:gate:10.0.0.1:attempts"))

	d, err = l.Status(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, d.Locked)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
}

func TestRedisLimiter_LockExpires(t *testing.T) {
	l, mr, _ := newTestRedisLimiter(t)
	ctx := context.Background()

	for i := 0; i < testPolicy.MaxAttempts; i++ {
		_, err := l.Hit(ctx, "k")
		require.NoError(t, err)
	}

	mr.FastForward(testPolicy.Lockout + time.Second)

	d, err := l.Status(ctx, "k")
	require.NoError(t, err)
	assert.False(t, d.Locked)
	assert.Equal(t, testPolicy.MaxAttempts, d.Remaining)
}

func TestRedisLimiter_SlidingWindow(t *testing.T) {
	l, _, clock := newTestRedisLimiter(t)
	ctx := context.Background()

	l.Hit(ctx, "k")
	clock.Advance(6 * time.Minute)
	l.Hit(ctx, "k")
	clock.Advance(5 * time.Minute)

	d, err := l.Status(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 2, d.Remaining)

	d, err = l.Hit(ctx, "k")
	require.NoError(t, err)
	assert.False(t, d.Locked)
	assert.Equal(t, 1, d.Remaining)
}

func TestRedisLimiter_Reset(t *testing.T) {
	l, mr, _ := newTestRedisLimiter(t)
	ctx := context.Background()

	for i := 0; i < testPolicy.MaxAttempts; i++ {
		l.Hit(ctx, "k")
	}
	require.NoError(t, l.Reset(ctx, "k"))
	assert.False(t, mr.Exists("ratelimit:gate:k:lock"))

	d, err := l.Status(ctx, "k")
	require.NoError(t, err)
	assert.False(t, d.Locked)
}
