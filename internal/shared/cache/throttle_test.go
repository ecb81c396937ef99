package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestThrottle(t *testing.T) (*LoginThrottle, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLoginThrottleFromClient(client), mr
}

func TestThrottleAllowWithinLimit(t *testing.T) {
	th, _ := newTestThrottle(t)
	ctx := context.Background()

	for i := 0; i < DefaultLoginLimit; i++ {
		assert.True(t, th.Allow(ctx, "user@example.com", "10.0.0.1"), "attempt %d", i+1)
	}
	assert.False(t, th.Allow(ctx, "user@example.com", "10.0.0.1"))
}

func TestThrottleKeysAreIndependent(t *testing.T) {
	th, _ := newTestThrottle(t)
	ctx := context.Background()

	for i := 0; i <= DefaultLoginLimit; i++ {
		th.Allow(ctx, "user@example.com", "10.0.0.1")
	}
	assert.False(t, th.Allow(ctx, "user@example.com", "10.0.0.1"))

	// 不同 IP、不同邮箱各自独立计数
	assert.True(t, th.Allow(ctx, "user@example.com", "10.0.0.2"))
	assert.True(t, th.Allow(ctx, "other@example.com", "10.0.0.1"))
}

func TestThrottleReset(t *testing.T) {
	th, _ := newTestThrottle(t)
	ctx := context.Background()

	for i := 0; i <= DefaultLoginLimit; i++ {
		th.Allow(ctx, "user@example.com", "10.0.0.1")
	}
	assert.False(t, th.Allow(ctx, "user@example.com", "10.0.0.1"))

	th.Reset(ctx, "user@example.com", "10.0.0.1")
	assert.True(t, th.Allow(ctx, "user@example.com", "10.0.0.1"))
}

func TestThrottleWindowExpiry(t *testing.T) {
	th, mr := newTestThrottle(t)
	ctx := context.Background()

	for i := 0; i <= DefaultLoginLimit; i++ {
		th.Allow(ctx, "user@example.com", "10.0.0.1")
	}
	assert.False(t, th.Allow(ctx, "user@example.com", "10.0.0.1"))

	mr.FastForward(DefaultLoginWindow)
	assert.True(t, th.Allow(ctx, "user@example.com", "10.0.0.1"))
}

func TestNilThrottleAlwaysAllows(t *testing.T) {
	var th *LoginThrottle
	require.True(t, th.Allow(context.Background(), "user@example.com", "10.0.0.1"))
	th.Reset(context.Background(), "user@example.com", "10.0.0.1")
	require.NoError(t, th.Close())
}
