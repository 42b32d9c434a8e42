package config

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRedisEnv(t *testing.T, mr *miniredis.Miniredis) {
	t.Helper()
	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)

	t.Setenv("REDIS_HOST", host)
	t.Setenv("REDIS_PORT", port)
}

func TestSnapshotCacheConfig_ReadsTTL(t *testing.T) {
	t.Setenv("METRICS_CACHE_TTL", "")
	assert.Zero(t, NewSnapshotCacheConfig().TTL)

	t.Setenv("METRICS_CACHE_TTL", "15s")
	assert.Equal(t, 15*time.Second, NewSnapshotCacheConfig().TTL)
}

func TestSnapshotCacheConfig_NoHost(t *testing.T) {
	t.Setenv("REDIS_HOST", "")
	t.Setenv("METRICS_CACHE_TTL", "30s")

	sc := NewSnapshotCacheConfig()

	assert.False(t, sc.Enabled())
	assert.Nil(t, sc.ConnectOrNil(quietLogger()))

	_, err := sc.Connect(quietLogger())
	assert.ErrorIs(t, err, ErrSnapshotCacheNoHost)
}

func TestSnapshotCacheConfig_ZeroTTLDisablesEvenWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	setRedisEnv(t, mr)
	t.Setenv("METRICS_CACHE_TTL", "0s")

	sc := NewSnapshotCacheConfig()

	assert.False(t, sc.Enabled())
	assert.Nil(t, sc.ConnectOrNil(quietLogger()))

	_, err := sc.Connect(quietLogger())
	assert.ErrorIs(t, err, ErrSnapshotCacheDisabled)
}

func TestSnapshotCacheConfig_StoresSnapshots(t *testing.T) {
	mr := miniredis.RunT(t)
	setRedisEnv(t, mr)
	t.Setenv("METRICS_CACHE_TTL", "30s")

	cache := NewSnapshotCacheConfig().ConnectOrNil(quietLogger())
	require.NotNil(t, cache)
	t.Cleanup(func() { _ = CloseSnapshotCache(cache, quietLogger()) })

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "metrics:snapshot", `{"waitlist":1}`, 30*time.Second))

	got, err := cache.Get(ctx, "metrics:snapshot")
	require.NoError(t, err)
	assert.Equal(t, `{"waitlist":1}`, got)

	missing, err := cache.Get(ctx, "metrics:absent")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestSnapshotCacheConfig_UnreachableFallsBackToNil(t *testing.T) {
	mr := miniredis.RunT(t)
	setRedisEnv(t, mr)
	mr.Close()
	t.Setenv("METRICS_CACHE_TTL", "30s")

	assert.Nil(t, NewSnapshotCacheConfig().ConnectOrNil(quietLogger()))
}
