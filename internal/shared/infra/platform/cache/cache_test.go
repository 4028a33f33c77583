package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type entry struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

func setupRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client, "hexatask:", time.Minute), mr
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	c, mr := setupRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "task:1", entry{Title: "uno", Count: 1}, 30))
	assert.True(t, mr.Exists("hexatask:task:1"), "la clave debe llevar el prefijo")

	var got entry
	hit, err := c.Get(ctx, "task:1", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, entry{Title: "uno", Count: 1}, got)

	require.NoError(t, c.Delete(ctx, "task:1"))
	hit, err = c.Get(ctx, "task:1", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCache_TTL(t *testing.T) {
	c, mr := setupRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "corta", entry{Title: "x"}, 10))
	require.NoError(t, c.Set(ctx, "por-defecto", entry{Title: "y"}, 0))

	assert.Equal(t, 10*time.Second, mr.TTL("hexatask:corta"))
	assert.Equal(t, time.Minute, mr.TTL("hexatask:por-defecto"))

	mr.FastForward(11 * time.Second)
	var got entry
	hit, err := c.Get(ctx, "corta", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCache_CorruptValue(t *testing.T) {
	c, mr := setupRedisCache(t)
	require.NoError(t, mr.Set("hexatask:roto", "{no es json"))

	var got entry
	hit, err := c.Get(context.Background(), "roto", &got)
	assert.Error(t, err)
	assert.False(t, hit)
}

func TestInMemoryCache_Expiration(t *testing.T) {
	c := NewInMemoryCache(time.Minute, 0)
	defer c.Stop()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", entry{Title: "v"}, 5))

	var got entry
	hit, _ := c.Get(ctx, "k", &got)
	assert.True(t, hit)

	now = now.Add(6 * time.Second)
	hit, _ = c.Get(ctx, "k", &got)
	assert.False(t, hit, "una clave expirada es un miss")

	c.purgeExpired()
	c.mu.RLock()
	_, stillThere := c.store["k"]
	c.mu.RUnlock()
	assert.False(t, stillThere)
}

func TestInMemoryCache_StopIsIdempotent(t *testing.T) {
	c := NewInMemoryCache(time.Minute, time.Millisecond)
	c.Stop()
	assert.NotPanics(t, c.Stop)
}

func TestInvalidate_NilCache(t *testing.T) {
	assert.NotPanics(t, func() { Invalidate(nil, "k", zap.NewNop()) })
	assert.NotPanics(t, func() { AsyncCacheSet(nil, "k", 1, 0, zap.NewNop()) })
}

func TestAsyncCacheSet_EventuallyWrites(t *testing.T) {
	c := NewInMemoryCache(time.Minute, 0)
	defer c.Stop()

	AsyncCacheSet(c, "k", entry{Title: "async"}, 0, zap.NewNop())

	assert.Eventually(t, func() bool {
		var got entry
		hit, _ := c.Get(context.Background(), "k", &got)
		return hit && got.Title == "async"
	}, time.Second, 5*time.Millisecond)
}
