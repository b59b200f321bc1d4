package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisCache instance
func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return NewRedisCache(client, 5*time.Minute), mr
}

func TestRedisCache_GetMiss(t *testing.T) {
	c, _ := setupTestRedis(t)

	_, err := c.Get(context.Background(), "Steve")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_SetGet(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "Steve", []string{"VIP", "Crate Key"}))

	items, err := c.Get(ctx, "Steve")
	require.NoError(t, err)
	assert.Equal(t, []string{"VIP", "Crate Key"}, items)

	assert.True(t, mr.Exists(cacheKey("Steve")))
	assert.Equal(t, 5*time.Minute, mr.TTL(cacheKey("Steve")))
}

func TestRedisCache_SetEmptyIsCachedAsEmpty(t *testing.T) {
	c, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "Newbie", nil))

	items, err := c.Get(ctx, "Newbie")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRedisCache_Expiry(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "Steve", []string{"VIP"}))
	mr.FastForward(5*time.Minute + time.Second)

	_, err := c.Get(ctx, "Steve")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_Invalidate(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "Steve", []string{"VIP"}))
	require.NoError(t, c.Set(ctx, "Alex", []string{"Crate Key"}))
	require.NoError(t, mr.Set("cart:unrelated", "{}"))

	require.NoError(t, c.Invalidate(ctx, "Steve"))
	assert.False(t, mr.Exists(cacheKey("Steve")))
	assert.True(t, mr.Exists(cacheKey("Alex")))

	require.NoError(t, c.Invalidate(ctx, ""))
	assert.False(t, mr.Exists(cacheKey("Alex")))
	assert.True(t, mr.Exists("cart:unrelated"))
}

func TestRedisCache_GetCorruptValue(t *testing.T) {
	c, mr := setupTestRedis(t)

	require.NoError(t, mr.Set(cacheKey("Steve"), "not json"))

	_, err := c.Get(context.Background(), "Steve")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
