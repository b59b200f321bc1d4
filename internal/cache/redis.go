package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "owned:"

// RedisCache keeps owned items in redis so every instance of the server sees
// the same invalidations.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisCache) Get(ctx context.Context, username string) ([]string, error) {
	data, err := r.client.Get(ctx, cacheKey(username)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal owned items failed: %w", err)
	}
	return items, nil
}

func (r *RedisCache) Set(ctx context.Context, username string, items []string) error {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal owned items failed: %w", err)
	}

	if err := r.client.Set(ctx, cacheKey(username), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Invalidate(ctx context.Context, username string) error {
	if username != "" {
		if err := r.client.Del(ctx, cacheKey(username)).Err(); err != nil {
			return fmt.Errorf("redis delete failed: %w", err)
		}
		return nil
	}

	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan failed: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(username string) string {
	return keyPrefix + username
}
