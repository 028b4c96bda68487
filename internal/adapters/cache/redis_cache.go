package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a Redis-backed TTL key-value cache. Redis handles expiry
// natively, so DeleteExpired is a no-op kept for contract parity.
type RedisCache struct {
	Client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{Client: client}
}

// NewRedisClient creates a Redis client and verifies connectivity.
func NewRedisClient(ctx context.Context, addr string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis cache: ping failed: %w", err)
	}

	return client, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	if r.Client == nil {
		return "", false, errors.New("kv cache: redis client is nil")
	}

	if strings.TrimSpace(key) == "" {
		return "", false, errors.New("get kv cache: key must not be empty")
	}

	value, err := r.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get kv cache key=%q: %w", key, err)
	}

	return value, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if r.Client == nil {
		return errors.New("kv cache: redis client is nil")
	}

	if strings.TrimSpace(key) == "" {
		return errors.New("insert kv cache: key must not be empty")
	}

	if err := r.Client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("insert kv cache key=%q: %w", key, err)
	}

	return nil
}

// Redis evicts expired keys itself.
func (r *RedisCache) DeleteExpired(ctx context.Context) (int, error) {
	return 0, nil
}
