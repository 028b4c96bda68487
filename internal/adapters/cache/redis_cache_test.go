package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisCache(client), mr
}

func TestRedisCacheSetGet(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestRedisCache(t)

	if err := c.Set(ctx, "nominatim:search:abc", `{"hits":1}`, time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, ok, err := c.Get(ctx, "nominatim:search:abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || v != `{"hits":1}` {
		t.Fatalf("got (%q, %v), want cached value", v, ok)
	}

	_, ok, err = c.Get(ctx, "nominatim:search:other")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("missing key reported as present")
	}
}

func TestRedisCacheTTL(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedisCache(t)

	if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expired entry reported as present")
	}
}
