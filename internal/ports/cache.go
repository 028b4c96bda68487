package ports

import (
	"context"
	"time"
)

// Port: a TTL key-value store shared by the provider adapters.
// Keys are opaque namespaced strings; values are serialized responses.
type KeyValueCache interface {
	// Get returns the cached value and whether a live entry existed.
	// Expired entries behave as missing.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores the value, replacing any previous entry for the key.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// DeleteExpired evicts expired entries and returns how many were removed.
	DeleteExpired(ctx context.Context) (int, error)
}
