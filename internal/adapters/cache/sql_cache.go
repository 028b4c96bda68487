package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"errand-route-service/internal/platform/obs"
)

// SQLCache is a Postgres-backed TTL key-value cache with the same contract
// as SqliteCache, for deployments that share cache state across hosts.
type SQLCache struct {
	DB *sql.DB
}

func NewSQLCache(db *sql.DB) *SQLCache {
	return &SQLCache{DB: db}
}

// Fetch the cached value for a key. Expired entries are evicted lazily
// and reported as missing.
func (s *SQLCache) Get(ctx context.Context, key string) (_ string, _ bool, err error) {
	defer obs.Time(ctx, "kv.cache.Get")(&err)

	if s.DB == nil {
		return "", false, errors.New("kv cache: db is nil")
	}

	if strings.TrimSpace(key) == "" {
		return "", false, errors.New("get kv cache: key must not be empty")
	}

	q := `
	SELECT value, expires_at
	FROM kv_cache
	WHERE key = $1;
	`

	var value string
	var expiresAt time.Time
	err = s.DB.QueryRowContext(ctx, q, key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get kv cache: query kv_cache table: %w", err)
	}

	if time.Now().After(expiresAt) {
		if _, err := s.DB.ExecContext(ctx, `DELETE FROM kv_cache WHERE key = $1;`, key); err != nil {
			return "", false, fmt.Errorf("get kv cache: evict expired key=%q: %w", key, err)
		}
		return "", false, nil
	}

	return value, true, nil
}

// Store a value under the key with the given TTL.
func (s *SQLCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if s.DB == nil {
		return errors.New("kv cache: db is nil")
	}

	if strings.TrimSpace(key) == "" {
		return errors.New("insert kv cache: key must not be empty")
	}

	now := time.Now()

	q := `
	INSERT INTO kv_cache (key, value, created_at, expires_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (key) DO UPDATE
	SET value = EXCLUDED.value,
		created_at = EXCLUDED.created_at,
		expires_at = EXCLUDED.expires_at;
	`
	if _, err := s.DB.ExecContext(ctx, q, key, value, now, now.Add(ttl)); err != nil {
		return fmt.Errorf("insert kv cache key=%q: %w", key, err)
	}

	return nil
}

// Evict all expired entries.
func (s *SQLCache) DeleteExpired(ctx context.Context) (_ int, err error) {
	defer obs.Time(ctx, "kv.cache.DeleteExpired")(&err)

	if s.DB == nil {
		return 0, errors.New("kv cache: db is nil")
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM kv_cache WHERE expires_at < $1;`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("delete expired kv cache: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired kv cache: rows affected: %w", err)
	}

	return int(n), nil
}
