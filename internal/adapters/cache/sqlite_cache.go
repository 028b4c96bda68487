package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SQLite backed TTL key-value cache shared by the provider adapters.
// Keys are expected to be namespaced by the caller (see Key).
type SqliteCache struct {
	DB *sql.DB
}

func NewSqliteCache(db *sql.DB) *SqliteCache {
	return &SqliteCache{DB: db}
}

// Fetch the cached value for a key. Expired entries are evicted lazily
// and reported as missing.
func (s *SqliteCache) Get(ctx context.Context, key string) (string, bool, error) {
	if s.DB == nil {
		return "", false, errors.New("kv cache: db is nil")
	}

	if strings.TrimSpace(key) == "" {
		return "", false, errors.New("get kv cache: key must not be empty")
	}

	q := `
	SELECT value, expires_at
	FROM kv_cache
	WHERE key = ?;
	`

	var value string
	var expiresAt int64
	err := s.DB.QueryRowContext(ctx, q, key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get kv cache: query kv_cache table: %w", err)
	}

	// Timestamps are stored as unix seconds to stay driver-agnostic.
	if time.Now().Unix() > expiresAt {
		if _, err := s.DB.ExecContext(ctx, `DELETE FROM kv_cache WHERE key = ?;`, key); err != nil {
			return "", false, fmt.Errorf("get kv cache: evict expired key=%q: %w", key, err)
		}
		return "", false, nil
	}

	return value, true, nil
}

// Store a value under the key with the given TTL.
func (s *SqliteCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if s.DB == nil {
		return errors.New("kv cache: db is nil")
	}

	if strings.TrimSpace(key) == "" {
		return errors.New("insert kv cache: key must not be empty")
	}

	now := time.Now()

	q := `
	INSERT OR REPLACE INTO kv_cache (key, value, created_at, expires_at)
	VALUES (?, ?, ?, ?);
	`
	if _, err := s.DB.ExecContext(ctx, q, key, value, now.Unix(), now.Add(ttl).Unix()); err != nil {
		return fmt.Errorf("insert kv cache key=%q: %w", key, err)
	}

	return nil
}

// Evict all expired entries.
func (s *SqliteCache) DeleteExpired(ctx context.Context) (int, error) {
	if s.DB == nil {
		return 0, errors.New("kv cache: db is nil")
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM kv_cache WHERE expires_at < ?;`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("delete expired kv cache: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired kv cache: rows affected: %w", err)
	}

	return int(n), nil
}
