package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"errand-route-service/internal/adapters/cache"
	"errand-route-service/internal/platform/db"
)

// dbtool maintains the shared Postgres provider cache: it creates the
// kv_cache table if missing and purges expired entries. Run it from cron
// on deployments that set DATABASE_URL instead of the local SQLite cache.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	conn, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := initCacheSchema(ctx, conn); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	n, err := cache.NewSQLCache(conn).DeleteExpired(ctx)
	if err != nil {
		log.Fatalf("purge failed: %v", err)
	}
	log.Printf("Purged expired cache entries count=%d", n)
}

func initCacheSchema(ctx context.Context, conn *sql.DB) error {
	q := `
	CREATE TABLE IF NOT EXISTS kv_cache (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_kv_cache_expires ON kv_cache (expires_at);
	`
	_, err := conn.ExecContext(ctx, q)
	return err
}
