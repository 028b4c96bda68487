package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the SQLite database schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createSettingsQuery := `
	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		home_lat REAL,
		home_lon REAL,
		home_address TEXT NOT NULL DEFAULT '',
		home_name TEXT NOT NULL DEFAULT '',
		timezone TEXT NOT NULL DEFAULT '',
		work_start TEXT NOT NULL DEFAULT '09:00',
		work_end TEXT NOT NULL DEFAULT '17:00'
	);
	`

	createTasksQuery := `
	CREATE TABLE IF NOT EXISTS tasks (
		task_id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		duration_min INTEGER NOT NULL,
		lat REAL,
		lon REAL,
		location_name TEXT NOT NULL DEFAULT '',
		location_address TEXT NOT NULL DEFAULT '',
		open_time TEXT NOT NULL DEFAULT '',
		close_time TEXT NOT NULL DEFAULT '',
		earliest_start TEXT,
		latest_end TEXT,
		due_date TEXT,
		priority INTEGER NOT NULL DEFAULT 2,
		category TEXT NOT NULL DEFAULT 'errand',
		purpose TEXT NOT NULL DEFAULT '',
		required_items TEXT NOT NULL DEFAULT '[]',
		days_open TEXT NOT NULL DEFAULT ''
	);
	`

	createFixedBlocksQuery := `
	CREATE TABLE IF NOT EXISTS fixed_blocks (
		block_id TEXT PRIMARY KEY,
		block_date TEXT NOT NULL,
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		title TEXT NOT NULL
	);
	`

	createPlansQuery := `
	CREATE TABLE IF NOT EXISTS plans (
		plan_id TEXT PRIMARY KEY,
		plan_date TEXT NOT NULL,
		total_distance_km REAL NOT NULL DEFAULT 0,
		total_driving_min REAL NOT NULL DEFAULT 0,
		fits INTEGER NOT NULL DEFAULT 1,
		overtime_min INTEGER NOT NULL DEFAULT 0,
		buffer_min INTEGER NOT NULL DEFAULT 0,
		overflow TEXT NOT NULL DEFAULT '[]',
		suggestions TEXT NOT NULL DEFAULT '[]',
		created_at INTEGER NOT NULL
	);
	`

	createPlanItemsQuery := `
	CREATE TABLE IF NOT EXISTS plan_items (
		plan_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		kind TEXT NOT NULL,
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		title TEXT NOT NULL,
		task_id TEXT NOT NULL DEFAULT '',
		from_name TEXT NOT NULL DEFAULT '',
		to_name TEXT NOT NULL DEFAULT '',
		distance_km REAL NOT NULL DEFAULT 0,
		duration_min REAL NOT NULL DEFAULT 0,
		PRIMARY KEY (plan_id, seq)
	);
	`

	createKVCacheQuery := `
	CREATE TABLE IF NOT EXISTS kv_cache (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);
	`

	createBlockDateIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_fixed_blocks_date
	ON fixed_blocks(block_date);
	`

	createPlanDateIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_plans_date
	ON plans(plan_date);
	`

	statements := []string{
		createSettingsQuery,
		createTasksQuery,
		createFixedBlocksQuery,
		createPlansQuery,
		createPlanItemsQuery,
		createKVCacheQuery,
		createBlockDateIndexQuery,
		createPlanDateIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
