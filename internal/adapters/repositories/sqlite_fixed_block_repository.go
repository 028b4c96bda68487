package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"errand-route-service/internal/domain"
)

const dateLayout = "2006-01-02"

// SQLite-backed implementation of the FixedBlockRepository port.
type SqliteFixedBlockRepository struct{ DB *sql.DB }

func NewSqliteFixedBlockRepository(db *sql.DB) *SqliteFixedBlockRepository {
	return &SqliteFixedBlockRepository{DB: db}
}

// Return all blocks for the given date, ordered by start time.
func (s *SqliteFixedBlockRepository) ListBlocksByDate(ctx context.Context, date time.Time) ([]domain.FixedBlock, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite fixed block repository: DB is nil")
	}

	query := `
	SELECT
		block_id,
		block_date,
		start_at,
		end_at,
		title
	FROM fixed_blocks
	WHERE block_date = ?
	ORDER BY start_at;
	`
	rows, err := s.DB.QueryContext(ctx, query, date.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("list fixed blocks: query fixed_blocks table: %w", err)
	}
	defer rows.Close()

	blocks := make([]domain.FixedBlock, 0, 8)
	for rows.Next() {
		var b domain.FixedBlock
		var blockDate, startAt, endAt string

		if err := rows.Scan(&b.ID, &blockDate, &startAt, &endAt, &b.Title); err != nil {
			return nil, fmt.Errorf("list fixed blocks: scan row: %w", err)
		}

		if b.Date, err = time.Parse(dateLayout, blockDate); err != nil {
			return nil, fmt.Errorf("list fixed blocks: parse block_date: %w", err)
		}
		if b.Start, err = time.Parse(time.RFC3339, startAt); err != nil {
			return nil, fmt.Errorf("list fixed blocks: parse start_at: %w", err)
		}
		if b.End, err = time.Parse(time.RFC3339, endAt); err != nil {
			return nil, fmt.Errorf("list fixed blocks: parse end_at: %w", err)
		}

		blocks = append(blocks, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list fixed blocks: row iteration: %w", err)
	}

	return blocks, nil
}

// Insert or replace a block.
func (s *SqliteFixedBlockRepository) PutBlock(ctx context.Context, b domain.FixedBlock) error {
	if s.DB == nil {
		return errors.New("sqlite fixed block repository: DB is nil")
	}
	if strings.TrimSpace(b.ID) == "" {
		return errors.New("put fixed block: id must not be empty")
	}
	if !b.End.After(b.Start) {
		return fmt.Errorf("put fixed block id=%q: end must be after start", b.ID)
	}

	query := `
	INSERT OR REPLACE INTO fixed_blocks (
		block_id,
		block_date,
		start_at,
		end_at,
		title
	)
	VALUES (?, ?, ?, ?, ?);
	`
	_, err := s.DB.ExecContext(ctx, query,
		b.ID,
		b.Date.Format(dateLayout),
		b.Start.Format(time.RFC3339),
		b.End.Format(time.RFC3339),
		b.Title,
	)
	if err != nil {
		return fmt.Errorf("put fixed block id=%q: %w", b.ID, err)
	}

	return nil
}

// Delete a block by id. Deleting a missing block is not an error.
func (s *SqliteFixedBlockRepository) DeleteBlock(ctx context.Context, id string) error {
	if s.DB == nil {
		return errors.New("sqlite fixed block repository: DB is nil")
	}
	if strings.TrimSpace(id) == "" {
		return errors.New("delete fixed block: id must not be empty")
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM fixed_blocks WHERE block_id = ?;`, id); err != nil {
		return fmt.Errorf("delete fixed block id=%q: %w", id, err)
	}

	return nil
}
