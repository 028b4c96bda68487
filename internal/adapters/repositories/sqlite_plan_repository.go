package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"errand-route-service/internal/domain"
)

// SQLite-backed implementation of the PlanRepository port. One plan per
// date: saving replaces any earlier plan for the same date. Items live in
// their own table keyed by (plan_id, seq); overflow and suggestions are
// stored as JSON on the plan row.
type SqlitePlanRepository struct{ DB *sql.DB }

func NewSqlitePlanRepository(db *sql.DB) *SqlitePlanRepository {
	return &SqlitePlanRepository{DB: db}
}

// Persist a plan and return its generated id.
func (s *SqlitePlanRepository) SavePlan(ctx context.Context, plan domain.PlanResult) (string, error) {
	if s.DB == nil {
		return "", errors.New("sqlite plan repository: DB is nil")
	}

	overflow, err := json.Marshal(plan.Overflow)
	if err != nil {
		return "", fmt.Errorf("save plan: marshal overflow: %w", err)
	}
	suggestions, err := json.Marshal(plan.Suggestions)
	if err != nil {
		return "", fmt.Errorf("save plan: marshal suggestions: %w", err)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("save plan: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	date := plan.Date.Format(dateLayout)

	// Replace the previous plan for this date, items first.
	cleanup := `
	DELETE FROM plan_items
	WHERE plan_id IN (SELECT plan_id FROM plans WHERE plan_date = ?);
	`
	if _, err := tx.ExecContext(ctx, cleanup, date); err != nil {
		return "", fmt.Errorf("save plan: delete stale items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM plans WHERE plan_date = ?;`, date); err != nil {
		return "", fmt.Errorf("save plan: delete stale plan: %w", err)
	}

	planID := uuid.NewString()

	insertPlan := `
	INSERT INTO plans (
		plan_id,
		plan_date,
		total_distance_km,
		total_driving_min,
		fits,
		overtime_min,
		buffer_min,
		overflow,
		suggestions,
		created_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	_, err = tx.ExecContext(ctx, insertPlan,
		planID, date,
		plan.TotalDistanceKm, plan.TotalDrivingMin,
		plan.Window.Fits, plan.Window.OvertimeMin, plan.Window.BufferMin,
		string(overflow), string(suggestions),
		time.Now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("save plan: insert plan row: %w", err)
	}

	insertItem := `
	INSERT INTO plan_items (
		plan_id,
		seq,
		kind,
		start_at,
		end_at,
		title,
		task_id,
		from_name,
		to_name,
		distance_km,
		duration_min
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	stmt, err := tx.PrepareContext(ctx, insertItem)
	if err != nil {
		return "", fmt.Errorf("save plan: prepare item insert: %w", err)
	}
	defer stmt.Close()

	for i, it := range plan.Items {
		_, err := stmt.ExecContext(ctx,
			planID, i,
			string(it.Kind),
			it.Start.Format(time.RFC3339), it.End.Format(time.RFC3339),
			it.Title, it.TaskID,
			it.FromName, it.ToName,
			it.DistanceKm, it.DurationMin,
		)
		if err != nil {
			return "", fmt.Errorf("save plan: insert item #%d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("save plan: commit tx: %w", err)
	}

	return planID, nil
}

// Return the plan stored for a date, or nil when none exists.
func (s *SqlitePlanRepository) GetPlan(ctx context.Context, date time.Time) (*domain.PlanResult, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite plan repository: DB is nil")
	}

	planQuery := `
	SELECT
		plan_id,
		plan_date,
		total_distance_km,
		total_driving_min,
		fits,
		overtime_min,
		buffer_min,
		overflow,
		suggestions
	FROM plans
	WHERE plan_date = ?
	ORDER BY created_at DESC
	LIMIT 1;
	`

	var planID, planDate, overflow, suggestions string
	var plan domain.PlanResult
	err := s.DB.QueryRowContext(ctx, planQuery, date.Format(dateLayout)).Scan(
		&planID, &planDate,
		&plan.TotalDistanceKm, &plan.TotalDrivingMin,
		&plan.Window.Fits, &plan.Window.OvertimeMin, &plan.Window.BufferMin,
		&overflow, &suggestions,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: query plans table: %w", err)
	}

	if plan.Date, err = time.Parse(dateLayout, planDate); err != nil {
		return nil, fmt.Errorf("get plan: parse plan_date: %w", err)
	}
	if err := json.Unmarshal([]byte(overflow), &plan.Overflow); err != nil {
		return nil, fmt.Errorf("get plan: parse overflow: %w", err)
	}
	if err := json.Unmarshal([]byte(suggestions), &plan.Suggestions); err != nil {
		return nil, fmt.Errorf("get plan: parse suggestions: %w", err)
	}

	itemsQuery := `
	SELECT
		kind,
		start_at,
		end_at,
		title,
		task_id,
		from_name,
		to_name,
		distance_km,
		duration_min
	FROM plan_items
	WHERE plan_id = ?
	ORDER BY seq;
	`
	rows, err := s.DB.QueryContext(ctx, itemsQuery, planID)
	if err != nil {
		return nil, fmt.Errorf("get plan: query plan_items table: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.ScheduledItem
		var kind, startAt, endAt string

		err := rows.Scan(
			&kind, &startAt, &endAt,
			&it.Title, &it.TaskID,
			&it.FromName, &it.ToName,
			&it.DistanceKm, &it.DurationMin,
		)
		if err != nil {
			return nil, fmt.Errorf("get plan: scan item row: %w", err)
		}

		it.Kind = domain.ItemKind(kind)
		if it.Start, err = time.Parse(time.RFC3339, startAt); err != nil {
			return nil, fmt.Errorf("get plan: parse item start_at: %w", err)
		}
		if it.End, err = time.Parse(time.RFC3339, endAt); err != nil {
			return nil, fmt.Errorf("get plan: parse item end_at: %w", err)
		}

		plan.Items = append(plan.Items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get plan: row iteration: %w", err)
	}

	return &plan, nil
}
