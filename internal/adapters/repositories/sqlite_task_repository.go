package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"errand-route-service/internal/domain"
)

// SQLite-backed implementation of the TaskRepository port.
//
// Datetimes are stored as RFC 3339 strings, nullable where the domain
// field is a pointer. Required items are stored as a JSON array.
type SqliteTaskRepository struct{ DB *sql.DB }

func NewSqliteTaskRepository(db *sql.DB) *SqliteTaskRepository {
	return &SqliteTaskRepository{DB: db}
}

const taskColumns = `
	task_id,
	title,
	duration_min,
	lat,
	lon,
	location_name,
	location_address,
	open_time,
	close_time,
	earliest_start,
	latest_end,
	due_date,
	priority,
	category,
	purpose,
	required_items,
	days_open
`

// Return all tasks ordered by due date, then priority.
func (s *SqliteTaskRepository) ListTasks(ctx context.Context) ([]domain.Task, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite task repository: DB is nil")
	}

	query := `
	SELECT ` + taskColumns + `
	FROM tasks
	ORDER BY due_date IS NULL, due_date, priority DESC, task_id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tasks: query tasks table: %w", err)
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0, 32)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: row iteration: %w", err)
	}

	return tasks, nil
}

// Return one task by id, or nil when it does not exist.
func (s *SqliteTaskRepository) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite task repository: DB is nil")
	}
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("get task: id must not be empty")
	}

	query := `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE task_id = ?;
	`
	row := s.DB.QueryRowContext(ctx, query, id)

	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task id=%q: %w", id, err)
	}

	return &t, nil
}

// Insert or replace a task.
func (s *SqliteTaskRepository) PutTask(ctx context.Context, t domain.Task) error {
	if s.DB == nil {
		return errors.New("sqlite task repository: DB is nil")
	}
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("put task: id must not be empty")
	}

	var lat, lon sql.NullFloat64
	var locName, locAddress string
	if t.Location != nil {
		if !t.Location.Coords.IsZero() {
			lat = sql.NullFloat64{Float64: t.Location.Coords.Lat, Valid: true}
			lon = sql.NullFloat64{Float64: t.Location.Coords.Lon, Valid: true}
		}
		locName = t.Location.Name
		locAddress = t.Location.Address
	}

	items, err := json.Marshal(t.RequiredItems)
	if err != nil {
		return fmt.Errorf("put task id=%q: marshal required items: %w", t.ID, err)
	}

	query := `
	INSERT OR REPLACE INTO tasks (` + taskColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	_, err = s.DB.ExecContext(ctx, query,
		t.ID, t.Title, t.DurationMin,
		lat, lon, locName, locAddress,
		t.OpenTime, t.CloseTime,
		nullRFC3339(t.EarliestStart), nullRFC3339(t.LatestEnd), nullRFC3339(t.DueDate),
		t.Priority, string(t.Category), t.Purpose, string(items), t.DaysOpen,
	)
	if err != nil {
		return fmt.Errorf("put task id=%q: %w", t.ID, err)
	}

	return nil
}

// Delete a task by id. Deleting a missing task is not an error.
func (s *SqliteTaskRepository) DeleteTask(ctx context.Context, id string) error {
	if s.DB == nil {
		return errors.New("sqlite task repository: DB is nil")
	}
	if strings.TrimSpace(id) == "" {
		return errors.New("delete task: id must not be empty")
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM tasks WHERE task_id = ?;`, id); err != nil {
		return fmt.Errorf("delete task id=%q: %w", id, err)
	}

	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (domain.Task, error) {
	var t domain.Task
	var lat, lon sql.NullFloat64
	var locName, locAddress, category, items string
	var earliest, latest, due sql.NullString

	err := row.Scan(
		&t.ID, &t.Title, &t.DurationMin,
		&lat, &lon, &locName, &locAddress,
		&t.OpenTime, &t.CloseTime,
		&earliest, &latest, &due,
		&t.Priority, &category, &t.Purpose, &items, &t.DaysOpen,
	)
	if err != nil {
		return domain.Task{}, err
	}

	t.Category = domain.Category(category)

	if lat.Valid && lon.Valid || locName != "" || locAddress != "" {
		loc := &domain.TaskLocation{Name: locName, Address: locAddress}
		if lat.Valid && lon.Valid {
			loc.Coords = domain.Coordinates{Lat: lat.Float64, Lon: lon.Float64}
		}
		t.Location = loc
	}

	if t.EarliestStart, err = parseNullRFC3339(earliest); err != nil {
		return domain.Task{}, fmt.Errorf("parse earliest_start: %w", err)
	}
	if t.LatestEnd, err = parseNullRFC3339(latest); err != nil {
		return domain.Task{}, fmt.Errorf("parse latest_end: %w", err)
	}
	if t.DueDate, err = parseNullRFC3339(due); err != nil {
		return domain.Task{}, fmt.Errorf("parse due_date: %w", err)
	}

	if items != "" {
		if err := json.Unmarshal([]byte(items), &t.RequiredItems); err != nil {
			return domain.Task{}, fmt.Errorf("parse required_items: %w", err)
		}
	}

	return t, nil
}

func nullRFC3339(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

func parseNullRFC3339(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
