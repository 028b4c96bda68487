package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"errand-route-service/internal/domain"
)

// SQLite-backed implementation of the SettingsRepository port. The profile
// is a single row with a fixed id.
type SqliteSettingsRepository struct{ DB *sql.DB }

func NewSqliteSettingsRepository(db *sql.DB) *SqliteSettingsRepository {
	return &SqliteSettingsRepository{DB: db}
}

// Return the stored profile, or nil when none has been saved yet.
func (s *SqliteSettingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite settings repository: DB is nil")
	}

	query := `
	SELECT
		home_lat,
		home_lon,
		home_address,
		home_name,
		timezone,
		work_start,
		work_end
	FROM settings
	WHERE id = 1;
	`

	var lat, lon sql.NullFloat64
	var settings domain.Settings
	err := s.DB.QueryRowContext(ctx, query).Scan(
		&lat, &lon,
		&settings.HomeAddress, &settings.HomeName,
		&settings.Timezone, &settings.WorkStart, &settings.WorkEnd,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: query settings table: %w", err)
	}

	if lat.Valid && lon.Valid {
		settings.Home = &domain.Coordinates{Lat: lat.Float64, Lon: lon.Float64}
	}

	return &settings, nil
}

// Store the profile, replacing any previous row.
func (s *SqliteSettingsRepository) Put(ctx context.Context, settings domain.Settings) error {
	if s.DB == nil {
		return errors.New("sqlite settings repository: DB is nil")
	}

	var lat, lon sql.NullFloat64
	if settings.Home != nil {
		lat = sql.NullFloat64{Float64: settings.Home.Lat, Valid: true}
		lon = sql.NullFloat64{Float64: settings.Home.Lon, Valid: true}
	}

	query := `
	INSERT OR REPLACE INTO settings (
		id,
		home_lat,
		home_lon,
		home_address,
		home_name,
		timezone,
		work_start,
		work_end
	)
	VALUES (1, ?, ?, ?, ?, ?, ?, ?);
	`

	_, err := s.DB.ExecContext(ctx, query,
		lat, lon,
		settings.HomeAddress, settings.HomeName,
		settings.Timezone, settings.WorkStart, settings.WorkEnd,
	)
	if err != nil {
		return fmt.Errorf("put settings: %w", err)
	}

	return nil
}
