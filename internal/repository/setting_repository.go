package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ijuchazara/bitworks-message/internal/db"
	"github.com/ijuchazara/bitworks-message/internal/db/queries"
	"github.com/ijuchazara/bitworks-message/internal/models"
	"github.com/ijuchazara/bitworks-message/pkg/debug"
)

// SettingRepository handles database operations for system settings.
type SettingRepository struct {
	db *db.DB
}

// NewSettingRepository creates a new instance of SettingRepository.
func NewSettingRepository(database *db.DB) *SettingRepository {
	return &SettingRepository{db: database}
}

// Get retrieves a setting by its key.
func (r *SettingRepository) Get(ctx context.Context, key string) (*models.Setting, error) {
	row := r.db.QueryRowContext(ctx, queries.GetSettingQuery, key)
	var setting models.Setting
	err := row.Scan(
		&setting.Key,
		&setting.Value,
		&setting.Description,
		&setting.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("setting '%s' not found: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get setting '%s': %w", key, err)
	}
	return &setting, nil
}

// List retrieves all settings ordered by key.
func (r *SettingRepository) List(ctx context.Context) ([]models.Setting, error) {
	rows, err := r.db.QueryContext(ctx, queries.ListSettingsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	var settings []models.Setting
	for rows.Next() {
		var setting models.Setting
		if err := rows.Scan(
			&setting.Key,
			&setting.Value,
			&setting.Description,
			&setting.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan setting row: %w", err)
		}
		settings = append(settings, setting)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating setting rows: %w", err)
	}

	return settings, nil
}

// Set creates or updates a setting by key.
func (r *SettingRepository) Set(ctx context.Context, setting *models.Setting) error {
	setting.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, queries.UpsertSettingQuery,
		setting.Key,
		setting.Value,
		setting.Description,
		setting.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to set setting '%s': %w", setting.Key, err)
	}
	return nil
}

// SeedDefaults inserts the default settings that do not exist yet, leaving
// operator-edited values alone. Safe to run on every startup.
func (r *SettingRepository) SeedDefaults(ctx context.Context, defaults []models.Setting) error {
	now := time.Now()
	for _, setting := range defaults {
		if _, err := r.db.ExecContext(ctx, queries.SeedSettingQuery,
			setting.Key,
			setting.Value,
			setting.Description,
			now,
		); err != nil {
			return fmt.Errorf("failed to seed setting '%s': %w", setting.Key, err)
		}
		debug.Debug("Seeded default setting '%s'", setting.Key)
	}
	return nil
}
