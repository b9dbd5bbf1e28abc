package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ijuchazara/bitworks-message/internal/db"
	"github.com/ijuchazara/bitworks-message/internal/db/queries"
	"github.com/ijuchazara/bitworks-message/internal/models"
	"github.com/lib/pq"
)

// TemplateRepository handles database operations for attribute templates.
// Templates are only ever created, updated or deactivated; there is no delete,
// so attribute values referencing old templates stay readable.
type TemplateRepository struct {
	db *db.DB
}

// NewTemplateRepository creates a new instance of TemplateRepository.
func NewTemplateRepository(database *db.DB) *TemplateRepository {
	return &TemplateRepository{db: database}
}

// Create inserts a new template record.
func (r *TemplateRepository) Create(ctx context.Context, template *models.Template) error {
	err := r.db.QueryRowContext(ctx, queries.CreateTemplateQuery,
		template.Key,
		template.Description,
		template.DataType,
		template.Status,
	).Scan(&template.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return fmt.Errorf("template with key '%s' already exists: %w", template.Key, ErrDuplicateRecord)
		}
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

// GetByID retrieves a template by its ID.
func (r *TemplateRepository) GetByID(ctx context.Context, id int64) (*models.Template, error) {
	row := r.db.QueryRowContext(ctx, queries.GetTemplateByIDQuery, id)
	var template models.Template
	err := row.Scan(
		&template.ID,
		&template.Key,
		&template.Description,
		&template.DataType,
		&template.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("template %d not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get template %d: %w", id, err)
	}
	return &template, nil
}

// List retrieves all templates regardless of status, in stable ID order.
func (r *TemplateRepository) List(ctx context.Context) ([]models.Template, error) {
	return r.queryTemplates(ctx, queries.ListTemplatesQuery)
}

// ListActive retrieves active templates only. This is the template set offered
// as editable attribute rows when a client is created or edited.
func (r *TemplateRepository) ListActive(ctx context.Context) ([]models.Template, error) {
	return r.queryTemplates(ctx, queries.ListActiveTemplatesQuery)
}

func (r *TemplateRepository) queryTemplates(ctx context.Context, query string) ([]models.Template, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []models.Template
	for rows.Next() {
		var template models.Template
		if err := rows.Scan(
			&template.ID,
			&template.Key,
			&template.Description,
			&template.DataType,
			&template.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan template row: %w", err)
		}
		templates = append(templates, template)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating template rows: %w", err)
	}

	return templates, nil
}

// Update modifies an existing template. Changing the data type deliberately
// leaves stored attribute values as-is; stale-type values are a surfaced
// compatibility caveat, not something to migrate silently.
func (r *TemplateRepository) Update(ctx context.Context, template *models.Template) error {
	result, err := r.db.ExecContext(ctx, queries.UpdateTemplateQuery,
		template.Key,
		template.Description,
		template.DataType,
		template.Status,
		template.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("template with key '%s' already exists: %w", template.Key, ErrDuplicateRecord)
		}
		return fmt.Errorf("failed to update template %d: %w", template.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected after updating template %d: %w", template.ID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("template %d not found for update: %w", template.ID, ErrNotFound)
	}

	return nil
}
