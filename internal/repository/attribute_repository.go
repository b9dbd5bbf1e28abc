package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ijuchazara/bitworks-message/internal/db"
	"github.com/ijuchazara/bitworks-message/internal/db/queries"
	"github.com/ijuchazara/bitworks-message/internal/models"
)

// AttributeRepository handles database operations for per-client attribute
// values. Rows are keyed by (client_id, template_id); values referencing
// deactivated templates are kept as historical data.
type AttributeRepository struct {
	db *db.DB
}

// NewAttributeRepository creates a new instance of AttributeRepository.
func NewAttributeRepository(database *db.DB) *AttributeRepository {
	return &AttributeRepository{db: database}
}

// ListByClient retrieves all stored attribute values for a client, including
// values whose template has since been deactivated.
func (r *AttributeRepository) ListByClient(ctx context.Context, clientID int64) ([]models.Attribute, error) {
	rows, err := r.db.QueryContext(ctx, queries.ListAttributesByClientQuery, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attributes for client %d: %w", clientID, err)
	}
	defer rows.Close()

	var attrs []models.Attribute
	for rows.Next() {
		var attr models.Attribute
		if err := rows.Scan(
			&attr.ID,
			&attr.ClientID,
			&attr.TemplateID,
			&attr.Value,
			&attr.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attribute row: %w", err)
		}
		attrs = append(attrs, attr)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attribute rows: %w", err)
	}

	return attrs, nil
}

// UpsertForClientTx writes the submitted attribute rows of a client inside an
// existing transaction, one upsert per row keyed on (client_id, template_id).
// Stored values whose template is no longer offered are never submitted and
// therefore never touched; they stay readable as historical data.
func (r *AttributeRepository) UpsertForClientTx(ctx context.Context, tx *sql.Tx, clientID int64, attrs []models.Attribute) error {
	now := time.Now()
	for _, attr := range attrs {
		if _, err := tx.ExecContext(ctx, queries.UpsertAttributeQuery,
			clientID,
			attr.TemplateID,
			attr.Value,
			now,
		); err != nil {
			return fmt.Errorf("failed to save attribute for client %d template %d: %w",
				clientID, attr.TemplateID, err)
		}
	}
	return nil
}
