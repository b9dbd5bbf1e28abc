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
	"github.com/lib/pq"
)

// ClientRepository handles database operations for clients.
type ClientRepository struct {
	db *db.DB
}

// NewClientRepository creates a new instance of ClientRepository.
func NewClientRepository(database *db.DB) *ClientRepository {
	return &ClientRepository{db: database}
}

// CreateTx inserts a new client record inside an existing transaction, so the
// client row and its attribute set commit or roll back together.
func (r *ClientRepository) CreateTx(ctx context.Context, tx *sql.Tx, client *models.Client) error {
	if client.CreatedAt.IsZero() {
		client.CreatedAt = time.Now()
	}
	err := tx.QueryRowContext(ctx, queries.CreateClientQuery,
		client.ClientCode,
		client.Name,
		client.Status,
		client.CreatedAt,
	).Scan(&client.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return fmt.Errorf("client with code '%s' or name '%s' already exists: %w",
				client.ClientCode, client.Name, ErrDuplicateRecord)
		}
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

// GetByID retrieves a client by its ID.
func (r *ClientRepository) GetByID(ctx context.Context, id int64) (*models.Client, error) {
	return r.scanClient(r.db.QueryRowContext(ctx, queries.GetClientByIDQuery, id),
		fmt.Sprintf("client %d", id))
}

// GetByCode retrieves a client by its immutable client code.
func (r *ClientRepository) GetByCode(ctx context.Context, code string) (*models.Client, error) {
	return r.scanClient(r.db.QueryRowContext(ctx, queries.GetClientByCodeQuery, code),
		fmt.Sprintf("client with code '%s'", code))
}

func (r *ClientRepository) scanClient(row *sql.Row, what string) (*models.Client, error) {
	var client models.Client
	err := row.Scan(
		&client.ID,
		&client.ClientCode,
		&client.Name,
		&client.Status,
		&client.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s not found: %w", what, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get %s: %w", what, err)
	}
	return &client, nil
}

// List retrieves all clients ordered by name.
func (r *ClientRepository) List(ctx context.Context) ([]models.Client, error) {
	rows, err := r.db.QueryContext(ctx, queries.ListClientsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		var client models.Client
		if err := rows.Scan(
			&client.ID,
			&client.ClientCode,
			&client.Name,
			&client.Status,
			&client.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan client row: %w", err)
		}
		clients = append(clients, client)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating client rows: %w", err)
	}

	return clients, nil
}

// UpdateTx modifies a client's mutable fields (name, status) inside an
// existing transaction. The client code is the lookup key and never changes.
func (r *ClientRepository) UpdateTx(ctx context.Context, tx *sql.Tx, client *models.Client) error {
	result, err := tx.ExecContext(ctx, queries.UpdateClientQuery,
		client.Name,
		client.Status,
		client.ClientCode,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("client with name '%s' already exists: %w", client.Name, ErrDuplicateRecord)
		}
		return fmt.Errorf("failed to update client '%s': %w", client.ClientCode, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected after updating client '%s': %w", client.ClientCode, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("client with code '%s' not found for update: %w", client.ClientCode, ErrNotFound)
	}

	return nil
}
