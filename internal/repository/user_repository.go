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

// UserRepository handles database operations for chat users.
type UserRepository struct {
	db *db.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(database *db.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Create inserts a new user record.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if user.Status == "" {
		user.Status = models.StatusActive
	}
	err := r.db.QueryRowContext(ctx, queries.CreateUserQuery,
		user.Username,
		user.ClientID,
		user.Status,
		user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return fmt.Errorf("user '%s' already exists for client %d: %w",
				user.Username, user.ClientID, ErrDuplicateRecord)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, queries.GetUserByIDQuery, id)
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.ClientID,
		&user.Status,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &user, nil
}

// GetByUsernameAndClientCode retrieves a user by username scoped to a client
// code. Returns ErrNotFound when the user does not exist for that client.
func (r *UserRepository) GetByUsernameAndClientCode(ctx context.Context, username, clientCode string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, queries.GetUserByUsernameAndClientQuery, username, clientCode)
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.ClientID,
		&user.Status,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user '%s' not found for client '%s': %w", username, clientCode, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user '%s' for client '%s': %w", username, clientCode, err)
	}
	return &user, nil
}

// List retrieves all users joined with their owning client's code and name.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, queries.ListUsersQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.ClientID,
			&user.Status,
			&user.CreatedAt,
			&user.ClientCode,
			&user.ClientName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, user)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}
