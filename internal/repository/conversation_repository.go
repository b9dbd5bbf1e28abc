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
)

// ConversationRepository handles database operations for conversations.
type ConversationRepository struct {
	db *db.DB
}

// NewConversationRepository creates a new instance of ConversationRepository.
func NewConversationRepository(database *db.DB) *ConversationRepository {
	return &ConversationRepository{db: database}
}

// Create inserts a new conversation record.
func (r *ConversationRepository) Create(ctx context.Context, conv *models.Conversation) error {
	now := time.Now()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	conv.UpdatedAt = now
	err := r.db.QueryRowContext(ctx, queries.CreateConversationQuery,
		conv.UserID,
		conv.ClientID,
		conv.Title,
		conv.CreatedAt,
		conv.UpdatedAt,
	).Scan(&conv.ID)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

// GetSince retrieves the user's first conversation created at or after the
// given time. The chat flow uses midnight as the bound to find the
// conversation of the day.
func (r *ConversationRepository) GetSince(ctx context.Context, userID int64, since time.Time) (*models.Conversation, error) {
	return r.scanConversation(
		r.db.QueryRowContext(ctx, queries.GetConversationSinceQuery, userID, since),
		fmt.Sprintf("conversation for user %d since %s", userID, since.Format("2006-01-02")))
}

// GetLatest retrieves the user's most recent conversation.
func (r *ConversationRepository) GetLatest(ctx context.Context, userID int64) (*models.Conversation, error) {
	return r.scanConversation(
		r.db.QueryRowContext(ctx, queries.GetLatestConversationQuery, userID),
		fmt.Sprintf("latest conversation for user %d", userID))
}

// GetPrevious retrieves the user's most recent conversation other than the
// given one. Used to seed history when the day's conversation has just
// started.
func (r *ConversationRepository) GetPrevious(ctx context.Context, userID, excludeID int64) (*models.Conversation, error) {
	return r.scanConversation(
		r.db.QueryRowContext(ctx, queries.GetPreviousConversationQuery, userID, excludeID),
		fmt.Sprintf("previous conversation for user %d", userID))
}

func (r *ConversationRepository) scanConversation(row *sql.Row, what string) (*models.Conversation, error) {
	var conv models.Conversation
	err := row.Scan(
		&conv.ID,
		&conv.UserID,
		&conv.ClientID,
		&conv.Title,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s not found: %w", what, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get %s: %w", what, err)
	}
	return &conv, nil
}

// ListByUser retrieves all conversations of a user in chronological order.
func (r *ConversationRepository) ListByUser(ctx context.Context, userID int64) ([]models.Conversation, error) {
	rows, err := r.db.QueryContext(ctx, queries.ListConversationsByUserQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations for user %d: %w", userID, err)
	}
	defer rows.Close()

	var convs []models.Conversation
	for rows.Next() {
		var conv models.Conversation
		if err := rows.Scan(
			&conv.ID,
			&conv.UserID,
			&conv.ClientID,
			&conv.Title,
			&conv.CreatedAt,
			&conv.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		convs = append(convs, conv)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversation rows: %w", err)
	}

	return convs, nil
}

// DeleteBefore removes conversations created before the cutoff. Messages go
// with them through the schema's ON DELETE CASCADE. Returns the number of
// conversations removed.
func (r *ConversationRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, queries.DeleteConversationsBeforeQuery, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete conversations before %s: %w",
			cutoff.Format("2006-01-02"), err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("could not get rows affected after pruning conversations: %w", err)
	}
	return rowsAffected, nil
}
