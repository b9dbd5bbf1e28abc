package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/ijuchazara/bitworks-message/internal/db"
	"github.com/ijuchazara/bitworks-message/internal/db/queries"
	"github.com/ijuchazara/bitworks-message/internal/models"
)

// MessageRepository handles database operations for chat messages.
type MessageRepository struct {
	db *db.DB
}

// NewMessageRepository creates a new instance of MessageRepository.
func NewMessageRepository(database *db.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

// Create inserts a new message record.
func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now()
	}
	err := r.db.QueryRowContext(ctx, queries.CreateMessageQuery,
		message.ConversationID,
		message.Role,
		message.Content,
		message.Timestamp,
	).Scan(&message.ID)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListByConversation retrieves a conversation's messages in arrival order.
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID int64) ([]models.Message, error) {
	rows, err := r.db.QueryContext(ctx, queries.ListMessagesByConversationQuery, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages for conversation %d: %w", conversationID, err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var message models.Message
		if err := rows.Scan(
			&message.ID,
			&message.ConversationID,
			&message.Role,
			&message.Content,
			&message.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, message)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}

	return messages, nil
}

// CountByConversation returns how many messages a conversation holds.
func (r *MessageRepository) CountByConversation(ctx context.Context, conversationID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, queries.CountMessagesByConversationQuery, conversationID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages for conversation %d: %w", conversationID, err)
	}
	return count, nil
}
