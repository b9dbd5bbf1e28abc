package models

import "time"

// Message roles.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

// Message is a single chat message inside a conversation.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}
