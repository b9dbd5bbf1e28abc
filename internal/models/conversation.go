package models

import "time"

// Conversation groups the messages a user exchanges with the agent. The chat
// flow keeps one conversation per user per calendar day.
type Conversation struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ClientID  int64     `json:"client_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
