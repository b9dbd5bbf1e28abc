package models

import (
	"fmt"
	"time"
)

// Lifecycle statuses shared by clients, users and templates.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// ValidateStatus checks a lifecycle status value.
func ValidateStatus(status string) error {
	if status != StatusActive && status != StatusInactive {
		return fmt.Errorf("invalid status %q: %w", status, ErrInvalidInput)
	}
	return nil
}

// Client is a tenant of the conversation service. ClientCode is assigned by an
// operator at creation and immutable afterwards.
type Client struct {
	ID         int64     `json:"id"`
	ClientCode string    `json:"client_code"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}
