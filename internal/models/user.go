package models

import "time"

// User is an end user of the chat surface, always owned by a client. Users are
// provisioned automatically on their first message for a known client.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	ClientID  int64     `json:"client_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`

	// ClientCode and ClientName are populated by list queries that join the
	// clients table; they are not columns of the users table.
	ClientCode string `json:"client_code,omitempty"`
	ClientName string `json:"client_name,omitempty"`
}
