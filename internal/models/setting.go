package models

import "time"

// Well-known setting keys consumed by the chat service.
const (
	SettingAgentURL      = "URL_AGENT"
	SettingAnswerHostURL = "URL_ANSWER_HOST"
	SettingHistoryDays   = "history_days"
)

// Setting is a key-value pair for global system settings.
type Setting struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description *string   `json:"description,omitempty"` // Use pointer to handle NULL-able TEXT
	UpdatedAt   time.Time `json:"updated_at"`
}
