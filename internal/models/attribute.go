package models

import "time"

// Attribute is the value a specific client holds for a specific template.
// The (ClientID, TemplateID) pair is unique. The value is stored as raw text;
// the referenced template's data type defines its interpretation.
type Attribute struct {
	ID         int64     `json:"id"`
	ClientID   int64     `json:"client_id"`
	TemplateID int64     `json:"template_id"`
	Value      string    `json:"value"`
	UpdatedAt  time.Time `json:"updated_at"`
}
