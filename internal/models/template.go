package models

import "fmt"

// Template data types. The data type decides the input widget on the frontend
// and how attribute values are validated before persistence.
const (
	DataTypeText     = "text"
	DataTypeTextarea = "textarea"
	DataTypeInteger  = "integer"
	DataTypeFloat    = "float"
	DataTypeDate     = "date"
)

// Template is a named, typed attribute definition offered to clients.
// Templates are never deleted, only deactivated; attribute values that
// reference a deactivated template stay readable.
type Template struct {
	ID          int64  `json:"id"`
	Key         string `json:"key"`
	Description string `json:"description"`
	DataType    string `json:"data_type"`
	Status      string `json:"status"`
}

// Validate checks the fields an operator can submit.
func (t *Template) Validate() error {
	if t.Key == "" {
		return fmt.Errorf("template key is required: %w", ErrInvalidInput)
	}
	switch t.DataType {
	case DataTypeText, DataTypeTextarea, DataTypeInteger, DataTypeFloat, DataTypeDate:
	default:
		return fmt.Errorf("unknown data type %q: %w", t.DataType, ErrInvalidInput)
	}
	if err := ValidateStatus(t.Status); err != nil {
		return err
	}
	return nil
}
