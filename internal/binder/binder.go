// Package binder reconciles a client's stored attribute values against the
// current set of active templates. It produces the editable row list shown to
// an operator when a client is created or opened for editing, and converts the
// edited rows back into persistable attribute records.
//
// All functions are pure: they read only their arguments and never touch a
// store, the clock or any ambient state, so the merge can be unit tested with
// fabricated inputs.
package binder

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ijuchazara/bitworks-message/internal/models"
)

// ErrRowNotFound is returned by ApplyEdit when no editable row matches the
// requested template. Given rows produced by BindForEdit this indicates a
// caller bug, not user input.
var ErrRowNotFound = errors.New("editable row not found")

// Row is one editable attribute line in the client form: the template it
// belongs to and the value the operator sees.
type Row struct {
	TemplateID int64  `json:"template_id"`
	Value      string `json:"value"`
}

// BindForEdit merges the active templates with a client's stored attribute
// values into the editable row list. The result holds exactly one row per
// active template, in template order: the stored value where one exists,
// the empty string where none does.
//
// Stored values for templates missing from activeTemplates (deactivated ones)
// are simply not offered for editing; they remain untouched in storage.
func BindForEdit(activeTemplates []models.Template, existing []models.Attribute) []Row {
	byTemplate := make(map[int64]string, len(existing))
	for _, attr := range existing {
		byTemplate[attr.TemplateID] = attr.Value
	}

	rows := make([]Row, 0, len(activeTemplates))
	for _, t := range activeTemplates {
		rows = append(rows, Row{
			TemplateID: t.ID,
			Value:      byTemplate[t.ID],
		})
	}
	return rows
}

// ApplyEdit returns a copy of rows with the value of the row matching
// templateID replaced. All other rows are carried over unchanged.
func ApplyEdit(rows []Row, templateID int64, value string) ([]Row, error) {
	out := make([]Row, len(rows))
	copy(out, rows)

	for i := range out {
		if out[i].TemplateID == templateID {
			out[i].Value = value
			return out, nil
		}
	}
	return nil, fmt.Errorf("no editable row for template %d: %w", templateID, ErrRowNotFound)
}

// ToAttributeValues converts the final editable rows into attribute records
// for clientID, validating each value against its template's data type.
// Empty values are kept as empty strings rather than dropped: a blank
// attribute is a representable state distinct from a row that never existed.
//
// templates must contain every template referenced by rows; in practice it is
// the same active template list the rows were bound from.
func ToAttributeValues(clientID int64, rows []Row, templates []models.Template) ([]models.Attribute, error) {
	byID := make(map[int64]models.Template, len(templates))
	for _, t := range templates {
		byID[t.ID] = t
	}

	attrs := make([]models.Attribute, 0, len(rows))
	for _, row := range rows {
		t, ok := byID[row.TemplateID]
		if !ok {
			return nil, fmt.Errorf("no template for row %d: %w", row.TemplateID, ErrRowNotFound)
		}
		if err := validateValue(t, row.Value); err != nil {
			return nil, err
		}
		attrs = append(attrs, models.Attribute{
			ClientID:   clientID,
			TemplateID: row.TemplateID,
			Value:      row.Value,
		})
	}
	return attrs, nil
}

// validateValue checks value against the template's data type. Empty values
// are always accepted; they are rejected only by format, never coerced.
func validateValue(t models.Template, value string) error {
	if value == "" {
		return nil
	}

	switch t.DataType {
	case models.DataTypeInteger:
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			return fmt.Errorf("attribute %q must be a whole number, got %q: %w",
				t.Key, value, models.ErrInvalidInput)
		}
	case models.DataTypeFloat:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("attribute %q must be a decimal number, got %q: %w",
				t.Key, value, models.ErrInvalidInput)
		}
	case models.DataTypeDate:
		if _, err := time.Parse("2006-01-02", value); err != nil {
			return fmt.Errorf("attribute %q must be a calendar date (YYYY-MM-DD), got %q: %w",
				t.Key, value, models.ErrInvalidInput)
		}
	case models.DataTypeText, models.DataTypeTextarea:
		// free-form
	default:
		return fmt.Errorf("attribute %q has unknown data type %q: %w",
			t.Key, t.DataType, models.ErrInvalidInput)
	}
	return nil
}
