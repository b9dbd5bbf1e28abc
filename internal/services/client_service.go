package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ijuchazara/bitworks-message/internal/binder"
	"github.com/ijuchazara/bitworks-message/internal/db"
	"github.com/ijuchazara/bitworks-message/internal/models"
	"github.com/ijuchazara/bitworks-message/internal/repository"
	"github.com/ijuchazara/bitworks-message/pkg/debug"
)

// ClientService owns the client save flow: it binds editable attribute rows
// against the active templates and persists the client record together with
// its attribute set in a single transaction.
type ClientService struct {
	db           *db.DB
	clientRepo   *repository.ClientRepository
	templateRepo *repository.TemplateRepository
	attrRepo     *repository.AttributeRepository
}

// NewClientService creates a new ClientService.
func NewClientService(database *db.DB, cr *repository.ClientRepository, tr *repository.TemplateRepository, ar *repository.AttributeRepository) *ClientService {
	return &ClientService{
		db:           database,
		clientRepo:   cr,
		templateRepo: tr,
		attrRepo:     ar,
	}
}

// EditableAttributesForNew binds the editable attribute rows for a client
// that does not exist yet: one empty row per active template.
func (s *ClientService) EditableAttributesForNew(ctx context.Context) ([]binder.Row, error) {
	templates, err := s.templateRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return binder.BindForEdit(templates, nil), nil
}

// EditableAttributes binds the editable attribute rows for an existing
// client: the current active templates merged with the client's stored
// values. Stored values for deactivated templates are not offered but stay
// untouched in the attribute store.
func (s *ClientService) EditableAttributes(ctx context.Context, clientCode string) ([]binder.Row, error) {
	client, err := s.clientRepo.GetByCode(ctx, clientCode)
	if err != nil {
		return nil, err
	}

	templates, err := s.templateRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := s.attrRepo.ListByClient(ctx, client.ID)
	if err != nil {
		return nil, err
	}
	return binder.BindForEdit(templates, existing), nil
}

func validateClientInput(clientCode, name, status string) error {
	if clientCode == "" {
		return fmt.Errorf("client code is required: %w", models.ErrInvalidInput)
	}
	if name == "" {
		return fmt.Errorf("client name is required: %w", models.ErrInvalidInput)
	}
	return models.ValidateStatus(status)
}

// Create validates and persists a new client together with its attribute set.
// The client row and the attributes commit atomically: a failed attribute
// write rolls the client row back as well.
func (s *ClientService) Create(ctx context.Context, clientCode, name, status string, rows []binder.Row) (*models.Client, error) {
	if err := validateClientInput(clientCode, name, status); err != nil {
		return nil, err
	}

	// Rows are validated against the full template catalog: a template
	// deactivated after the edit form was bound still types its row.
	templates, err := s.templateRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	client := &models.Client{
		ClientCode: clientCode,
		Name:       name,
		Status:     status,
	}

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.clientRepo.CreateTx(ctx, tx, client); err != nil {
			return err
		}
		attrs, err := binder.ToAttributeValues(client.ID, rows, templates)
		if err != nil {
			return err
		}
		return s.attrRepo.UpsertForClientTx(ctx, tx, client.ID, attrs)
	})
	if err != nil {
		return nil, err
	}

	debug.Info("Created client '%s' (%s) with %d attribute rows", name, clientCode, len(rows))
	return client, nil
}

// Update validates and persists changes to an existing client, identified by
// its immutable code. Every submitted row is written, atomically with the
// client row; stored values for templates the form no longer offers are left
// untouched as historical data.
func (s *ClientService) Update(ctx context.Context, clientCode, name, status string, rows []binder.Row) (*models.Client, error) {
	if err := validateClientInput(clientCode, name, status); err != nil {
		return nil, err
	}

	client, err := s.clientRepo.GetByCode(ctx, clientCode)
	if err != nil {
		return nil, err
	}

	templates, err := s.templateRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	attrs, err := binder.ToAttributeValues(client.ID, rows, templates)
	if err != nil {
		return nil, err
	}

	client.Name = name
	client.Status = status

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.clientRepo.UpdateTx(ctx, tx, client); err != nil {
			return err
		}
		return s.attrRepo.UpsertForClientTx(ctx, tx, client.ID, attrs)
	})
	if err != nil {
		return nil, err
	}

	debug.Info("Updated client '%s' with %d attribute rows", clientCode, len(rows))
	return client, nil
}
