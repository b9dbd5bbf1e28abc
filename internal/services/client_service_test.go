package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ijuchazara/bitworks-message/internal/binder"
	"github.com/ijuchazara/bitworks-message/internal/db"
	"github.com/ijuchazara/bitworks-message/internal/models"
	"github.com/ijuchazara/bitworks-message/internal/repository"
)

func newClientServiceWithMock(t *testing.T) (*ClientService, sqlmock.Sqlmock, func()) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dbWrapper := &db.DB{DB: mockDB}
	service := NewClientService(
		dbWrapper,
		repository.NewClientRepository(dbWrapper),
		repository.NewTemplateRepository(dbWrapper),
		repository.NewAttributeRepository(dbWrapper),
	)
	return service, mock, func() { mockDB.Close() }
}

func templateRows(templates ...models.Template) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "key", "description", "data_type", "status"})
	for _, tpl := range templates {
		rows.AddRow(tpl.ID, tpl.Key, tpl.Description, tpl.DataType, tpl.Status)
	}
	return rows
}

func TestClientServiceCreateSavesClientAndAttributesAtomically(t *testing.T) {
	service, mock, cleanup := newClientServiceWithMock(t)
	defer cleanup()

	// Template catalog the rows are validated against
	mock.ExpectQuery("SELECT id, key, description, data_type, status").
		WillReturnRows(templateRows(
			models.Template{ID: 1, Key: "industry", DataType: models.DataTypeText, Status: models.StatusActive},
			models.Template{ID: 2, Key: "employees", DataType: models.DataTypeInteger, Status: models.StatusActive},
		))

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO clients").
		WithArgs("acme", "Acme Corp", models.StatusActive, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec("INSERT INTO attributes").
		WithArgs(int64(7), int64(1), "Retail", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO attributes").
		WithArgs(int64(7), int64(2), "250", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	rows := []binder.Row{
		{TemplateID: 1, Value: "Retail"},
		{TemplateID: 2, Value: "250"},
	}
	client, err := service.Create(context.Background(), "acme", "Acme Corp", models.StatusActive, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(7), client.ID)
	assert.Equal(t, "acme", client.ClientCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientServiceCreateRollsBackOnAttributeFailure(t *testing.T) {
	service, mock, cleanup := newClientServiceWithMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, key, description, data_type, status").
		WillReturnRows(templateRows(
			models.Template{ID: 1, Key: "industry", DataType: models.DataTypeText, Status: models.StatusActive},
		))

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO clients").
		WithArgs("acme", "Acme Corp", models.StatusActive, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec("INSERT INTO attributes").
		WithArgs(int64(7), int64(1), "Retail", sqlmock.AnyArg()).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	rows := []binder.Row{{TemplateID: 1, Value: "Retail"}}
	_, err := service.Create(context.Background(), "acme", "Acme Corp", models.StatusActive, rows)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientServiceCreateDuplicateCode(t *testing.T) {
	service, mock, cleanup := newClientServiceWithMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, key, description, data_type, status").
		WillReturnRows(templateRows())

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO clients").
		WithArgs("acme", "Acme Corp", models.StatusActive, sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	_, err := service.Create(context.Background(), "acme", "Acme Corp", models.StatusActive, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrDuplicateRecord)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientServiceCreateRejectsInvalidValueBeforeWriting(t *testing.T) {
	service, mock, cleanup := newClientServiceWithMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, key, description, data_type, status").
		WillReturnRows(templateRows(
			models.Template{ID: 2, Key: "employees", DataType: models.DataTypeInteger, Status: models.StatusActive},
		))

	// Type validation fails inside the transaction, before any attribute
	// write; the client insert must roll back.
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO clients").
		WithArgs("acme", "Acme Corp", models.StatusActive, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectRollback()

	rows := []binder.Row{{TemplateID: 2, Value: "not a number"}}
	_, err := service.Create(context.Background(), "acme", "Acme Corp", models.StatusActive, rows)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientServiceCreateRejectsMissingFields(t *testing.T) {
	service, _, cleanup := newClientServiceWithMock(t)
	defer cleanup()

	_, err := service.Create(context.Background(), "", "Acme Corp", models.StatusActive, nil)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = service.Create(context.Background(), "acme", "", models.StatusActive, nil)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = service.Create(context.Background(), "acme", "Acme Corp", "archived", nil)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestClientServiceUpdateUnknownClient(t *testing.T) {
	service, mock, cleanup := newClientServiceWithMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, client_code, name, status, created_at").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_code", "name", "status", "created_at"}))

	_, err := service.Update(context.Background(), "ghost", "Ghost Inc", models.StatusActive, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientServiceUpdateSavesSubmittedRows(t *testing.T) {
	service, mock, cleanup := newClientServiceWithMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery("SELECT id, client_code, name, status, created_at").
		WithArgs("acme").
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_code", "name", "status", "created_at"}).
			AddRow(int64(7), "acme", "Acme Corp", models.StatusActive, now))

	mock.ExpectQuery("SELECT id, key, description, data_type, status").
		WillReturnRows(templateRows(
			models.Template{ID: 1, Key: "industry", DataType: models.DataTypeText, Status: models.StatusActive},
		))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE clients").
		WithArgs("Acme Corporation", models.StatusInactive, "acme").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO attributes").
		WithArgs(int64(7), int64(1), "Logistics", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	rows := []binder.Row{{TemplateID: 1, Value: "Logistics"}}
	client, err := service.Update(context.Background(), "acme", "Acme Corporation", models.StatusInactive, rows)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corporation", client.Name)
	assert.Equal(t, models.StatusInactive, client.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientServiceUpdateKeepsValuesForDeactivatedTemplates(t *testing.T) {
	service, mock, cleanup := newClientServiceWithMock(t)
	defer cleanup()

	// Template 2 was deactivated after the client stored a value for it, so
	// the edit form submits only the template-1 row. The save must touch
	// nothing but that row: a delete of the client's attribute set, or any
	// write against template 2, would show up as an unexpected call here.
	now := time.Now()
	mock.ExpectQuery("SELECT id, client_code, name, status, created_at").
		WithArgs("acme").
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_code", "name", "status", "created_at"}).
			AddRow(int64(7), "acme", "Acme Corp", models.StatusActive, now))

	mock.ExpectQuery("SELECT id, key, description, data_type, status").
		WillReturnRows(templateRows(
			models.Template{ID: 1, Key: "industry", DataType: models.DataTypeText, Status: models.StatusActive},
			models.Template{ID: 2, Key: "employees", DataType: models.DataTypeInteger, Status: models.StatusInactive},
		))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE clients").
		WithArgs("Acme Corp", models.StatusActive, "acme").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO attributes").
		WithArgs(int64(7), int64(1), "Retail", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	rows := []binder.Row{{TemplateID: 1, Value: "Retail"}}
	_, err := service.Update(context.Background(), "acme", "Acme Corp", models.StatusActive, rows)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientServiceUpdateAcceptsRowForTemplateDeactivatedMidSession(t *testing.T) {
	service, mock, cleanup := newClientServiceWithMock(t)
	defer cleanup()

	// The row was bound while template 2 was active; it got deactivated
	// before the save arrived. The value is still validated by its
	// template's type and persisted.
	now := time.Now()
	mock.ExpectQuery("SELECT id, client_code, name, status, created_at").
		WithArgs("acme").
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_code", "name", "status", "created_at"}).
			AddRow(int64(7), "acme", "Acme Corp", models.StatusActive, now))

	mock.ExpectQuery("SELECT id, key, description, data_type, status").
		WillReturnRows(templateRows(
			models.Template{ID: 2, Key: "employees", DataType: models.DataTypeInteger, Status: models.StatusInactive},
		))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE clients").
		WithArgs("Acme Corp", models.StatusActive, "acme").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO attributes").
		WithArgs(int64(7), int64(2), "250", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	rows := []binder.Row{{TemplateID: 2, Value: "250"}}
	_, err := service.Update(context.Background(), "acme", "Acme Corp", models.StatusActive, rows)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientServiceEditableAttributesMergesStoredValues(t *testing.T) {
	service, mock, cleanup := newClientServiceWithMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery("SELECT id, client_code, name, status, created_at").
		WithArgs("acme").
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_code", "name", "status", "created_at"}).
			AddRow(int64(7), "acme", "Acme Corp", models.StatusActive, now))

	mock.ExpectQuery("SELECT id, key, description, data_type, status").
		WillReturnRows(templateRows(
			models.Template{ID: 1, Key: "industry", DataType: models.DataTypeText, Status: models.StatusActive},
			models.Template{ID: 3, Key: "founded", DataType: models.DataTypeDate, Status: models.StatusActive},
		))

	// Stored values: one for an active template, one for a template that is
	// no longer offered (id 2).
	mock.ExpectQuery("SELECT id, client_id, template_id, value, updated_at").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "template_id", "value", "updated_at"}).
			AddRow(int64(10), int64(7), int64(1), "Retail", now).
			AddRow(int64(11), int64(7), int64(2), "legacy value", now))

	rows, err := service.EditableAttributes(context.Background(), "acme")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, binder.Row{TemplateID: 1, Value: "Retail"}, rows[0])
	assert.Equal(t, binder.Row{TemplateID: 3, Value: ""}, rows[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientServiceEditableAttributesForNew(t *testing.T) {
	service, mock, cleanup := newClientServiceWithMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, key, description, data_type, status").
		WillReturnRows(templateRows(
			models.Template{ID: 1, Key: "industry", DataType: models.DataTypeText, Status: models.StatusActive},
		))

	rows, err := service.EditableAttributesForNew(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, binder.Row{TemplateID: 1, Value: ""}, rows[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}
