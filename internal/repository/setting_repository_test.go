package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ijuchazara/bitworks-message/internal/db"
	"github.com/ijuchazara/bitworks-message/internal/models"
)

func newSettingRepoWithMock(t *testing.T) (*SettingRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewSettingRepository(&db.DB{DB: mockDB})
	return repo, mock, func() { mockDB.Close() }
}

func TestSettingRepositoryGetNotFound(t *testing.T) {
	repo, mock, cleanup := newSettingRepoWithMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT key, value, description, updated_at").
		WithArgs("missing_key").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "description", "updated_at"}))

	_, err := repo.Get(context.Background(), "missing_key")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingRepositorySetUpserts(t *testing.T) {
	repo, mock, cleanup := newSettingRepoWithMock(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO settings").
		WithArgs(models.SettingAgentURL, "https://agent.example.com/hook", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	setting := &models.Setting{Key: models.SettingAgentURL, Value: "https://agent.example.com/hook"}
	err := repo.Set(context.Background(), setting)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingRepositorySeedDefaultsInsertsEachKey(t *testing.T) {
	repo, mock, cleanup := newSettingRepoWithMock(t)
	defer cleanup()

	defaults := []models.Setting{
		{Key: models.SettingAgentURL, Value: ""},
		{Key: models.SettingHistoryDays, Value: "30"},
	}

	// ON CONFLICT DO NOTHING keeps reseeding idempotent: a row that already
	// exists reports zero rows affected and no error.
	mock.ExpectExec("INSERT INTO settings").
		WithArgs(models.SettingAgentURL, "", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO settings").
		WithArgs(models.SettingHistoryDays, "30", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SeedDefaults(context.Background(), defaults)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
