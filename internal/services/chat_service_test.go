package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ijuchazara/bitworks-message/internal/db"
	"github.com/ijuchazara/bitworks-message/internal/models"
	"github.com/ijuchazara/bitworks-message/internal/repository"
)

// recordingNotifier captures pushed payloads instead of writing to a socket.
type recordingNotifier struct {
	userIDs  []int64
	payloads [][]byte
}

func (n *recordingNotifier) Send(userID int64, payload []byte) error {
	n.userIDs = append(n.userIDs, userID)
	n.payloads = append(n.payloads, payload)
	return nil
}

func newChatServiceWithMock(t *testing.T) (*ChatService, *recordingNotifier, sqlmock.Sqlmock, func()) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dbWrapper := &db.DB{DB: mockDB}
	notifier := &recordingNotifier{}
	service := NewChatService(
		repository.NewClientRepository(dbWrapper),
		repository.NewUserRepository(dbWrapper),
		repository.NewConversationRepository(dbWrapper),
		repository.NewMessageRepository(dbWrapper),
		repository.NewAttributeRepository(dbWrapper),
		repository.NewTemplateRepository(dbWrapper),
		repository.NewSettingRepository(dbWrapper),
		notifier,
		"/api/answer",
	)
	return service, notifier, mock, func() { mockDB.Close() }
}

func clientRow(id int64, code, name string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "client_code", "name", "status", "created_at"}).
		AddRow(id, code, name, models.StatusActive, time.Now())
}

func userRow(id int64, username string, clientID int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "client_id", "status", "created_at"}).
		AddRow(id, username, clientID, models.StatusActive, time.Now())
}

func conversationRow(id, userID, clientID int64, title string, createdAt time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "client_id", "title", "created_at", "updated_at"}).
		AddRow(id, userID, clientID, title, createdAt, createdAt)
}

func TestChatServiceQuestionUnknownClient(t *testing.T) {
	service, notifier, mock, cleanup := newChatServiceWithMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, client_code, name, status, created_at").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_code", "name", "status", "created_at"}))

	_, err := service.Question(context.Background(), "alice", "ghost", "hello?")
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Empty(t, notifier.userIDs, "nothing should be pushed for an unknown client")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatServiceQuestionRequiresUserAndClient(t *testing.T) {
	service, _, _, cleanup := newChatServiceWithMock(t)
	defer cleanup()

	_, err := service.Question(context.Background(), "", "acme", "hello?")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = service.Question(context.Background(), "alice", "", "hello?")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestChatServiceQuestionProvisionsUnknownUser(t *testing.T) {
	service, notifier, mock, cleanup := newChatServiceWithMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, client_code, name, status, created_at").
		WithArgs("acme").
		WillReturnRows(clientRow(7, "acme", "Acme Corp"))

	// Unknown user gets created on the spot
	mock.ExpectQuery("SELECT u.id, u.username, u.client_id").
		WithArgs("alice", "acme").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "client_id", "status", "created_at"}))
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("alice", int64(7), models.StatusActive, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	// No conversation today yet, so one is created
	mock.ExpectQuery("SELECT id, user_id, client_id, title").
		WithArgs(int64(42), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "client_id", "title", "created_at", "updated_at"}))
	mock.ExpectQuery("INSERT INTO conversations").
		WithArgs(int64(42), int64(7), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(100)))

	mock.ExpectQuery("INSERT INTO messages").
		WithArgs(int64(100), models.RoleUser, "hello?", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1000)))

	// The prompt build fails here, which keeps the agent call out of the
	// picture; the user's message must still be stored and announced.
	mock.ExpectQuery("SELECT id, client_id, template_id, value, updated_at").
		WithArgs(int64(7)).
		WillReturnError(errors.New("connection reset"))

	message, err := service.Question(context.Background(), "alice", "acme", "hello?")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), message.ID)
	assert.Equal(t, models.RoleUser, message.Role)
	assert.Equal(t, int64(100), message.ConversationID)

	require.Len(t, notifier.payloads, 1)
	assert.Equal(t, int64(42), notifier.userIDs[0])
	assert.Equal(t, "new_message", string(notifier.payloads[0]))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatServiceBuildPromptIncludesAttributeContext(t *testing.T) {
	service, _, mock, cleanup := newChatServiceWithMock(t)
	defer cleanup()

	now := time.Now()
	client := &models.Client{ID: 7, ClientCode: "acme", Name: "Acme Corp"}
	user := &models.User{ID: 42, Username: "alice", ClientID: 7}
	conv := &models.Conversation{ID: 100, UserID: 42, ClientID: 7}

	mock.ExpectQuery("SELECT id, client_id, template_id, value, updated_at").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "template_id", "value", "updated_at"}).
			AddRow(int64(1), int64(7), int64(1), "Retail", now).
			AddRow(int64(2), int64(7), int64(2), "250", now))

	mock.ExpectQuery("SELECT id, key, description, data_type, status").
		WillReturnRows(sqlmock.NewRows([]string{"id", "key", "description", "data_type", "status"}).
			AddRow(int64(1), "industry", "Line of business", models.DataTypeText, models.StatusActive).
			AddRow(int64(2), "employees", "Employee count", models.DataTypeInteger, models.StatusActive))

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	mock.ExpectQuery("SELECT id, conversation_id, role, content, timestamp").
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "conversation_id", "role", "content", "timestamp"}).
			AddRow(int64(1), int64(100), models.RoleUser, "What are your prices?", now).
			AddRow(int64(2), int64(100), models.RoleAgent, "Our catalog starts at 10 EUR.", now).
			AddRow(int64(3), int64(100), models.RoleUser, "And shipping?", now))

	prompt, err := service.BuildPrompt(context.Background(), client, user, conv)
	require.NoError(t, err)

	assert.Contains(t, prompt, "Context for company Acme Corp:")
	assert.Contains(t, prompt, "- Line of business: Retail")
	assert.Contains(t, prompt, "- Employee count: 250")
	assert.Contains(t, prompt, "Answer the last question of the following history:")
	assert.Contains(t, prompt, "user: And shipping?")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatServiceBuildPromptCarriesPreviousConversation(t *testing.T) {
	service, _, mock, cleanup := newChatServiceWithMock(t)
	defer cleanup()

	now := time.Now()
	client := &models.Client{ID: 7, ClientCode: "acme", Name: "Acme Corp"}
	user := &models.User{ID: 42, Username: "alice", ClientID: 7}
	conv := &models.Conversation{ID: 100, UserID: 42, ClientID: 7}

	mock.ExpectQuery("SELECT id, client_id, template_id, value, updated_at").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "template_id", "value", "updated_at"}))

	mock.ExpectQuery("SELECT id, key, description, data_type, status").
		WillReturnRows(sqlmock.NewRows([]string{"id", "key", "description", "data_type", "status"}))

	// Only the just-stored question in today's conversation triggers the
	// carry-over from the previous one.
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery("SELECT id, user_id, client_id, title").
		WithArgs(int64(42), int64(100)).
		WillReturnRows(conversationRow(90, 42, 7, "yesterday", now.AddDate(0, 0, -1)))

	mock.ExpectQuery("SELECT id, conversation_id, role, content, timestamp").
		WithArgs(int64(90)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "conversation_id", "role", "content", "timestamp"}).
			AddRow(int64(1), int64(90), models.RoleUser, "Do you deliver on weekends?", now.AddDate(0, 0, -1)).
			AddRow(int64(2), int64(90), models.RoleAgent, "Yes, on Saturdays.", now.AddDate(0, 0, -1)))

	mock.ExpectQuery("SELECT id, conversation_id, role, content, timestamp").
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "conversation_id", "role", "content", "timestamp"}).
			AddRow(int64(3), int64(100), models.RoleUser, "What about Sundays?", now))

	prompt, err := service.BuildPrompt(context.Background(), client, user, conv)
	require.NoError(t, err)

	assert.Contains(t, prompt, "user: Do you deliver on weekends?")
	assert.Contains(t, prompt, "agent: Yes, on Saturdays.")
	assert.Contains(t, prompt, "user: What about Sundays?")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatServiceAnswerStoresAndPushes(t *testing.T) {
	service, notifier, mock, cleanup := newChatServiceWithMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery("SELECT id, username, client_id, status, created_at").
		WithArgs(int64(42)).
		WillReturnRows(userRow(42, "alice", 7))

	mock.ExpectQuery("SELECT id, client_code, name, status, created_at").
		WithArgs(int64(7)).
		WillReturnRows(clientRow(7, "acme", "Acme Corp"))

	mock.ExpectQuery("SELECT id, user_id, client_id, title").
		WithArgs(int64(42)).
		WillReturnRows(conversationRow(100, 42, 7, "today", now))

	mock.ExpectQuery("INSERT INTO messages").
		WithArgs(int64(100), models.RoleAgent, "Our opening hours are 9 to 6.", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1001)))

	message, err := service.Answer(context.Background(), 42, "acme", "Our opening hours are 9 to 6.")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAgent, message.Role)

	require.Len(t, notifier.payloads, 1)
	assert.Equal(t, int64(42), notifier.userIDs[0])

	var pushed MessageNotification
	require.NoError(t, json.Unmarshal(notifier.payloads[0], &pushed))
	assert.Equal(t, int64(1001), pushed.ID)
	assert.Equal(t, models.RoleAgent, pushed.Role)
	assert.Equal(t, "Our opening hours are 9 to 6.", pushed.Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatServiceAnswerRejectsForeignClient(t *testing.T) {
	service, notifier, mock, cleanup := newChatServiceWithMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, username, client_id, status, created_at").
		WithArgs(int64(42)).
		WillReturnRows(userRow(42, "alice", 7))

	mock.ExpectQuery("SELECT id, client_code, name, status, created_at").
		WithArgs(int64(7)).
		WillReturnRows(clientRow(7, "acme", "Acme Corp"))

	_, err := service.Answer(context.Background(), 42, "other", "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Empty(t, notifier.payloads)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatServiceLoadConversationEmptyForNewUser(t *testing.T) {
	service, _, mock, cleanup := newChatServiceWithMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT u.id, u.username, u.client_id").
		WithArgs("alice", "acme").
		WillReturnRows(userRow(42, "alice", 7))

	mock.ExpectQuery("SELECT id, user_id, client_id, title").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "client_id", "title", "created_at", "updated_at"}))

	view, err := service.LoadConversation(context.Background(), "alice", "acme")
	require.NoError(t, err)
	assert.Nil(t, view.Conversation)
	assert.Empty(t, view.Messages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatServiceLoadConversationReturnsMessages(t *testing.T) {
	service, _, mock, cleanup := newChatServiceWithMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery("SELECT u.id, u.username, u.client_id").
		WithArgs("alice", "acme").
		WillReturnRows(userRow(42, "alice", 7))

	mock.ExpectQuery("SELECT id, user_id, client_id, title").
		WithArgs(int64(42)).
		WillReturnRows(conversationRow(100, 42, 7, "today", now))

	mock.ExpectQuery("SELECT id, conversation_id, role, content, timestamp").
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "conversation_id", "role", "content", "timestamp"}).
			AddRow(int64(1), int64(100), models.RoleUser, "hello", now))

	view, err := service.LoadConversation(context.Background(), "alice", "acme")
	require.NoError(t, err)
	require.NotNil(t, view.Conversation)
	assert.Equal(t, int64(100), view.Conversation.ID)
	require.Len(t, view.Messages, 1)
	assert.Equal(t, "hello", view.Messages[0].Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}
