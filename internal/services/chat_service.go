package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ijuchazara/bitworks-message/internal/models"
	"github.com/ijuchazara/bitworks-message/internal/repository"
	"github.com/ijuchazara/bitworks-message/pkg/debug"
)

const webhookTimeout = 10 * time.Second

// Notifier pushes a payload to a connected chat user. Implemented by the
// WebSocket hub; kept as an interface so the chat flow can be tested without
// network connections.
type Notifier interface {
	Send(userID int64, payload []byte) error
}

// AgentPayload is the body posted to the external agent webhook for every
// user question. The agent answers asynchronously by calling AnswerEndpoint.
type AgentPayload struct {
	UserID         int64  `json:"user_id"`
	ClientCode     string `json:"client_code"`
	AnswerEndpoint string `json:"answer_endpoint"`
	Prompt         string `json:"prompt"`
}

// MessageNotification is the JSON pushed over the user's WebSocket when the
// agent's answer arrives.
type MessageNotification struct {
	ID        int64     `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationView is the response of LoadConversation: a conversation and
// its messages in arrival order.
type ConversationView struct {
	Conversation *models.Conversation `json:"conversation"`
	Messages     []models.Message     `json:"messages"`
}

// ChatService implements the chat flow: user questions in, agent answers
// back, with WebSocket notifications and an outbound webhook carrying the
// prompt context.
type ChatService struct {
	clientRepo   *repository.ClientRepository
	userRepo     *repository.UserRepository
	convRepo     *repository.ConversationRepository
	messageRepo  *repository.MessageRepository
	attrRepo     *repository.AttributeRepository
	templateRepo *repository.TemplateRepository
	settingRepo  *repository.SettingRepository
	notifier     Notifier
	httpClient   *http.Client

	// answerPath is appended to the configured answer host when telling the
	// agent where to deliver its response.
	answerPath string
}

// NewChatService creates a new ChatService.
func NewChatService(
	cr *repository.ClientRepository,
	ur *repository.UserRepository,
	vr *repository.ConversationRepository,
	mr *repository.MessageRepository,
	ar *repository.AttributeRepository,
	tr *repository.TemplateRepository,
	sr *repository.SettingRepository,
	notifier Notifier,
	answerPath string,
) *ChatService {
	return &ChatService{
		clientRepo:   cr,
		userRepo:     ur,
		convRepo:     vr,
		messageRepo:  mr,
		attrRepo:     ar,
		templateRepo: tr,
		settingRepo:  sr,
		notifier:     notifier,
		httpClient:   &http.Client{Timeout: webhookTimeout},
		answerPath:   answerPath,
	}
}

// Question stores an incoming user message and kicks off the agent call.
// Unknown users of a known client are provisioned on the spot; an unknown
// client fails with ErrNotFound. The message lands in the user's conversation
// of the day, which is created when missing.
func (s *ChatService) Question(ctx context.Context, username, clientCode, text string) (*models.Message, error) {
	if username == "" || clientCode == "" {
		return nil, fmt.Errorf("username and client code are required: %w", models.ErrInvalidInput)
	}

	client, err := s.clientRepo.GetByCode(ctx, clientCode)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByUsernameAndClientCode(ctx, username, clientCode)
	if errors.Is(err, repository.ErrNotFound) {
		user = &models.User{Username: username, ClientID: client.ID}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
		debug.Info("Provisioned user '%s' for client '%s' on first message", username, clientCode)
	} else if err != nil {
		return nil, err
	}

	conv, err := s.todayConversation(ctx, user)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		ConversationID: conv.ID,
		Role:           models.RoleUser,
		Content:        text,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	if err := s.notifier.Send(user.ID, []byte("new_message")); err != nil {
		debug.Warning("Failed to notify user %d of new message: %v", user.ID, err)
	}

	prompt, err := s.BuildPrompt(ctx, client, user, conv)
	if err != nil {
		debug.Error("Failed to build prompt for user %d: %v", user.ID, err)
		return message, nil // the message is stored; the agent call is best effort
	}
	go s.callAgentWebhook(user, client, prompt)

	return message, nil
}

// todayConversation finds the user's conversation of the current calendar day
// or creates it.
func (s *ChatService) todayConversation(ctx context.Context, user *models.User) (*models.Conversation, error) {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	conv, err := s.convRepo.GetSince(ctx, user.ID, midnight)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	conv = &models.Conversation{
		UserID:   user.ID,
		ClientID: user.ClientID,
		Title:    fmt.Sprintf("Conversation %s - %s", user.Username, now.Format("02/01/2006")),
	}
	if err := s.convRepo.Create(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// BuildPrompt assembles the agent prompt: the client's attribute context
// followed by the conversation history. When the day's conversation holds
// only the just-stored question, the previous conversation's messages are
// prepended so the agent keeps continuity across days.
func (s *ChatService) BuildPrompt(ctx context.Context, client *models.Client, user *models.User, conv *models.Conversation) (string, error) {
	attrs, err := s.attrRepo.ListByClient(ctx, client.ID)
	if err != nil {
		return "", err
	}
	templates, err := s.templateRepo.List(ctx)
	if err != nil {
		return "", err
	}

	templatesByID := make(map[int64]models.Template, len(templates))
	for _, t := range templates {
		templatesByID[t.ID] = t
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Context for company %s:\n", client.Name)
	for _, attr := range attrs {
		t, ok := templatesByID[attr.TemplateID]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", t.Description, attr.Value)
	}

	var history []models.Message

	count, err := s.messageRepo.CountByConversation(ctx, conv.ID)
	if err != nil {
		return "", err
	}
	if count == 1 {
		prev, err := s.convRepo.GetPrevious(ctx, user.ID, conv.ID)
		if err == nil {
			prevMessages, err := s.messageRepo.ListByConversation(ctx, prev.ID)
			if err != nil {
				return "", err
			}
			history = append(history, prevMessages...)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return "", err
		}
	}

	todayMessages, err := s.messageRepo.ListByConversation(ctx, conv.ID)
	if err != nil {
		return "", err
	}
	history = append(history, todayMessages...)

	b.WriteString("\nAnswer the last question of the following history:\n")
	for i, msg := range history {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: %s", msg.Role, msg.Content)
	}

	return b.String(), nil
}

// callAgentWebhook posts the prompt to the agent webhook configured in the
// URL_AGENT setting. Runs detached from the request; failures are logged,
// never surfaced to the asking user.
func (s *ChatService) callAgentWebhook(user *models.User, client *models.Client, prompt string) {
	ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
	defer cancel()

	webhook, err := s.settingRepo.Get(ctx, models.SettingAgentURL)
	if err != nil || webhook.Value == "" {
		debug.Warning("No agent webhook configured (%s), skipping agent call", models.SettingAgentURL)
		return
	}

	answerHost := ""
	if setting, err := s.settingRepo.Get(ctx, models.SettingAnswerHostURL); err == nil {
		answerHost = setting.Value
	}

	payload := AgentPayload{
		UserID:         user.ID,
		ClientCode:     client.ClientCode,
		AnswerEndpoint: answerHost + s.answerPath,
		Prompt:         prompt,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		debug.Error("Failed to marshal agent payload: %v", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook.Value, bytes.NewReader(body))
	if err != nil {
		debug.Error("Failed to build agent webhook request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		debug.Error("Agent webhook call failed: %v", err)
		return
	}
	defer resp.Body.Close()
	debug.Debug("Agent webhook answered with status %d", resp.StatusCode)
}

// Answer stores an agent response for the user's latest conversation and
// pushes it to the user's WebSocket connection. The user must belong to the
// client identified by clientCode.
func (s *ChatService) Answer(ctx context.Context, userID int64, clientCode, text string) (*models.Message, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	client, err := s.clientRepo.GetByID(ctx, user.ClientID)
	if err != nil {
		return nil, err
	}
	if client.ClientCode != clientCode {
		return nil, fmt.Errorf("user %d does not belong to client '%s': %w", userID, clientCode, repository.ErrNotFound)
	}

	conv, err := s.convRepo.GetLatest(ctx, userID)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		ConversationID: conv.ID,
		Role:           models.RoleAgent,
		Content:        text,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	notification, err := json.Marshal(MessageNotification{
		ID:        message.ID,
		Role:      message.Role,
		Content:   message.Content,
		Timestamp: message.Timestamp,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message notification: %w", err)
	}
	if err := s.notifier.Send(userID, notification); err != nil {
		debug.Warning("Failed to push answer to user %d: %v", userID, err)
	}

	return message, nil
}

// LoadConversation returns the user's current conversation and its messages
// for the chat and admin views: today's conversation when one exists, else
// the latest, else an empty view.
func (s *ChatService) LoadConversation(ctx context.Context, username, clientCode string) (*ConversationView, error) {
	user, err := s.userRepo.GetByUsernameAndClientCode(ctx, username, clientCode)
	if err != nil {
		return nil, err
	}

	conv, err := s.convRepo.GetLatest(ctx, user.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return &ConversationView{Messages: []models.Message{}}, nil
	}
	if err != nil {
		return nil, err
	}

	messages, err := s.messageRepo.ListByConversation(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return &ConversationView{Conversation: conv, Messages: messages}, nil
}
