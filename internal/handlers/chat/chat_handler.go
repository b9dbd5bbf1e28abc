package chat

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ijuchazara/bitworks-message/internal/models"
	"github.com/ijuchazara/bitworks-message/internal/repository"
	"github.com/ijuchazara/bitworks-message/internal/services"
	"github.com/ijuchazara/bitworks-message/pkg/debug"
	"github.com/ijuchazara/bitworks-message/pkg/httputil"
)

// ChatHandler handles the public chat endpoints and the admin read surfaces
// for conversations and messages.
type ChatHandler struct {
	chatSvc     *services.ChatService
	convRepo    *repository.ConversationRepository
	messageRepo *repository.MessageRepository
}

// NewChatHandler creates a new handler instance.
func NewChatHandler(cs *services.ChatService, vr *repository.ConversationRepository, mr *repository.MessageRepository) *ChatHandler {
	return &ChatHandler{chatSvc: cs, convRepo: vr, messageRepo: mr}
}

// Question receives a user question via query parameters, stores it and
// triggers the agent webhook. Unknown users of a valid client are created on
// the fly.
func (h *ChatHandler) Question(w http.ResponseWriter, r *http.Request) {
	username := httputil.GetQueryParam(r, "user")
	clientCode := httputil.GetQueryParam(r, "client")
	question := httputil.GetQueryParam(r, "question")

	if username == "" || clientCode == "" || question == "" {
		httputil.RespondWithError(w, http.StatusBadRequest, "Parameters 'user', 'client' and 'question' are required")
		return
	}

	message, err := h.chatSvc.Question(r.Context(), username, clientCode, question)
	if err != nil {
		h.respondWithChatError(w, err, "Failed to process question")
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": message})
}

// Answer receives the agent's response for a user, stores it and pushes it
// over the user's WebSocket connection.
func (h *ChatHandler) Answer(w http.ResponseWriter, r *http.Request) {
	userIDStr := httputil.GetQueryParam(r, "user_id")
	clientCode := httputil.GetQueryParam(r, "client")
	answer := httputil.GetQueryParam(r, "answer")

	if userIDStr == "" || clientCode == "" || answer == "" {
		httputil.RespondWithError(w, http.StatusBadRequest, "Parameters 'user_id', 'client' and 'answer' are required")
		return
	}
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid user_id")
		return
	}

	message, err := h.chatSvc.Answer(r.Context(), userID, clientCode, answer)
	if err != nil {
		h.respondWithChatError(w, err, "Failed to process answer")
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": message})
}

// LoadConversation returns the user's current conversation with its messages.
func (h *ChatHandler) LoadConversation(w http.ResponseWriter, r *http.Request) {
	username := httputil.GetQueryParam(r, "user")
	clientCode := httputil.GetQueryParam(r, "client")

	if username == "" || clientCode == "" {
		httputil.RespondWithError(w, http.StatusBadRequest, "Parameters 'user' and 'client' are required")
		return
	}

	view, err := h.chatSvc.LoadConversation(r.Context(), username, clientCode)
	if err != nil {
		h.respondWithChatError(w, err, "Failed to load conversation")
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": view})
}

// ListUserConversations returns all conversations of a user, newest first.
// Admin surface backing the conversation browser.
func (h *ChatHandler) ListUserConversations(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(mux.Vars(r)["userID"], 10, 64)
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	conversations, err := h.convRepo.ListByUser(r.Context(), userID)
	if err != nil {
		debug.Error("Failed to list conversations for user %d: %v", userID, err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve conversations")
		return
	}
	if conversations == nil {
		conversations = []models.Conversation{}
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": conversations})
}

// ListConversationMessages returns the messages of a conversation in arrival
// order.
func (h *ChatHandler) ListConversationMessages(w http.ResponseWriter, r *http.Request) {
	convID, err := strconv.ParseInt(mux.Vars(r)["conversationID"], 10, 64)
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid conversation ID")
		return
	}

	messages, err := h.messageRepo.ListByConversation(r.Context(), convID)
	if err != nil {
		debug.Error("Failed to list messages for conversation %d: %v", convID, err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve messages")
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": messages})
}

func (h *ChatHandler) respondWithChatError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrInvalidInput):
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		debug.Error("%s: %v", fallback, err)
		httputil.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
