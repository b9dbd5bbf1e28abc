package user

import (
	"net/http"

	"github.com/ijuchazara/bitworks-message/internal/models"
	"github.com/ijuchazara/bitworks-message/internal/repository"
	"github.com/ijuchazara/bitworks-message/pkg/debug"
	"github.com/ijuchazara/bitworks-message/pkg/httputil"
)

// UserHandler handles API requests for chat user administration.
type UserHandler struct {
	userRepo *repository.UserRepository
}

// NewUserHandler creates a new handler instance.
func NewUserHandler(ur *repository.UserRepository) *UserHandler {
	return &UserHandler{userRepo: ur}
}

// ListUsers returns all chat users with their owning client's code and name.
// Users are provisioned automatically by the chat flow, so this surface is
// read-only.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userRepo.List(r.Context())
	if err != nil {
		debug.Error("Failed to list users: %v", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve users")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": users})
}
