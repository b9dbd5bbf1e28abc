package settings

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ijuchazara/bitworks-message/internal/models"
	"github.com/ijuchazara/bitworks-message/internal/repository"
	"github.com/ijuchazara/bitworks-message/pkg/debug"
	"github.com/ijuchazara/bitworks-message/pkg/httputil"
)

// SettingsHandler handles API requests for system settings.
type SettingsHandler struct {
	settingRepo *repository.SettingRepository
}

// NewSettingsHandler creates a new handler instance.
func NewSettingsHandler(sr *repository.SettingRepository) *SettingsHandler {
	return &SettingsHandler{settingRepo: sr}
}

// ListSettings returns all settings.
func (h *SettingsHandler) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingRepo.List(r.Context())
	if err != nil {
		debug.Error("Failed to list settings: %v", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve settings")
		return
	}
	if settings == nil {
		settings = []models.Setting{}
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": settings})
}

// GetSetting returns a single setting by key.
func (h *SettingsHandler) GetSetting(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	setting, err := h.settingRepo.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			httputil.RespondWithError(w, http.StatusNotFound, "Setting not found")
		} else {
			debug.Error("Failed to get setting '%s': %v", key, err)
			httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve setting")
		}
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": setting})
}

// UpsertSetting creates or updates the setting named in the URL.
func (h *SettingsHandler) UpsertSetting(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	var setting models.Setting
	if err := httputil.ParseJSONBody(r, &setting); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	setting.Key = key

	if setting.Key == "" {
		httputil.RespondWithError(w, http.StatusBadRequest, "Setting key is required")
		return
	}

	if err := h.settingRepo.Set(r.Context(), &setting); err != nil {
		debug.Error("Failed to set setting '%s': %v", key, err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to save setting")
		return
	}

	debug.Info("Admin updated setting '%s'", key)
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": setting})
}
