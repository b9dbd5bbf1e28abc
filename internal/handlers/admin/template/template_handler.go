package template

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ijuchazara/bitworks-message/internal/models"
	"github.com/ijuchazara/bitworks-message/internal/repository"
	"github.com/ijuchazara/bitworks-message/pkg/debug"
	"github.com/ijuchazara/bitworks-message/pkg/httputil"
)

// TemplateHandler handles API requests for attribute template management.
type TemplateHandler struct {
	templateRepo *repository.TemplateRepository
}

// NewTemplateHandler creates a new handler instance.
func NewTemplateHandler(tr *repository.TemplateRepository) *TemplateHandler {
	return &TemplateHandler{templateRepo: tr}
}

// ListTemplates returns all templates, active and inactive. With
// ?active=true only templates offered for new assignment are returned.
func (h *TemplateHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	var (
		templates []models.Template
		err       error
	)
	if httputil.GetQueryParam(r, "active") == "true" {
		templates, err = h.templateRepo.ListActive(r.Context())
	} else {
		templates, err = h.templateRepo.List(r.Context())
	}
	if err != nil {
		debug.Error("Failed to list templates: %v", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve templates")
		return
	}
	if templates == nil {
		templates = []models.Template{}
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": templates})
}

// CreateTemplate creates a new attribute template.
func (h *TemplateHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var template models.Template
	if err := httputil.ParseJSONBody(r, &template); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	template.ID = 0 // server-assigned

	if err := template.Validate(); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.templateRepo.Create(r.Context(), &template); err != nil {
		if errors.Is(err, repository.ErrDuplicateRecord) {
			httputil.RespondWithError(w, http.StatusConflict,
				fmt.Sprintf("Template with key '%s' already exists", template.Key))
		} else {
			debug.Error("Failed to create template: %v", err)
			httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to create template")
		}
		return
	}

	debug.Info("Admin created template '%s' (%s)", template.Key, template.DataType)
	httputil.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{"data": template})
}

// UpdateTemplate updates an existing template. Stored attribute values keep
// their raw text even when the data type changes; the type only constrains
// future edits.
func (h *TemplateHandler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid template ID")
		return
	}

	var template models.Template
	if err := httputil.ParseJSONBody(r, &template); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	template.ID = id

	if err := template.Validate(); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.templateRepo.Update(r.Context(), &template); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			httputil.RespondWithError(w, http.StatusNotFound, "Template not found")
		case errors.Is(err, repository.ErrDuplicateRecord):
			httputil.RespondWithError(w, http.StatusConflict,
				fmt.Sprintf("Template with key '%s' already exists", template.Key))
		default:
			debug.Error("Failed to update template %d: %v", id, err)
			httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to update template")
		}
		return
	}

	debug.Info("Admin updated template %d ('%s')", id, template.Key)
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": template})
}
