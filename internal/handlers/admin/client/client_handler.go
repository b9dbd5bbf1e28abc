package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ijuchazara/bitworks-message/internal/binder"
	"github.com/ijuchazara/bitworks-message/internal/models"
	"github.com/ijuchazara/bitworks-message/internal/repository"
	"github.com/ijuchazara/bitworks-message/internal/services"
	"github.com/ijuchazara/bitworks-message/pkg/debug"
	"github.com/ijuchazara/bitworks-message/pkg/httputil"
)

// ClientHandler handles API requests for admin client management.
type ClientHandler struct {
	clientRepo *repository.ClientRepository
	attrRepo   *repository.AttributeRepository
	clientSvc  *services.ClientService
}

// NewClientHandler creates a new handler instance.
func NewClientHandler(cr *repository.ClientRepository, ar *repository.AttributeRepository, cs *services.ClientService) *ClientHandler {
	return &ClientHandler{
		clientRepo: cr,
		attrRepo:   ar,
		clientSvc:  cs,
	}
}

// clientPayload is the create/update request body. The attribute rows are the
// editable set produced by the edit binding, one row per active template.
type clientPayload struct {
	ClientCode string       `json:"client_code"`
	Name       string       `json:"name"`
	Status     string       `json:"status"`
	Attributes []binder.Row `json:"attributes"`
}

// ListClients returns all clients.
func (h *ClientHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clientRepo.List(r.Context())
	if err != nil {
		debug.Error("Failed to list clients: %v", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve clients")
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": clients})
}

// CreateClient creates a client together with its attribute set.
func (h *ClientHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var payload clientPayload
	if err := httputil.ParseJSONBody(r, &payload); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	client, err := h.clientSvc.Create(r.Context(), payload.ClientCode, payload.Name, payload.Status, payload.Attributes)
	if err != nil {
		respondWithSaveError(w, err, payload.ClientCode)
		return
	}

	debug.Info("Admin created client '%s' (code %s)", client.Name, client.ClientCode)
	httputil.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{"data": client})
}

// UpdateClient updates a client's mutable fields and saves its submitted
// attribute rows. The code in the URL identifies the client and never
// changes.
func (h *ClientHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	var payload clientPayload
	if err := httputil.ParseJSONBody(r, &payload); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	client, err := h.clientSvc.Update(r.Context(), code, payload.Name, payload.Status, payload.Attributes)
	if err != nil {
		respondWithSaveError(w, err, code)
		return
	}

	debug.Info("Admin updated client '%s'", code)
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": client})
}

func respondWithSaveError(w http.ResponseWriter, err error, code string) {
	switch {
	case errors.Is(err, repository.ErrDuplicateRecord):
		httputil.RespondWithError(w, http.StatusConflict,
			fmt.Sprintf("Client with code or name '%s' already exists", code))
	case errors.Is(err, repository.ErrNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, "Client not found")
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, binder.ErrRowNotFound):
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		debug.Error("Failed to save client '%s': %v", code, err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to save client")
	}
}

// GetClientAttributes returns the raw stored attribute values of a client,
// including values for deactivated templates.
func (h *ClientHandler) GetClientAttributes(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	client, err := h.clientRepo.GetByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			httputil.RespondWithError(w, http.StatusNotFound, "Client not found")
		} else {
			debug.Error("Failed to get client '%s': %v", code, err)
			httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve client")
		}
		return
	}

	attrs, err := h.attrRepo.ListByClient(r.Context(), client.ID)
	if err != nil {
		debug.Error("Failed to list attributes for client '%s': %v", code, err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve attributes")
		return
	}
	if attrs == nil {
		attrs = []models.Attribute{}
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": attrs})
}

// GetEditableAttributes returns the editable attribute rows for a client's
// edit form: one row per active template, pre-filled from stored values.
func (h *ClientHandler) GetEditableAttributes(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	rows, err := h.clientSvc.EditableAttributes(r.Context(), code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			httputil.RespondWithError(w, http.StatusNotFound, "Client not found")
		} else {
			debug.Error("Failed to bind attributes for client '%s': %v", code, err)
			httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to bind attributes")
		}
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": rows})
}

// GetNewClientAttributes returns the editable attribute rows for the
// create-client form: one empty row per active template.
func (h *ClientHandler) GetNewClientAttributes(w http.ResponseWriter, r *http.Request) {
	rows, err := h.clientSvc.EditableAttributesForNew(r.Context())
	if err != nil {
		debug.Error("Failed to bind attributes for new client: %v", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to bind attributes")
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": rows})
}
