package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aiplsaur/APIMongoDB/internal/model"
	"github.com/aiplsaur/APIMongoDB/internal/service"
)

// CollectionHandler handles collection HTTP requests
type CollectionHandler struct {
	svc *service.CollectionService
}

// NewCollectionHandler creates a new collection handler
func NewCollectionHandler(svc *service.CollectionService) *CollectionHandler {
	return &CollectionHandler{svc: svc}
}

// List handles GET /api/collections
func (h *CollectionHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, list)
}

// Create handles POST /api/collections
func (h *CollectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateCollectionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	if err := h.svc.Create(r.Context(), req.Name); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteMessage(w, http.StatusCreated, fmt.Sprintf("Collection %s created successfully", req.Name))
}

// Rename handles PATCH /api/collections/{oldName}/rename/{newName}
func (h *CollectionHandler) Rename(w http.ResponseWriter, r *http.Request) {
	oldName := chi.URLParam(r, "oldName")
	newName := chi.URLParam(r, "newName")

	if err := h.svc.Rename(r.Context(), oldName, newName); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteMessage(w, http.StatusOK, fmt.Sprintf("Collection renamed from %s to %s", oldName, newName))
}

// Drop handles DELETE /api/collections/{name}/drop
func (h *CollectionHandler) Drop(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.svc.Drop(r.Context(), name); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteMessage(w, http.StatusOK, fmt.Sprintf("Collection %s dropped successfully", name))
}
