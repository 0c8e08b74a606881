package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aiplsaur/APIMongoDB/internal/model"
	"github.com/aiplsaur/APIMongoDB/internal/service"
)

// QueryHandler handles query execution and saved query requests
type QueryHandler struct {
	svc *service.QueryService
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(svc *service.QueryService) *QueryHandler {
	return &QueryHandler{svc: svc}
}

// Execute handles POST /api/query/execute
func (h *QueryHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req model.ExecuteQueryRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	result, err := h.svc.Execute(r.Context(), req.Query, req.Collection)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, result)
}

// Save handles POST /api/query/save
func (h *QueryHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req model.SaveQueryRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	saved, err := h.svc.Save(r.Context(), req.Name, req.Query, req.Collection)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusCreated, map[string]*model.SavedQuery{"query": saved})
}

// List handles GET /api/queries and GET /api/query
func (h *QueryHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListSaved(r.Context())
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, list)
}

// Delete handles DELETE /api/query/{id}
func (h *QueryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteSaved(r.Context(), chi.URLParam(r, "id")); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteMessage(w, http.StatusOK, "Query deleted successfully")
}
