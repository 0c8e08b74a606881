package handler

import (
	"net/http"

	"github.com/aiplsaur/APIMongoDB/internal/model"
	"github.com/aiplsaur/APIMongoDB/internal/service"
)

// ConnectionHandler handles connection HTTP requests
type ConnectionHandler struct {
	svc *service.ConnectionService
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(svc *service.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{svc: svc}
}

// Connect handles POST /api/connection. A failed attempt is reported with
// status 200 and success=false.
func (h *ConnectionHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req model.ConnectRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	result, err := h.svc.Connect(r.Context(), req.ConnectionString)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// Status handles GET /api/connection/status
func (h *ConnectionHandler) Status(w http.ResponseWriter, r *http.Request) {
	WriteData(w, http.StatusOK, h.svc.Status())
}
