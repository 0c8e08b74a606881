package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aiplsaur/APIMongoDB/internal/model"
	"github.com/aiplsaur/APIMongoDB/internal/query"
	"github.com/aiplsaur/APIMongoDB/internal/service"
)

// DocumentHandler handles document HTTP requests
type DocumentHandler struct {
	svc *service.DocumentService
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// List handles GET /api/collection/{collection}/documents
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	req, err := parseListRequest(r.URL.Query())
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	page, err := h.svc.List(r.Context(), chi.URLParam(r, "collection"), req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, page)
}

// Get handles GET /api/collection/{collection}/document/{id}
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.Get(r.Context(), chi.URLParam(r, "collection"), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, documentBody{Document: doc})
}

// Create handles POST /api/collection/{collection}/document
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.DocumentRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	doc, err := h.svc.Create(r.Context(), chi.URLParam(r, "collection"), model.NormalizeDocument(req.Document))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusCreated, documentBody{Document: doc})
}

// Update handles PUT /api/collection/{collection}/document/{id}
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.DocumentRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	doc, err := h.svc.Update(r.Context(), chi.URLParam(r, "collection"), chi.URLParam(r, "id"), model.NormalizeDocument(req.Document))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, documentBody{Document: doc})
}

// Delete handles DELETE /api/collection/{collection}/document/{id}
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "collection"), chi.URLParam(r, "id")); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteMessage(w, http.StatusOK, "Document deleted successfully")
}

// DeleteMany handles DELETE /api/collection/{collection}/documents
func (h *DocumentHandler) DeleteMany(w http.ResponseWriter, r *http.Request) {
	var req model.DeleteDocumentsRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	n, err := h.svc.DeleteMany(r.Context(), chi.URLParam(r, "collection"), req.IDs)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteJSON(w, http.StatusOK, model.Envelope{
		Success: true,
		Message: fmt.Sprintf("Deleted %d documents", n),
		Data:    model.DeleteResult{DeletedCount: n},
	})
}

type documentBody struct {
	Document model.Document `json:"document"`
}

// parseListRequest reads page, limit, filter and sort from the query string.
// Sort is accepted as sort=field&order=desc, as sort[field]=a&sort[order]=-1
// or as a JSON object.
func parseListRequest(v url.Values) (service.ListDocumentsRequest, error) {
	var req service.ListDocumentsRequest

	if s := v.Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return req, service.ErrInvalidPage
		}
		req.Page = n
	}
	if s := v.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return req, service.ErrInvalidLimit
		}
		req.Limit = n
	}

	if s := v.Get("filter"); s != "" {
		filter, err := query.ParseJSON(s)
		if err != nil {
			return req, fmt.Errorf("%w: %w", service.ErrInvalidFilter, err)
		}
		req.Filter = filter
	}

	sort, err := parseSort(v)
	if err != nil {
		return req, fmt.Errorf("%w: %w", service.ErrInvalidSort, err)
	}
	req.Sort = sort
	return req, nil
}

func parseSort(v url.Values) (*query.Sort, error) {
	if field := v.Get("sort[field]"); field != "" {
		dir, err := query.ParseDirection(v.Get("sort[order]"))
		if err != nil {
			return nil, err
		}
		return query.NewSort(field, dir)
	}

	s := strings.TrimSpace(v.Get("sort"))
	switch {
	case s == "":
		return nil, nil
	case strings.HasPrefix(s, "{"):
		return query.ParseSortJSON(s)
	}
	dir, err := query.ParseDirection(v.Get("order"))
	if err != nil {
		return nil, err
	}
	return query.NewSort(s, dir)
}
