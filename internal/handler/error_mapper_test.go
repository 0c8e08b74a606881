package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aiplsaur/APIMongoDB/internal/database"
	"github.com/aiplsaur/APIMongoDB/internal/service"
)

func TestMapServiceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		status  int
		message string
		field   string
	}{
		{"invalid body", errInvalidBody, http.StatusBadRequest, "Invalid request body", ""},
		{"required", service.ErrDocumentRequired, http.StatusBadRequest, "Document is required", ""},
		{"query format", service.ErrInvalidQueryFormat, http.StatusBadRequest, "Invalid query format. Must start with db.", ""},
		{"document id", fmt.Errorf("%w: x", service.ErrInvalidDocumentID), http.StatusBadRequest, "", "id"},
		{"reserved field", fmt.Errorf("%w: id", database.ErrReservedField), http.StatusBadRequest, "", "document"},
		{"supplied document id", fmt.Errorf("%w: \"bad id!\"", database.ErrInvalidID), http.StatusBadRequest, "", "document"},
		{"invalid collection name", fmt.Errorf("%w: \"a b\"", database.ErrInvalidName), http.StatusInternalServerError, "", ""},
		{"document missing", service.ErrDocumentNotFound, http.StatusNotFound, "Document not found", ""},
		{"collection missing", fmt.Errorf("%w: %w", service.ErrCollectionNotFound, database.ErrCollectionNotFound), http.StatusNotFound, "Collection not found", ""},
		{"saved query missing", service.ErrSavedQueryNotFound, http.StatusNotFound, "Query not found", ""},
		{"connect failed", fmt.Errorf("%w: refused", service.ErrConnectFailed), http.StatusOK, "Failed to connect to database: refused", ""},
		{"not connected", database.ErrNotConnected, http.StatusInternalServerError, "Not connected to database", ""},
		{"store failure", errors.New("disk full"), http.StatusInternalServerError, "disk full", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := MapServiceError(tt.err)

			assert.Equal(t, tt.status, apiErr.Status())
			if tt.message != "" {
				assert.Equal(t, tt.message, apiErr.Message)
			}
			if tt.field != "" {
				if assert.Len(t, apiErr.Details, 1) {
					assert.Equal(t, tt.field, apiErr.Details[0].Field)
				}
			}
		})
	}

	assert.Nil(t, MapServiceError(nil))
}
