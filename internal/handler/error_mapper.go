package handler

import (
	"errors"

	"github.com/aiplsaur/APIMongoDB/internal/database"
	"github.com/aiplsaur/APIMongoDB/internal/model"
	"github.com/aiplsaur/APIMongoDB/internal/service"
)

// MapServiceError converts a service error to the failure envelope. The error
// kind alone decides the HTTP status; messages are never inspected.
func MapServiceError(err error) *model.APIError {
	if err == nil {
		return nil
	}

	switch {
	// ===== Request Errors → 400 =====
	case errors.Is(err, errInvalidBody),
		errors.Is(err, service.ErrConnectionStringRequired),
		errors.Is(err, service.ErrCollectionNameRequired),
		errors.Is(err, service.ErrCollectionNamesRequired),
		errors.Is(err, service.ErrDocumentRequired),
		errors.Is(err, service.ErrIDsRequired),
		errors.Is(err, service.ErrQueryRequired),
		errors.Is(err, service.ErrInvalidQueryFormat),
		errors.Is(err, service.ErrNameAndQueryRequired):
		return model.NewBadRequestError(err.Error())

	case errors.Is(err, service.ErrInvalidDocumentID):
		return model.NewValidationError([]model.FieldError{{Field: "id", Message: err.Error()}})
	case errors.Is(err, service.ErrInvalidPage):
		return model.NewValidationError([]model.FieldError{{Field: "page", Message: err.Error()}})
	case errors.Is(err, service.ErrInvalidLimit):
		return model.NewValidationError([]model.FieldError{{Field: "limit", Message: err.Error()}})
	case errors.Is(err, service.ErrInvalidFilter):
		return model.NewValidationError([]model.FieldError{{Field: "filter", Message: err.Error()}})
	case errors.Is(err, service.ErrInvalidSort):
		return model.NewValidationError([]model.FieldError{{Field: "sort", Message: err.Error()}})
	case errors.Is(err, service.ErrInvalidQuery):
		return model.NewValidationError([]model.FieldError{{Field: "query", Message: err.Error()}})
	case errors.Is(err, database.ErrReservedField),
		errors.Is(err, database.ErrInvalidID):
		return model.NewValidationError([]model.FieldError{{Field: "document", Message: err.Error()}})

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrDocumentNotFound):
		return model.NewNotFoundError("Document")
	case errors.Is(err, service.ErrCollectionNotFound):
		return model.NewNotFoundError("Collection")
	case errors.Is(err, service.ErrSavedQueryNotFound):
		return model.NewNotFoundError("Query")

	// ===== Connect Attempt → 200, success=false =====
	case errors.Is(err, service.ErrConnectFailed):
		return model.NewConnectionError(err.Error())

	// ===== Store Errors → 500 =====
	case errors.Is(err, database.ErrNotConnected):
		return model.NewDatabaseError(database.ErrNotConnected.Error())

	default:
		return model.NewDatabaseError(err.Error())
	}
}
