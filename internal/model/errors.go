package model

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorKind classifies an API failure. The kind alone decides the HTTP status.
type ErrorKind int

const (
	// KindValidation is missing or malformed input detected before any store access.
	KindValidation ErrorKind = iota + 1
	// KindNotFound is an absent collection, document or saved query.
	KindNotFound
	// KindStore is any failure raised by the underlying database, including
	// "not connected".
	KindStore
	// KindConnection is a failed connect attempt. It is reported, not treated
	// as a server fault.
	KindConnection
	KindUnauthorized
	KindRateLimited
	KindInternal
)

// Status returns the HTTP status code for the kind.
func (k ErrorKind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConnection:
		return http.StatusOK
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Title returns the short label written to the envelope's error field.
func (k ErrorKind) Title() string {
	switch k {
	case KindValidation:
		return "Bad Request"
	case KindNotFound:
		return "Not Found"
	case KindStore:
		return "Database Error"
	case KindConnection:
		return "Connection Error"
	case KindUnauthorized:
		return "Unauthorized"
	case KindRateLimited:
		return "Too Many Requests"
	default:
		return "Internal Server Error"
	}
}

// String implements fmt.Stringer
func (k ErrorKind) String() string {
	return k.Title()
}

// FieldError represents a validation error on a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is the failure half of the response envelope.
type APIError struct {
	Kind    ErrorKind    `json:"-"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("[%d] %s: %s", e.Status(), e.Kind.Title(), e.Message)
}

// Status returns the HTTP status code for the error
func (e *APIError) Status() int {
	return e.Kind.Status()
}

// MarshalJSON renders the error as a response envelope.
func (e *APIError) MarshalJSON() ([]byte, error) {
	return json.Marshal(Envelope{
		Success: false,
		Error:   e.Kind.Title(),
		Message: e.Message,
		Details: e.Details,
	})
}

// WriteJSON writes the error envelope as the response
func (e *APIError) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status())
	_ = json.NewEncoder(w).Encode(e)
}

// Common error constructors

func NewBadRequestError(message string) *APIError {
	return &APIError{Kind: KindValidation, Message: message}
}

func NewValidationError(errors []FieldError) *APIError {
	// Build detailed message from field errors
	message := "One or more fields failed validation"
	if len(errors) > 0 {
		message = fmt.Sprintf("%s: %s", errors[0].Field, errors[0].Message)
		if len(errors) > 1 {
			message = fmt.Sprintf("%s (and %d more errors)", message, len(errors)-1)
		}
	}
	return &APIError{Kind: KindValidation, Message: message, Details: errors}
}

func NewNotFoundError(resource string) *APIError {
	return &APIError{Kind: KindNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

func NewDatabaseError(message string) *APIError {
	if message == "" {
		message = "Unknown error"
	}
	return &APIError{Kind: KindStore, Message: message}
}

func NewConnectionError(message string) *APIError {
	return &APIError{Kind: KindConnection, Message: message}
}

func NewUnauthorizedError(message string) *APIError {
	return &APIError{Kind: KindUnauthorized, Message: message}
}

func NewRateLimitError(retryAfter int) *APIError {
	return &APIError{
		Kind:    KindRateLimited,
		Message: fmt.Sprintf("Rate limit exceeded. Retry after %d seconds", retryAfter),
	}
}

func NewInternalError(message string) *APIError {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return &APIError{Kind: KindInternal, Message: message}
}
