package model

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// ============================================================================
// ErrorKind Tests
// ============================================================================

func TestErrorKind_StatusAndTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind   ErrorKind
		status int
		title  string
	}{
		{KindValidation, http.StatusBadRequest, "Bad Request"},
		{KindNotFound, http.StatusNotFound, "Not Found"},
		{KindStore, http.StatusInternalServerError, "Database Error"},
		{KindConnection, http.StatusOK, "Connection Error"},
		{KindUnauthorized, http.StatusUnauthorized, "Unauthorized"},
		{KindRateLimited, http.StatusTooManyRequests, "Too Many Requests"},
		{KindInternal, http.StatusInternalServerError, "Internal Server Error"},
		{ErrorKind(0), http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := tt.kind.Status(); got != tt.status {
				t.Errorf("Status() = %d, want %d", got, tt.status)
			}
			if got := tt.kind.Title(); got != tt.title {
				t.Errorf("Title() = %q, want %q", got, tt.title)
			}
			if tt.kind.String() != tt.kind.Title() {
				t.Errorf("String() should match Title()")
			}
		})
	}
}

// ============================================================================
// APIError Tests
// ============================================================================

func TestAPIError_Error_ReturnsFormattedMessage(t *testing.T) {
	t.Parallel()

	err := NewNotFoundError("Document")

	msg := err.Error()
	if !strings.Contains(msg, "404") || !strings.Contains(msg, "Document not found") {
		t.Errorf("unexpected error string: %s", msg)
	}
}

func TestAPIError_MarshalJSON_WritesEnvelope(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(NewBadRequestError("Document is required"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["success"] != false {
		t.Errorf("success = %v, want false", got["success"])
	}
	if got["error"] != "Bad Request" {
		t.Errorf("error = %v, want Bad Request", got["error"])
	}
	if got["message"] != "Document is required" {
		t.Errorf("message = %v", got["message"])
	}
	if _, ok := got["details"]; ok {
		t.Error("details should be omitted when empty")
	}
	if _, ok := got["data"]; ok {
		t.Error("data should be omitted on failure")
	}
}

func TestAPIError_WriteJSON(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	NewConnectionError("Failed to connect to database: refused").WriteJSON(rr)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rr.Body.String(), `"success":false`) {
		t.Errorf("body should report failure: %s", rr.Body.String())
	}
}

// ============================================================================
// Constructor Tests
// ============================================================================

func TestNewValidationError_Message(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		fields []FieldError
		want   string
	}{
		{"none", nil, "One or more fields failed validation"},
		{"one", []FieldError{{Field: "page", Message: "must be positive"}}, "page: must be positive"},
		{"several", []FieldError{
			{Field: "page", Message: "must be positive"},
			{Field: "limit", Message: "too large"},
			{Field: "sort", Message: "bad"},
		}, "page: must be positive (and 2 more errors)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.fields)
			if err.Message != tt.want {
				t.Errorf("Message = %q, want %q", err.Message, tt.want)
			}
			if err.Kind != KindValidation || len(err.Details) != len(tt.fields) {
				t.Errorf("unexpected error %+v", err)
			}
		})
	}
}

func TestConstructors_Defaults(t *testing.T) {
	t.Parallel()

	if got := NewDatabaseError("").Message; got != "Unknown error" {
		t.Errorf("NewDatabaseError default = %q", got)
	}
	if got := NewInternalError("").Message; got != "An unexpected error occurred" {
		t.Errorf("NewInternalError default = %q", got)
	}
	if got := NewRateLimitError(3).Message; !strings.Contains(got, "3 seconds") {
		t.Errorf("NewRateLimitError = %q", got)
	}
	if NewUnauthorizedError("x").Status() != http.StatusUnauthorized {
		t.Error("unauthorized should be 401")
	}
}
