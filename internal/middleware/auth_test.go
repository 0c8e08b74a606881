package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// ============================================================================
// Test Helpers
// ============================================================================

func testAuthConfig(t *testing.T) BasicAuthConfig {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return BasicAuthConfig{Username: "admin", PasswordHash: string(hash)}
}

// captureHandler captures the request context for inspection
type captureHandler struct {
	called bool
	ctx    context.Context
}

func (h *captureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
}

// ============================================================================
// BasicAuth Tests
// ============================================================================

func TestBasicAuth_ValidCredentials_SetsUser(t *testing.T) {
	t.Parallel()
	capture := &captureHandler{}
	handler := BasicAuth(testAuthConfig(t))(capture)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("admin", "s3cret")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if !capture.called {
		t.Fatal("expected handler to be called")
	}
	if got := GetUserID(capture.ctx); got != "admin" {
		t.Errorf("expected user admin, got %q", got)
	}
}

func TestBasicAuth_Rejections(t *testing.T) {
	t.Parallel()
	cfg := testAuthConfig(t)

	tests := []struct {
		name      string
		user      string
		pass      string
		setHeader bool
	}{
		{"missing header", "", "", false},
		{"wrong password", "admin", "nope", true},
		{"wrong user", "root", "s3cret", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capture := &captureHandler{}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.setHeader {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			rr := httptest.NewRecorder()
			BasicAuth(cfg)(capture).ServeHTTP(rr, req)

			if capture.called {
				t.Error("handler must not be called")
			}
			if rr.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rr.Code)
			}
			if rr.Header().Get("WWW-Authenticate") == "" {
				t.Error("expected a WWW-Authenticate challenge")
			}
		})
	}
}

func TestHashPassword_Verifies(t *testing.T) {
	t.Parallel()
	hash, err := HashPassword("pw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte("pw")) != nil {
		t.Error("hash does not verify")
	}
}
