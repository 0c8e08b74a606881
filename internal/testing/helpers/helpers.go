// Package helpers provides common test utilities for e2e testing.
//
// This package includes HTTP request builders, envelope validators,
// and assertion helpers for testing API endpoints.
package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aiplsaur/APIMongoDB/internal/database"
	"github.com/aiplsaur/APIMongoDB/internal/model"
	"github.com/aiplsaur/APIMongoDB/internal/query"
)

// ============================================================================
// HTTP Request Helpers
// ============================================================================

// RequestBuilder helps construct HTTP requests for testing
type RequestBuilder struct {
	t       *testing.T
	method  string
	path    string
	body    interface{}
	raw     *string
	headers map[string]string
	user    string
	pass    string
}

// NewRequest creates a new request builder
func NewRequest(t *testing.T, method, path string) *RequestBuilder {
	t.Helper()
	return &RequestBuilder{
		t:       t,
		method:  method,
		path:    path,
		headers: make(map[string]string),
	}
}

// WithBody sets the request body (will be JSON encoded)
func (rb *RequestBuilder) WithBody(body interface{}) *RequestBuilder {
	rb.body = body
	return rb
}

// WithRawBody sets the request body verbatim
func (rb *RequestBuilder) WithRawBody(body string) *RequestBuilder {
	rb.raw = &body
	return rb
}

// WithHeader adds a header to the request
func (rb *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	rb.headers[key] = value
	return rb
}

// WithBasicAuth adds HTTP basic credentials
func (rb *RequestBuilder) WithBasicAuth(user, pass string) *RequestBuilder {
	rb.user = user
	rb.pass = pass
	return rb
}

// Build creates the HTTP request
func (rb *RequestBuilder) Build() *http.Request {
	rb.t.Helper()

	var bodyReader io.Reader
	switch {
	case rb.raw != nil:
		bodyReader = strings.NewReader(*rb.raw)
	case rb.body != nil:
		bodyBytes, err := json.Marshal(rb.body)
		if err != nil {
			rb.t.Fatalf("helpers: failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(rb.method, rb.path, bodyReader)

	// Set content type for requests with body
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range rb.headers {
		req.Header.Set(k, v)
	}

	if rb.user != "" {
		req.SetBasicAuth(rb.user, rb.pass)
	}

	return req
}

// Do builds the request and serves it through h
func (rb *RequestBuilder) Do(h http.Handler) *httptest.ResponseRecorder {
	rb.t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, rb.Build())
	return rr
}

// ============================================================================
// Response Assertion Helpers
// ============================================================================

// Envelope is the decoded form of every API response
type Envelope struct {
	Success bool               `json:"success"`
	Data    json.RawMessage    `json:"data"`
	Message string             `json:"message"`
	Error   string             `json:"error"`
	Details []model.FieldError `json:"details"`
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, resp *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if resp.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, resp.Code, resp.Body.String())
	}
}

// DecodeEnvelope decodes the response envelope
func DecodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder) Envelope {
	t.Helper()

	var env Envelope
	bodyBytes := resp.Body.Bytes()
	if err := json.Unmarshal(bodyBytes, &env); err != nil {
		t.Fatalf("failed to decode envelope: %v. Body: %s", err, string(bodyBytes))
	}
	return env
}

// AssertSuccess checks the status and that the envelope reports success,
// then decodes data into v when v is non-nil.
func AssertSuccess(t *testing.T, resp *httptest.ResponseRecorder, expectedStatus int, v interface{}) Envelope {
	t.Helper()

	AssertStatus(t, resp, expectedStatus)
	env := DecodeEnvelope(t, resp)
	if !env.Success {
		t.Fatalf("expected success=true, got error %q: %s", env.Error, env.Message)
	}
	if v != nil {
		if err := json.Unmarshal(env.Data, v); err != nil {
			t.Fatalf("failed to decode data: %v. Data: %s", err, string(env.Data))
		}
	}
	return env
}

// AssertEnvelopeError checks a failure envelope. An empty title skips the
// check of the error label.
func AssertEnvelopeError(t *testing.T, resp *httptest.ResponseRecorder, expectedStatus int, expectedTitle string) Envelope {
	t.Helper()

	AssertStatus(t, resp, expectedStatus)
	env := DecodeEnvelope(t, resp)
	if env.Success {
		t.Errorf("expected success=false. Body: %s", resp.Body.String())
	}
	if expectedTitle != "" && env.Error != expectedTitle {
		t.Errorf("expected error %q, got %q", expectedTitle, env.Error)
	}
	if env.Message == "" {
		t.Errorf("expected a message in the error envelope")
	}
	return env
}

// AssertValidationError checks for a 400 with a detail on a specific field
func AssertValidationError(t *testing.T, resp *httptest.ResponseRecorder, field string) {
	t.Helper()

	env := AssertEnvelopeError(t, resp, http.StatusBadRequest, "Bad Request")
	for _, fe := range env.Details {
		if fe.Field == field {
			return
		}
	}

	t.Errorf("expected validation error on field %q, but not found. Errors: %+v", field, env.Details)
}

// AssertJSONContains checks that the response body contains expected key-value pairs
func AssertJSONContains(t *testing.T, resp *httptest.ResponseRecorder, expected map[string]interface{}) {
	t.Helper()

	var actual map[string]interface{}
	bodyBytes := resp.Body.Bytes()
	if err := json.Unmarshal(bodyBytes, &actual); err != nil {
		t.Fatalf("failed to decode response: %v. Body: %s", err, string(bodyBytes))
	}

	for key, expectedVal := range expected {
		actualVal, ok := actual[key]
		if !ok {
			t.Errorf("expected key %q not found in response", key)
			continue
		}

		if !jsonEqual(expectedVal, actualVal) {
			t.Errorf("for key %q: expected %v, got %v", key, expectedVal, actualVal)
		}
	}
}

// GetDataFromResponse extracts the "data" field from a standard response
func GetDataFromResponse(t *testing.T, resp *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var response struct {
		Data map[string]interface{} `json:"data"`
	}
	bodyBytes := resp.Body.Bytes()
	if err := json.Unmarshal(bodyBytes, &response); err != nil {
		t.Fatalf("failed to decode response: %v. Body: %s", err, string(bodyBytes))
	}

	return response.Data
}

// ============================================================================
// Database Assertion Helpers
// ============================================================================

// AssertDocumentExists checks that a document with id is stored in collection
func AssertDocumentExists(t *testing.T, handles database.Provider, collection string, id interface{}) model.Document {
	t.Helper()

	docs := findByID(t, handles, collection, id)
	if len(docs) == 0 {
		t.Fatalf("expected document %s/%v to exist, but it doesn't", collection, id)
	}
	return docs[0]
}

// AssertDocumentNotExists checks that no document with id is stored
func AssertDocumentNotExists(t *testing.T, handles database.Provider, collection string, id interface{}) {
	t.Helper()

	if docs := findByID(t, handles, collection, id); len(docs) > 0 {
		t.Errorf("expected document %s/%v to not exist, but it does", collection, id)
	}
}

func findByID(t *testing.T, handles database.Provider, collection string, id interface{}) []model.Document {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h, err := handles.Handle()
	if err != nil {
		t.Fatalf("helpers: %v", err)
	}
	native, err := h.ParseID(fmt.Sprint(id))
	if err != nil {
		t.Fatalf("helpers: %v", err)
	}
	docs, err := h.Find(ctx, collection, database.FindOptions{
		Filter: query.Eq(model.IDField, native),
		Limit:  1,
	})
	if err != nil {
		t.Fatalf("failed to query for document: %v", err)
	}
	return docs
}

// ============================================================================
// Utility Helpers
// ============================================================================

// jsonEqual compares two JSON values for equality
func jsonEqual(a, b interface{}) bool {
	aBytes, _ := json.Marshal(a)
	bBytes, _ := json.Marshal(b)
	return string(aBytes) == string(bBytes)
}

// IDString renders a document identity the way it appears in a URL
func IDString(doc map[string]interface{}) string {
	return fmt.Sprint(doc[model.IDField])
}
