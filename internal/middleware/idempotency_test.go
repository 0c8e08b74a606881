package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// ============================================================================
// Helpers
// ============================================================================

// countingCreate answers 201 with a body that changes on every call.
type countingCreate struct {
	calls  atomic.Int32
	status int
	delay  time.Duration
}

func (h *countingCreate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := h.calls.Add(1)
	if h.delay > 0 {
		time.Sleep(h.delay)
	}
	status := h.status
	if status == 0 {
		status = http.StatusCreated
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte{'{', '"', 'n', '"', ':', byte('0' + n), '}'})
}

func postWithKey(key, path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.RemoteAddr = "192.0.2.1:5000"
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// ============================================================================
// Store Tests
// ============================================================================

func TestNewIdempotencyStore_Defaults(t *testing.T) {
	t.Parallel()
	store := NewIdempotencyStore(IdempotencyConfig{})
	defer store.Stop()

	if store.ttl != 10*time.Minute {
		t.Errorf("expected TTL 10m, got %v", store.ttl)
	}
	if store.Len() != 0 {
		t.Errorf("expected empty store, got %d", store.Len())
	}
}

func TestIdempotencyStore_StopTwice(t *testing.T) {
	t.Parallel()
	store := NewIdempotencyStore(IdempotencyConfig{})

	store.Stop()
	store.Stop()
}

func TestIdempotencyStore_CleanupDropsExpired(t *testing.T) {
	t.Parallel()
	store := NewIdempotencyStore(IdempotencyConfig{TTL: time.Minute})
	defer store.Stop()

	now := time.Now()
	store.entries["old"] = &idempotencyEntry{stored: true, expiresAt: now.Add(-time.Second)}
	store.entries["fresh"] = &idempotencyEntry{stored: true, expiresAt: now.Add(time.Minute)}
	store.entries["running"] = &idempotencyEntry{done: make(chan struct{})}

	store.cleanup(now)

	if _, ok := store.entries["old"]; ok {
		t.Error("expired entry should be removed")
	}
	if store.Len() != 2 {
		t.Errorf("expected fresh and in-flight entries to remain, got %d", store.Len())
	}
}

func TestFingerprint(t *testing.T) {
	t.Parallel()
	base := fingerprint("client", "key", "/p", []byte("{}"))

	if base != fingerprint("client", "key", "/p", []byte("{}")) {
		t.Error("same inputs should produce the same fingerprint")
	}
	variants := []string{
		fingerprint("other", "key", "/p", []byte("{}")),
		fingerprint("client", "key2", "/p", []byte("{}")),
		fingerprint("client", "key", "/q", []byte("{}")),
		fingerprint("client", "key", "/p", []byte(`{"a":1}`)),
		fingerprint("clientkey", "", "/p", []byte("{}")),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d should differ", i)
		}
	}
}

// ============================================================================
// Middleware Tests
// ============================================================================

func TestIdempotency_ReplaysSuccessfulCreate(t *testing.T) {
	t.Parallel()
	store := NewIdempotencyStore(IdempotencyConfig{TTL: time.Hour})
	defer store.Stop()
	create := &countingCreate{}
	h := Idempotency(store)(create)

	first := serve(h, postWithKey("k1", "/api/collection/a/document", `{"document":{"x":1}}`))
	second := serve(h, postWithKey("k1", "/api/collection/a/document", `{"document":{"x":1}}`))

	if create.calls.Load() != 1 {
		t.Errorf("expected one execution, got %d", create.calls.Load())
	}
	if second.Code != http.StatusCreated || second.Body.String() != first.Body.String() {
		t.Errorf("expected replay of %q, got %d %q", first.Body.String(), second.Code, second.Body.String())
	}
	if second.Header().Get("Idempotent-Replayed") != "true" {
		t.Error("replayed response should be marked")
	}
	if first.Header().Get("Idempotent-Replayed") != "" {
		t.Error("first response should not be marked")
	}
	if second.Header().Get("Content-Type") != "application/json" {
		t.Error("replayed response should carry the original headers")
	}
}

func TestIdempotency_PassesThrough(t *testing.T) {
	t.Parallel()
	store := NewIdempotencyStore(IdempotencyConfig{TTL: time.Hour})
	defer store.Stop()

	tests := []struct {
		name string
		req  func() *http.Request
	}{
		{"no key", func() *http.Request { return postWithKey("", "/p", "{}") }},
		{"PUT", func() *http.Request {
			r := postWithKey("k", "/p", "{}")
			r.Method = http.MethodPut
			return r
		}},
		{"DELETE", func() *http.Request {
			r := postWithKey("k", "/p", "{}")
			r.Method = http.MethodDelete
			return r
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			create := &countingCreate{}
			h := Idempotency(store)(create)

			serve(h, tt.req())
			serve(h, tt.req())

			if create.calls.Load() != 2 {
				t.Errorf("expected two executions, got %d", create.calls.Load())
			}
		})
	}
}

func TestIdempotency_DifferentBodyRunsAgain(t *testing.T) {
	t.Parallel()
	store := NewIdempotencyStore(IdempotencyConfig{TTL: time.Hour})
	defer store.Stop()
	create := &countingCreate{}
	h := Idempotency(store)(create)

	serve(h, postWithKey("k", "/p", `{"a":1}`))
	serve(h, postWithKey("k", "/p", `{"a":2}`))

	if create.calls.Load() != 2 {
		t.Errorf("expected two executions, got %d", create.calls.Load())
	}
}

func TestIdempotency_FailuresAreNotStored(t *testing.T) {
	t.Parallel()
	store := NewIdempotencyStore(IdempotencyConfig{TTL: time.Hour})
	defer store.Stop()
	create := &countingCreate{status: http.StatusInternalServerError}
	h := Idempotency(store)(create)

	serve(h, postWithKey("k", "/p", "{}"))
	rr := serve(h, postWithKey("k", "/p", "{}"))

	if create.calls.Load() != 2 {
		t.Errorf("a failed create must be retryable, got %d executions", create.calls.Load())
	}
	if rr.Header().Get("Idempotent-Replayed") != "" {
		t.Error("failure must not be replayed")
	}
	if store.Len() != 0 {
		t.Errorf("expected no stored entries, got %d", store.Len())
	}
}

func TestIdempotency_ClientsAreSeparate(t *testing.T) {
	t.Parallel()
	store := NewIdempotencyStore(IdempotencyConfig{TTL: time.Hour})
	defer store.Stop()
	create := &countingCreate{}
	h := Idempotency(store)(create)

	serve(h, postWithKey("k", "/p", "{}"))

	other := postWithKey("k", "/p", "{}")
	other.RemoteAddr = "198.51.100.7:5000"
	serve(h, other)

	user := postWithKey("k", "/p", "{}")
	user = user.WithContext(context.WithValue(user.Context(), UserIDKey, "admin"))
	serve(h, user)

	if create.calls.Load() != 3 {
		t.Errorf("expected one execution per client, got %d", create.calls.Load())
	}
}

func TestIdempotency_ExpiredEntryRunsAgain(t *testing.T) {
	t.Parallel()
	store := NewIdempotencyStore(IdempotencyConfig{TTL: 10 * time.Millisecond})
	defer store.Stop()
	create := &countingCreate{}
	h := Idempotency(store)(create)

	serve(h, postWithKey("k", "/p", "{}"))
	time.Sleep(20 * time.Millisecond)
	serve(h, postWithKey("k", "/p", "{}"))

	if create.calls.Load() != 2 {
		t.Errorf("expected two executions, got %d", create.calls.Load())
	}
}

func TestIdempotency_ConcurrentDuplicatesRunOnce(t *testing.T) {
	t.Parallel()
	store := NewIdempotencyStore(IdempotencyConfig{TTL: time.Hour})
	defer store.Stop()
	create := &countingCreate{delay: 50 * time.Millisecond}
	h := Idempotency(store)(create)

	var wg sync.WaitGroup
	bodies := make([]string, 5)
	for i := range bodies {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bodies[i] = serve(h, postWithKey("k", "/p", "{}")).Body.String()
		}(i)
	}
	wg.Wait()

	if create.calls.Load() != 1 {
		t.Errorf("expected one execution, got %d", create.calls.Load())
	}
	for i, b := range bodies {
		if b != bodies[0] {
			t.Errorf("response %d differs: %q vs %q", i, b, bodies[0])
		}
	}
}

func TestIdempotency_RestoresRequestBody(t *testing.T) {
	t.Parallel()
	store := NewIdempotencyStore(IdempotencyConfig{TTL: time.Hour})
	defer store.Stop()

	var seen string
	h := Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(r.Body)
		seen = buf.String()
		w.WriteHeader(http.StatusCreated)
	}))

	serve(h, postWithKey("k", "/p", `{"name":"x"}`))

	if seen != `{"name":"x"}` {
		t.Errorf("handler saw body %q", seen)
	}
}
