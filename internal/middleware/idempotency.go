package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"
)

// IdempotencyKeyHeader names the client-chosen key of a retryable create.
const IdempotencyKeyHeader = "Idempotency-Key"

// IdempotencyStore remembers successful POST responses by idempotency key so
// a retried create (document insert, saved query) does not run twice.
type IdempotencyStore struct {
	mu       sync.Mutex
	entries  map[string]*idempotencyEntry
	ttl      time.Duration
	stopOnce sync.Once
	stopChan chan struct{}
}

type idempotencyEntry struct {
	status    int
	headers   http.Header
	body      []byte
	expiresAt time.Time
	done      chan struct{} // closed when the first request finished
	stored    bool
}

// IdempotencyConfig holds configuration for idempotency middleware
type IdempotencyConfig struct {
	TTL     time.Duration // How long a response is replayed (default 10 minutes)
	Cleanup time.Duration // Cleanup interval (default 1 minute)
}

// NewIdempotencyStore creates a new idempotency store
func NewIdempotencyStore(cfg IdempotencyConfig) *IdempotencyStore {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.Cleanup <= 0 {
		cfg.Cleanup = time.Minute
	}

	store := &IdempotencyStore{
		entries:  make(map[string]*idempotencyEntry),
		ttl:      cfg.TTL,
		stopChan: make(chan struct{}),
	}

	go store.cleanupLoop(cfg.Cleanup)

	return store
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (s *IdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *IdempotencyStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			s.cleanup(now)
		case <-s.stopChan:
			return
		}
	}
}

func (s *IdempotencyStore) cleanup(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entry := range s.entries {
		if entry.stored && entry.expiresAt.Before(now) {
			delete(s.entries, key)
		}
	}
}

// Len returns the number of remembered and in-flight keys
func (s *IdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// fingerprint binds the key to the caller and the exact request so one key
// cannot replay a different create.
func fingerprint(client, key, path string, body []byte) string {
	h := sha256.New()
	for _, part := range [][]byte{[]byte(client), []byte(key), []byte(path)} {
		h.Write(part)
		h.Write([]byte{0})
	}
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// claim returns the stored entry for key, or registers the caller as the
// one to run the request. A caller that finds the key in flight waits for
// it and looks again.
func (s *IdempotencyStore) claim(key string, now time.Time) (stored *idempotencyEntry, owner *idempotencyEntry) {
	for {
		s.mu.Lock()
		entry, ok := s.entries[key]
		switch {
		case !ok, entry.stored && !entry.expiresAt.After(now):
			owner = &idempotencyEntry{done: make(chan struct{})}
			s.entries[key] = owner
			s.mu.Unlock()
			return nil, owner
		case entry.stored:
			s.mu.Unlock()
			return entry, nil
		}
		s.mu.Unlock()
		<-entry.done
	}
}

// finish stores a successful response or forgets the key so the client may
// retry a failed one.
func (s *IdempotencyStore) finish(key string, entry *idempotencyEntry, rec *captureWriter, now time.Time) {
	s.mu.Lock()
	if rec.status >= 200 && rec.status < 300 {
		entry.status = rec.status
		entry.headers = rec.Header().Clone()
		entry.body = rec.body.Bytes()
		entry.expiresAt = now.Add(s.ttl)
		entry.stored = true
	} else {
		delete(s.entries, key)
	}
	close(entry.done)
	s.mu.Unlock()
}

// captureWriter copies the response it passes through. status stays zero
// until something is written.
type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *captureWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// replaySkip lists headers owned by outer middleware of the replaying request.
var replaySkip = map[string]bool{
	"X-Request-Id":     true,
	"Content-Encoding": true,
	"Content-Length":   true,
	"Vary":             true,
}

func replay(w http.ResponseWriter, entry *idempotencyEntry) {
	for k, v := range entry.headers {
		if replaySkip[k] {
			continue
		}
		w.Header()[k] = append([]string(nil), v...)
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(entry.status)
	_, _ = w.Write(entry.body)
}

// Idempotency returns middleware that replays the stored response of a POST
// carrying an Idempotency-Key already seen from the same client. Only 2xx
// responses are stored.
func Idempotency(store *IdempotencyStore) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idempotencyKey := r.Header.Get(IdempotencyKeyHeader)
			if r.Method != http.MethodPost || idempotencyKey == "" || len(idempotencyKey) > 255 {
				next.ServeHTTP(w, r)
				return
			}

			client := GetUserID(r.Context())
			if client == "" {
				client = clientHost(r.RemoteAddr)
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := fingerprint(client, idempotencyKey, r.URL.Path, body)
			stored, owner := store.claim(key, time.Now())
			if stored != nil {
				replay(w, stored)
				return
			}

			rec := &captureWriter{ResponseWriter: w}
			defer func() {
				store.finish(key, owner, rec, time.Now())
			}()
			next.ServeHTTP(rec, r)
		})
	}
}
