// Package testdb provides isolated databases for handler and e2e tests.
//
// By default every TestDB is a private in-memory SQLite database, so tests
// run without any external service. Set TEST_DATABASE_URI to run the same
// tests against MongoDB or SurrealDB; each TestDB then gets a unique
// database (or namespace) that is dropped on Close.
//
// Usage:
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    defer tdb.Close()
//
//	    h := tdb.Handle()
//	    _, err := h.Insert(tdb.Ctx(), "users", model.Document{"name": "ada"})
//	}
package testdb

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aiplsaur/APIMongoDB/internal/database"
)

// MemoryURI is the connection string of a private in-memory database.
const MemoryURI = "sqlite://:memory:"

// TestDB is a connected Manager owned by a single test.
type TestDB struct {
	Manager   *database.Manager
	URI       string
	Namespace string
	t         *testing.T
}

var (
	// counterMu protects the namespace counter
	counterMu sync.Mutex
	counter   int64
)

// uniqueNamespace generates a unique namespace for test isolation
func uniqueNamespace() string {
	counterMu.Lock()
	defer counterMu.Unlock()
	counter++
	return fmt.Sprintf("test_%d_%d", time.Now().UnixNano(), counter)
}

// isolatedURI points base at a fresh database named ns. SQLite and unknown
// schemes are returned unchanged.
func isolatedURI(base, ns string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	switch strings.ToLower(u.Scheme) {
	case "mongodb", "mongodb+srv":
		u.Path = "/" + ns
	case "ws", "wss", "http", "https":
		u.Path = "/" + ns + "/test"
	default:
		return base
	}
	return u.String()
}

// QuietLogger discards everything it is given.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// New connects a Manager to a fresh database. Call Close when done.
func New(t *testing.T) *TestDB {
	t.Helper()
	return Attach(t, database.NewManager(database.ManagerConfig{Logger: QuietLogger()}))
}

// Attach connects an existing Manager, such as the one inside a server, to
// a fresh database. Call Close when done.
func Attach(t *testing.T, m *database.Manager) *TestDB {
	t.Helper()

	ns := uniqueNamespace()
	uri := MemoryURI
	if base := os.Getenv("TEST_DATABASE_URI"); base != "" {
		uri = isolatedURI(base, ns)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := m.Connect(ctx, uri); err != nil {
		t.Fatalf("testdb: failed to connect to %s: %v", database.Redact(uri), err)
	}

	return &TestDB{
		Manager:   m,
		URI:       uri,
		Namespace: ns,
		t:         t,
	}
}

// Handle returns the live handle, failing the test when there is none.
func (tdb *TestDB) Handle() database.Handle {
	tdb.t.Helper()
	h, err := tdb.Manager.Handle()
	if err != nil {
		tdb.t.Fatalf("testdb: %v", err)
	}
	return h
}

// Close drops what the test created and closes the handle. In-memory
// databases vanish with their handle.
func (tdb *TestDB) Close() {
	if tdb.Manager == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if tdb.URI != MemoryURI {
		if h, err := tdb.Manager.Handle(); err == nil {
			names, _ := h.ListCollections(ctx)
			for _, name := range names {
				_ = h.DropCollection(ctx, name) // Ignore errors on cleanup
			}
		}
	}
	_ = tdb.Manager.Close(ctx)
}

// Reset drops every collection while keeping the connection open.
func (tdb *TestDB) Reset(t *testing.T) {
	t.Helper()

	h, err := tdb.Manager.Handle()
	if err != nil {
		t.Fatalf("testdb: %v", err)
	}
	names, err := h.ListCollections(tdb.Ctx())
	if err != nil {
		t.Fatalf("testdb: failed to list collections: %v", err)
	}
	for _, name := range names {
		if err := h.DropCollection(tdb.Ctx(), name); err != nil {
			t.Logf("testdb: warning - failed to drop collection %s: %v", name, err)
		}
	}
}

// Ctx returns a context with a reasonable timeout for test operations.
func (tdb *TestDB) Ctx() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	tdb.t.Cleanup(cancel)
	return ctx
}

// Shared creates a TestDB that can be shared across subtests.
type Shared struct {
	*TestDB
}

// NewShared creates a shared test database for use across multiple subtests.
func NewShared(t *testing.T) *Shared {
	return &Shared{TestDB: New(t)}
}

// SetupSubtest resets the database and returns the TestDB for use in a subtest.
// Call this at the start of each t.Run() block.
func (s *Shared) SetupSubtest(t *testing.T) *TestDB {
	t.Helper()
	s.TestDB.t = t
	s.TestDB.Reset(t)
	return s.TestDB
}
