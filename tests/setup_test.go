// Package tests contains end-to-end acceptance tests for the admin API.
//
// Every test builds the full server from config.Default() and drives it over
// HTTP. By default the database is a private in-memory SQLite store, so no
// external service is needed.
//
// To run against a real server:
//
//	TEST_DATABASE_URI=mongodb://localhost:27017 go test ./tests/...
//	TEST_DATABASE_URI=ws://root:root@localhost:8000 go test ./tests/...
//
// Each test then gets its own database (or SurrealDB namespace) which is
// dropped when the test ends.
package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/aiplsaur/APIMongoDB/internal/config"
	"github.com/aiplsaur/APIMongoDB/internal/server"
	"github.com/aiplsaur/APIMongoDB/internal/testing/fixtures"
	"github.com/aiplsaur/APIMongoDB/internal/testing/testdb"
)

// env is one server plus the fixtures writing into its database.
type env struct {
	srv      *server.Server
	handler  http.Handler
	tdb      *testdb.TestDB
	fixtures *fixtures.Factory
}

// newServer builds a server that is not connected to any database.
func newServer(t *testing.T) *server.Server {
	t.Helper()
	cfg := config.Default()
	cfg.Health.Interval = 0
	srv := server.New(cfg, testdb.QuietLogger())
	t.Cleanup(func() { _ = srv.Close(context.Background()) })
	return srv
}

// newConnectedEnv builds a server already connected to a fresh database.
func newConnectedEnv(t *testing.T) *env {
	t.Helper()
	srv := newServer(t)
	tdb := testdb.Attach(t, srv.Manager())
	t.Cleanup(tdb.Close)
	return &env{
		srv:      srv,
		handler:  srv.Handler(),
		tdb:      tdb,
		fixtures: fixtures.New(srv.Manager()),
	}
}
