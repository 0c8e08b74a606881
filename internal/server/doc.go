// Package server assembles the API from a config.Config and runs it.
//
// New builds the connection manager, services, router and optional
// middleware (rate limiting, basic auth, idempotent POST). Serve performs
// the startup connect when database.uri is set, starts the health monitor
// and serves HTTP until its context is cancelled, then shuts down
// gracefully and closes the live handle.
package server
