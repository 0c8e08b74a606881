// Package middleware provides HTTP middleware for the admin API.
//
// # Available Middleware
//
//   - RequestID: assigns and echoes X-Request-ID
//   - Logger: one structured log line per request
//   - Recovery: turns panics into the generic 500 envelope
//   - CORS: origin allow-list for the browser client
//   - RateLimit: token bucket per client (golang.org/x/time/rate)
//   - BasicAuth: optional single admin credential checked against a bcrypt hash
//   - RequireConnection: rejects database routes while no handle is open
//   - Idempotency: replays the stored 2xx response of a repeated POST that
//     carries the same Idempotency-Key
//
// # Context Values
//
//   - GetRequestID(ctx): the request identifier
//   - GetUserID(ctx): the authenticated user name, empty without BasicAuth
package middleware
