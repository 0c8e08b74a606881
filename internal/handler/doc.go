// Package handler implements the HTTP surface of the admin API.
//
// Handlers decode the request, call one service method and write the uniform
// envelope:
//
//	{"success": true, "data": {...}}
//	{"success": false, "error": "Bad Request", "message": "Document is required"}
//
// Service errors are converted by MapServiceError, which chooses the status
// from the error kind: 400 for validation, 404 for missing entities, 500 for
// store failures and 200 with success=false for a failed connect attempt.
//
// # Routes
//
// NewRouter registers every route on a chi router. Database routes sit behind
// middleware.RequireConnection; /api/connection and /health do not.
// GET /api/connection/events streams connection events as Server-Sent Events
// when RouterConfig.Events is set.
package handler
