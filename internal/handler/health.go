package handler

import "net/http"

// Health handles GET /health. It reports liveness of the process only; the
// database state is available from /api/connection/status.
func Health(w http.ResponseWriter, r *http.Request) {
	WriteData(w, http.StatusOK, map[string]string{"status": "ok"})
}
