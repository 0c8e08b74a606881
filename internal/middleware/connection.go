package middleware

import (
	"net/http"

	"github.com/aiplsaur/APIMongoDB/internal/database"
	"github.com/aiplsaur/APIMongoDB/internal/model"
)

// ConnectionChecker reports whether a database handle is live
type ConnectionChecker interface {
	IsConnected() bool
}

// RequireConnection rejects requests with the database error envelope while
// no handle is open, before any request body is read.
func RequireConnection(checker ConnectionChecker) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodOptions && !checker.IsConnected() {
				model.NewDatabaseError(database.ErrNotConnected.Error()).WriteJSON(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
