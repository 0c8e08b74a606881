package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/aiplsaur/APIMongoDB/internal/model"
)

// BasicAuthConfig holds the single admin credential
type BasicAuthConfig struct {
	Username     string
	PasswordHash string // bcrypt
	Realm        string
}

// BasicAuth returns a middleware that requires HTTP basic credentials
// matching the configured user and bcrypt hash.
func BasicAuth(cfg BasicAuthConfig) Middleware {
	if cfg.Realm == "" {
		cfg.Realm = "apimongodb"
	}
	hash := []byte(cfg.PasswordHash)
	challenge := `Basic realm="` + cfg.Realm + `", charset="UTF-8"`

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", challenge)
				model.NewUnauthorizedError("missing credentials").WriteJSON(w)
				return
			}

			// Always run bcrypt so a wrong user name costs as much as a wrong password.
			userOK := subtle.ConstantTimeCompare([]byte(user), []byte(cfg.Username)) == 1
			passOK := bcrypt.CompareHashAndPassword(hash, []byte(pass)) == nil
			if !userOK || !passOK {
				w.Header().Set("WWW-Authenticate", challenge)
				model.NewUnauthorizedError("invalid credentials").WriteJSON(w)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// HashPassword returns the bcrypt hash stored in auth.password_hash
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
