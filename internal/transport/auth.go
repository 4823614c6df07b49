package transport

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rpggio/challengr/internal/domain/session"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

// TokenValidator decides whether a bearer token may be used.
type TokenValidator interface {
	ValidateToken(token string) error
}

// SessionTokens accepts any readable, unexpired session token. The remote
// service still verifies the signature on every call.
type SessionTokens struct {
	Now func() time.Time
}

func (v SessionTokens) ValidateToken(token string) error {
	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	sess, err := session.ParseToken(token)
	if err != nil {
		return ErrUnauthorized
	}
	if sess.Expired(now()) {
		return ErrUnauthorized
	}
	return nil
}

// AuthMiddleware enforces bearer token authentication. The token itself is
// left in the Authorization header for the MCP layer to forward.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" || token == auth {
				w.Header().Set("WWW-Authenticate", `Bearer realm="challengr"`)
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			if err := validator.ValidateToken(token); err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="challengr", error="invalid_token"`)
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
