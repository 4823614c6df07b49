package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the authenticated user as read from the bearer token.
type Session struct {
	Token     string    `json:"-"`
	UserID    string    `json:"user_id,omitempty"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is no longer usable at now. A token
// without an expiry is treated as expired.
func (s Session) Expired(now time.Time) bool {
	return s.ExpiresAt.IsZero() || !now.Before(s.ExpiresAt)
}

var (
	userIDClaims = []string{"sub", "nameid", "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"}
	nameClaims   = []string{"unique_name", "name", "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name"}
	emailClaims  = []string{"email", "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/emailaddress"}
)

// ParseToken reads a JWT payload without verifying its signature. The remote
// service verifies tokens; the client only needs the expiry and identity.
func ParseToken(raw string) (*Session, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "Bearer "))
	if raw == "" {
		return nil, ErrInvalidToken
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	sess := &Session{
		Token:  raw,
		UserID: stringClaim(claims, userIDClaims),
		Name:   stringClaim(claims, nameClaims),
		Email:  stringClaim(claims, emailClaims),
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if exp != nil {
		sess.ExpiresAt = exp.Time.UTC()
	}
	return sess, nil
}

func stringClaim(claims jwt.MapClaims, names []string) string {
	for _, name := range names {
		switch v := claims[name].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
