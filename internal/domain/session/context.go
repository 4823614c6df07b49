package session

import "context"

type tokenKey struct{}

// WithToken attaches a bearer token supplied by the caller to ctx. It takes
// precedence over the stored token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the token attached with WithToken, if any.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}
