package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/rpggio/challengr/internal/domain/session"
)

var (
	epLogin    = endpoint{method: http.MethodPost, route: "/auth/login", public: true}
	epRegister = endpoint{method: http.MethodPost, route: "/auth/register", public: true}
)

// AuthRepository implements session.AuthClient over the remote API.
type AuthRepository struct {
	client *Client
}

var _ session.AuthClient = (*AuthRepository)(nil)

// NewAuthRepository creates an auth repository.
func NewAuthRepository(client *Client) *AuthRepository {
	return &AuthRepository{client: client}
}

func (r *AuthRepository) Login(ctx context.Context, email, password string) (string, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{email, password}
	var out struct {
		Token string `json:"token"`
	}
	if err := r.client.do(ctx, epLogin, "/auth/login", body, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", errors.New("login response carried no token")
	}
	return out.Token, nil
}

func (r *AuthRepository) Register(ctx context.Context, name, email, password string) error {
	body := struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}{name, email, password}
	return r.client.do(ctx, epRegister, "/auth/register", body, nil)
}
