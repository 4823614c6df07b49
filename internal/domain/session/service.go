package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rpggio/challengr/internal/repository"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Service handles login state.
type Service struct {
	auth   AuthClient
	store  TokenStore
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new session service.
func NewService(auth AuthClient, store TokenStore, logger *slog.Logger) *Service {
	return &Service{auth: auth, store: store, logger: logger, now: time.Now}
}

// LoginRequest holds login credentials.
type LoginRequest struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// RegisterRequest holds account registration inputs.
type RegisterRequest struct {
	Name     string `validate:"required,max=100"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// Login exchanges credentials for a token and stores it.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	token, err := s.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrUnauthorized) || errors.Is(err, repository.ErrInvalidInput) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("logging in: %w", err)
	}
	sess, err := ParseToken(token)
	if err != nil {
		return nil, err
	}
	if sess.Expired(s.now()) {
		return nil, ErrUnauthenticated
	}
	if err := s.store.Save(ctx, sess.Token); err != nil {
		return nil, fmt.Errorf("saving token: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("logged in", "user_id", sess.UserID, "expires_at", sess.ExpiresAt)
	}
	return sess, nil
}

// Register creates an account. The caller logs in afterwards.
func (s *Service) Register(ctx context.Context, req RegisterRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	if err := s.auth.Register(ctx, req.Name, req.Email, req.Password); err != nil {
		if errors.Is(err, repository.ErrInvalidInput) || errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return fmt.Errorf("registering: %w", err)
	}
	return nil
}

// Logout forgets the stored token.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing token: %w", err)
	}
	return nil
}

// Current returns the valid session for ctx: the token attached with
// WithToken, else the stored one. A stored token that is expired or
// unreadable is cleared. Both cases report ErrUnauthenticated.
func (s *Service) Current(ctx context.Context) (*Session, error) {
	token := TokenFromContext(ctx)
	stored := false
	if token == "" {
		var err error
		token, err = s.store.Load(ctx)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrUnauthenticated
			}
			return nil, fmt.Errorf("loading token: %w", err)
		}
		stored = true
	}

	sess, err := ParseToken(token)
	if err == nil && !sess.Expired(s.now()) {
		return sess, nil
	}
	if stored {
		if cerr := s.store.Clear(ctx); cerr != nil && s.logger != nil {
			s.logger.Warn("failed to clear expired token", "error", cerr)
		}
	}
	if s.logger != nil {
		s.logger.Debug("session rejected", "stored", stored, "parse_error", err)
	}
	return nil, ErrUnauthenticated
}

// Token returns the bearer token of the current session.
func (s *Service) Token(ctx context.Context) (string, error) {
	sess, err := s.Current(ctx)
	if err != nil {
		return "", err
	}
	return sess.Token, nil
}

// Invalidate reacts to the remote service rejecting the token: a stored
// token is cleared so the next call requires a fresh login.
func (s *Service) Invalidate(ctx context.Context) {
	if TokenFromContext(ctx) != "" {
		return
	}
	if err := s.store.Clear(ctx); err != nil && s.logger != nil {
		s.logger.Warn("failed to clear rejected token", "error", err)
	}
}
