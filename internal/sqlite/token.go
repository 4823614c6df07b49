package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/challengr/internal/domain/session"
	"github.com/rpggio/challengr/internal/repository"
)

// DefaultProfile names the token slot used when none is configured
const DefaultProfile = "default"

// TokenRepository implements session.TokenStore for SQLite
type TokenRepository struct {
	db      *DB
	profile string
}

var _ session.TokenStore = (*TokenRepository)(nil)

// NewTokenRepository creates a token store for one client profile
func NewTokenRepository(db *DB, profile string) *TokenRepository {
	if profile == "" {
		profile = DefaultProfile
	}
	return &TokenRepository{db: db, profile: profile}
}

// Load returns the stored token, or repository.ErrNotFound
func (r *TokenRepository) Load(ctx context.Context) (string, error) {
	var token string
	err := r.db.QueryRowContext(ctx, `SELECT token FROM auth_tokens WHERE profile = ?`, r.profile).Scan(&token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// Save replaces the stored token
func (r *TokenRepository) Save(ctx context.Context, token string) error {
	query := `
		INSERT INTO auth_tokens (profile, token, saved_at) VALUES (?, ?, ?)
		ON CONFLICT(profile) DO UPDATE SET token = excluded.token, saved_at = excluded.saved_at
	`
	if _, err := r.db.ExecContext(ctx, query, r.profile, token, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Clear removes the stored token; clearing an empty slot is not an error
func (r *TokenRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE profile = ?`, r.profile); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}
