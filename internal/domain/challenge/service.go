package challenge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rpggio/challengr/internal/domain/calendar"
	"github.com/rpggio/challengr/internal/repository"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Service handles challenge operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new challenge service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// CreateRequest defines challenge creation inputs.
type CreateRequest struct {
	Name        string `validate:"required,max=100"`
	Description string `validate:"max=1000"`
	// StartDate defaults to today. A zero EndDate leaves the challenge open.
	StartDate calendar.Date
	EndDate   calendar.Date
}

// Fields are the properties editable after creation.
type Fields struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

// List returns the challenges the caller owns or has joined.
func (s *Service) List(ctx context.Context) ([]Challenge, error) {
	list, err := s.repo.ListMine(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing challenges: %w", err)
	}
	return list, nil
}

// Get returns a challenge with its members.
func (s *Service) Get(ctx context.Context, id string) (*Challenge, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, s.mapErr("getting challenge", err)
	}
	return c, nil
}

// Create starts a new challenge owned by the caller.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Challenge, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	start := req.StartDate
	if start.IsZero() {
		start = calendar.Today(s.now)
	}
	if !req.EndDate.IsZero() && req.EndDate.Before(start) {
		return nil, fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidInput, req.EndDate, start)
	}

	c := &Challenge{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   start,
		EndDate:     req.EndDate,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, s.mapErr("creating challenge", err)
	}
	if s.logger != nil {
		s.logger.Info("challenge created", "challenge_id", c.ID, "start", c.StartDate.String(), "end", c.EndDate.String())
	}
	return c, nil
}

// Update edits a challenge's name and description.
func (s *Service) Update(ctx context.Context, id string, fields Fields) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidInput
	}
	fields.Name = strings.TrimSpace(fields.Name)
	if err := validate.Struct(fields); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	if err := s.repo.Update(ctx, id, fields); err != nil {
		return s.mapErr("updating challenge", err)
	}
	return nil
}

// Delete removes a challenge. Only its owner may do so.
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidInput
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapErr("deleting challenge", err)
	}
	if s.logger != nil {
		s.logger.Info("challenge deleted", "challenge_id", id)
	}
	return nil
}

// Leave removes the caller from a challenge's members.
func (s *Service) Leave(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidInput
	}
	if err := s.repo.Leave(ctx, id); err != nil {
		return s.mapErr("leaving challenge", err)
	}
	return nil
}

// Join adds the caller to a challenge, as when following an invite link.
func (s *Service) Join(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidInput
	}
	err := s.repo.Join(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrConflict), errors.Is(err, repository.ErrInvalidInput):
		return ErrAlreadyMember
	default:
		return s.mapErr("joining challenge", err)
	}
}

func (s *Service) mapErr(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrChallengeNotFound
	case errors.Is(err, repository.ErrForbidden):
		return ErrNotOwner
	case errors.Is(err, repository.ErrInvalidInput):
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
