package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/challengr/internal/domain/calendar"
	"github.com/rpggio/challengr/internal/repository"
)

// Service handles activity operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// CreateRequest defines activity creation inputs.
type CreateRequest struct {
	Name          string         `validate:"required,max=100"`
	Description   string         `validate:"max=500"`
	Icon          string         `validate:"max=64"`
	Type          RecurrenceType `validate:"oneof=1 2"`
	DaysOfWeek    Weekdays       `validate:"max=127"`
	IntervalWeeks int            `validate:"min=0,max=52"`
	EveryNDays    int            `validate:"min=0,max=365"`
	// Anchor defaults to today.
	Anchor calendar.Date
}

// Fields are the descriptive properties that stay editable after creation.
type Fields struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Icon        string `json:"icon" validate:"max=64"`
}

// List returns the activities of a challenge.
func (s *Service) List(ctx context.Context, challengeID string) ([]Activity, error) {
	if strings.TrimSpace(challengeID) == "" {
		return nil, ErrInvalidInput
	}
	list, err := s.repo.List(ctx, challengeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("listing activities: %w", err)
	}
	return list, nil
}

// Create adds an activity to a challenge. Its recurrence is fixed from then on.
func (s *Service) Create(ctx context.Context, challengeID string, req CreateRequest) (*Activity, error) {
	if strings.TrimSpace(challengeID) == "" {
		return nil, ErrInvalidInput
	}
	if err := ValidateCreateInput(req); err != nil {
		return nil, err
	}

	a := &Activity{
		ChallengeID: challengeID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Icon:        req.Icon,
		Anchor:      req.Anchor,
	}
	if a.Anchor.IsZero() {
		a.Anchor = calendar.Today(s.now)
	}
	switch req.Type {
	case TypeDaysOfWeek:
		interval := req.IntervalWeeks
		if interval < 1 {
			interval = 1
		}
		a.Recurrence = DaysOfWeek{Mask: req.DaysOfWeek, IntervalWeeks: interval}
	case TypeEveryNDays:
		a.Recurrence = EveryNDays{N: req.EveryNDays}
	}

	if err := s.repo.Create(ctx, challengeID, a); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("creating activity: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("activity created", "challenge_id", challengeID, "activity_id", a.ID, "recurrence", a.RecurrenceType().String())
	}
	return a, nil
}

// Update edits an activity's name, description and icon.
func (s *Service) Update(ctx context.Context, id string, fields Fields) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidInput
	}
	fields.Name = strings.TrimSpace(fields.Name)
	if err := ValidateFields(fields); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, fields); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrActivityNotFound
		}
		return fmt.Errorf("updating activity: %w", err)
	}
	return nil
}
