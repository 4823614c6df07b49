package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/challengr/internal/domain/activity"
	"github.com/rpggio/challengr/internal/domain/calendar"
	"github.com/rpggio/challengr/internal/domain/challenge"
	"github.com/rpggio/challengr/internal/domain/checkin"
	"github.com/rpggio/challengr/internal/repository"
)

// ChallengeReader fetches a challenge.
type ChallengeReader interface {
	Get(ctx context.Context, id string) (*challenge.Challenge, error)
}

// ActivityLister fetches a challenge's activities.
type ActivityLister interface {
	List(ctx context.Context, challengeID string) ([]activity.Activity, error)
}

// CheckinLookup reports whether userID completed an activity on a date. An
// empty userID means the caller.
type CheckinLookup interface {
	IsChecked(ctx context.Context, activityID string, date calendar.Date, userID string) (bool, error)
}

// Options tune calendar rendering.
type Options struct {
	// MaxDays bounds the rendered window; below 1 uses calendar.DefaultMaxDays.
	MaxDays int
	// LookupConcurrency bounds in-flight completion lookups; below 1 is unbounded.
	LookupConcurrency int
	Evaluator         activity.Evaluator
	// Now overrides the clock; nil uses time.Now.
	Now func() time.Time
}

// Service renders progress calendars from remote data.
type Service struct {
	challenges ChallengeReader
	activities ActivityLister
	checkins   CheckinLookup
	opts       Options
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a new progress service.
func NewService(challenges ChallengeReader, activities ActivityLister, checkins CheckinLookup, opts Options, logger *slog.Logger) *Service {
	if opts.MaxDays < 1 {
		opts.MaxDays = calendar.DefaultMaxDays
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		challenges: challenges,
		activities: activities,
		checkins:   checkins,
		opts:       opts,
		logger:     logger,
		now:        now,
	}
}

// Calendar is a rendered progress window for one member of a challenge.
type Calendar struct {
	ChallengeID string         `json:"challenge_id"`
	Name        string         `json:"name"`
	UserID      string         `json:"user_id,omitempty"`
	Window      calendar.Range `json:"window"`
	Range       calendar.Range `json:"range"`
	Days        []DayCell      `json:"days"`
}

// Calendar renders the most recent part of a challenge's window for userID.
// Lookups run concurrently; a failed lookup counts as not completed. When
// ctx ends before every lookup settles, no calendar is returned.
func (s *Service) Calendar(ctx context.Context, challengeID, userID string) (*Calendar, error) {
	c, acts, err := s.load(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	window := c.Window(calendar.Today(s.now))
	rng := calendar.ClampRange(window.From, window.To, s.opts.MaxDays)
	dates := rng.Days()
	agg := Aggregator{Evaluator: s.opts.Evaluator}

	var keys []checkin.Key
	for _, d := range dates {
		for _, a := range agg.Scheduled(acts, d) {
			keys = append(keys, checkin.Key{ActivityID: a.ID, Date: d})
		}
	}

	results := checkin.NewCache(nil, s.logger)
	defer results.Close()
	if err := results.Load(ctx, keys, s.opts.LookupConcurrency, s.lookup(userID)); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Debug("calendar rendered", "challenge_id", c.ID, "from", rng.From.String(), "to", rng.To.String(), "lookups", len(keys))
	}
	return &Calendar{
		ChallengeID: c.ID,
		Name:        c.Name,
		UserID:      userID,
		Window:      window,
		Range:       rng,
		Days:        agg.Aggregate(dates, acts, window, completedFrom(results)),
	}, nil
}

// Day aggregates a single date. Completion state is loaded into view, which
// the caller keeps for later toggles; a nil view uses a private cache.
func (s *Service) Day(ctx context.Context, challengeID string, date calendar.Date, userID string, view *checkin.Cache) (*DayCell, error) {
	if date.IsZero() {
		date = calendar.Today(s.now)
	}
	c, acts, err := s.load(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if view == nil {
		view = checkin.NewCache(nil, s.logger)
		defer view.Close()
	}

	window := c.Window(calendar.Today(s.now))
	if !window.Contains(date) {
		acts = nil
	}
	agg := Aggregator{Evaluator: s.opts.Evaluator}
	keys := make([]checkin.Key, 0, len(acts))
	for _, a := range agg.Scheduled(acts, date) {
		keys = append(keys, checkin.Key{ActivityID: a.ID, Date: date})
	}
	if err := view.Load(ctx, keys, s.opts.LookupConcurrency, s.lookup(userID)); err != nil {
		return nil, err
	}

	cells := agg.Aggregate([]calendar.Date{date}, acts, window, completedFrom(view))
	return &cells[0], nil
}

// Schedule lists the dates in r on which the activity is due, clamped to
// the challenge's window.
func (s *Service) Schedule(ctx context.Context, challengeID, activityID string, r calendar.Range) ([]calendar.Date, error) {
	c, acts, err := s.load(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	for _, a := range acts {
		if a.ID != activityID {
			continue
		}
		window := c.Window(calendar.Today(s.now))
		var out []calendar.Date
		for _, d := range s.opts.Evaluator.DueDates(a, r) {
			if window.Contains(d) {
				out = append(out, d)
			}
		}
		return out, nil
	}
	return nil, activity.ErrActivityNotFound
}

func (s *Service) load(ctx context.Context, challengeID string) (*challenge.Challenge, []activity.Activity, error) {
	if strings.TrimSpace(challengeID) == "" {
		return nil, nil, challenge.ErrInvalidInput
	}
	c, err := s.challenges.Get(ctx, challengeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, challenge.ErrChallengeNotFound
		}
		return nil, nil, fmt.Errorf("fetching challenge: %w", err)
	}
	acts, err := s.activities.List(ctx, challengeID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching activities: %w", err)
	}
	return c, acts, nil
}

func (s *Service) lookup(userID string) checkin.LookupFunc {
	return func(ctx context.Context, activityID string, date calendar.Date) (bool, error) {
		return s.checkins.IsChecked(ctx, activityID, date, userID)
	}
}

func completedFrom(c *checkin.Cache) CompletedFunc {
	return func(activityID string, date calendar.Date) bool {
		return c.Get(date, activityID)
	}
}
