package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/challengr/internal/domain/activity"
	"github.com/rpggio/challengr/internal/domain/calendar"
	"github.com/rpggio/challengr/internal/domain/challenge"
	"github.com/rpggio/challengr/internal/domain/checkin"
	"github.com/rpggio/challengr/internal/domain/session"
)

// previewDays is the schedule preview length when no end date is given.
const previewDays = 28

// Handler dispatches MCP tool calls to domain services.
type Handler struct {
	sessions   SessionService
	challenges ChallengeService
	activities ActivityService
	progress   ProgressService
	checkins   CheckinLookup
	views      ViewRegistry
	now        func() time.Time
}

// NewHandler creates a new MCP handler.
func NewHandler(svc Services) *Handler {
	now := svc.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{
		sessions:   svc.Sessions,
		challenges: svc.Challenges,
		activities: svc.Activities,
		progress:   svc.Progress,
		checkins:   svc.Checkins,
		views:      svc.Views,
		now:        now,
	}
}

// Handle runs the named tool. viewKey selects the checkin view used by
// get_day and toggle_checkin.
func (h *Handler) Handle(ctx context.Context, viewKey, method string, params json.RawMessage) (any, error) {
	switch method {
	case "login":
		var req LoginParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.sessions.Login(ctx, session.LoginRequest{Email: req.Email, Password: req.Password})
		if err != nil {
			return nil, err
		}
		return sessionResponse(sess), nil
	case "register":
		var req RegisterParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.sessions.Register(ctx, session.RegisterRequest{Name: req.Name, Email: req.Email, Password: req.Password}); err != nil {
			return nil, err
		}
		return OKResponse{OK: true}, nil
	case "logout":
		if err := h.sessions.Logout(ctx); err != nil {
			return nil, err
		}
		h.views.Close(viewKey)
		return OKResponse{OK: true}, nil
	case "whoami":
		sess, err := h.sessions.Current(ctx)
		if err != nil {
			return nil, err
		}
		return sessionResponse(sess), nil
	}

	// Everything below talks to the remote service as the current user.
	caller, err := h.sessions.Current(ctx)
	if err != nil {
		return nil, err
	}

	switch method {
	case "list_challenges":
		list, err := h.challenges.List(ctx)
		if err != nil {
			return nil, err
		}
		resp := make([]ChallengeResponse, 0, len(list))
		for _, c := range list {
			resp = append(resp, challengeResponse(c))
		}
		return resp, nil
	case "get_challenge":
		var req ChallengeIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		c, err := h.challenges.Get(ctx, req.ChallengeID)
		if err != nil {
			return nil, err
		}
		return challengeResponse(*c), nil
	case "create_challenge":
		var req CreateChallengeParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		start, err := optionalDate(req.StartDate)
		if err != nil {
			return nil, err
		}
		end, err := optionalDate(req.EndDate)
		if err != nil {
			return nil, err
		}
		c, err := h.challenges.Create(ctx, challenge.CreateRequest{
			Name:        req.Name,
			Description: req.Description,
			StartDate:   start,
			EndDate:     end,
		})
		if err != nil {
			return nil, err
		}
		return challengeResponse(*c), nil
	case "update_challenge":
		var req UpdateChallengeParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.challenges.Update(ctx, req.ChallengeID, challenge.Fields{Name: req.Name, Description: req.Description}); err != nil {
			return nil, err
		}
		return OKResponse{OK: true}, nil
	case "delete_challenge", "leave_challenge", "join_challenge":
		var req ChallengeIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		op := map[string]func(context.Context, string) error{
			"delete_challenge": h.challenges.Delete,
			"leave_challenge":  h.challenges.Leave,
			"join_challenge":   h.challenges.Join,
		}[method]
		if err := op(ctx, req.ChallengeID); err != nil {
			return nil, err
		}
		return OKResponse{OK: true}, nil
	case "list_activities":
		var req ChallengeIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		acts, err := h.activities.List(ctx, req.ChallengeID)
		if err != nil {
			return nil, err
		}
		resp := make([]ActivityResponse, 0, len(acts))
		for _, a := range acts {
			resp = append(resp, activityResponse(a))
		}
		return resp, nil
	case "create_activity":
		var req CreateActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		create, err := toCreateActivity(req)
		if err != nil {
			return nil, err
		}
		a, err := h.activities.Create(ctx, req.ChallengeID, create)
		if err != nil {
			return nil, err
		}
		return activityResponse(*a), nil
	case "update_activity":
		var req UpdateActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.activities.Update(ctx, req.ActivityID, activity.Fields{Name: req.Name, Description: req.Description, Icon: req.Icon}); err != nil {
			return nil, err
		}
		return OKResponse{OK: true}, nil
	case "preview_schedule":
		var req PreviewScheduleParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		r, err := h.previewRange(req.From, req.To)
		if err != nil {
			return nil, err
		}
		dates, err := h.progress.Schedule(ctx, req.ChallengeID, req.ActivityID, r)
		if err != nil {
			return nil, err
		}
		if dates == nil {
			dates = []calendar.Date{}
		}
		return ScheduleResponse{ActivityID: req.ActivityID, Range: r, Dates: dates}, nil
	case "get_day":
		var req GetDayParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		date, err := optionalDate(req.Date)
		if err != nil {
			return nil, err
		}
		// A new day view replaces the old one; lookups still running for
		// the old view are discarded. Another member's day is read into a
		// private cache so the caller's toggles never start from it.
		var view *checkin.Cache
		if req.UserID == "" || req.UserID == caller.UserID {
			view = h.views.Open(viewKey)
		}
		cell, err := h.progress.Day(ctx, req.ChallengeID, date, req.UserID, view)
		if err != nil {
			return nil, err
		}
		return dayResponse(*cell), nil
	case "toggle_checkin":
		var req ToggleCheckinParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.toggle(ctx, viewKey, req)
	case "get_calendar":
		var req GetCalendarParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		cal, err := h.progress.Calendar(ctx, req.ChallengeID, req.UserID)
		if err != nil {
			return nil, err
		}
		return calendarResponse(cal), nil
	default:
		return nil, fmt.Errorf("%w: unknown tool %q", errInvalidParams, method)
	}
}

// toggle flips the caller's checkin in the current view. Only dates inside
// the challenge window can be toggled. An entry the view has not seen is
// looked up first so the flip starts from the remote value.
func (h *Handler) toggle(ctx context.Context, viewKey string, req ToggleCheckinParams) (*ToggleResponse, error) {
	if strings.TrimSpace(req.ActivityID) == "" {
		return nil, fmt.Errorf("%w: activity_id is required", errInvalidParams)
	}
	if strings.TrimSpace(req.ChallengeID) == "" {
		return nil, fmt.Errorf("%w: challenge_id is required", errInvalidParams)
	}
	date, err := calendar.Parse(req.Date)
	if err != nil {
		return nil, err
	}
	c, err := h.challenges.Get(ctx, req.ChallengeID)
	if err != nil {
		return nil, err
	}
	if !c.Window(calendar.Today(h.now)).Contains(date) {
		return nil, fmt.Errorf("%w: %s is outside the challenge window", errInvalidParams, date)
	}

	view := h.views.Current(viewKey)
	if !view.Known(date, req.ActivityID) {
		lookup := func(ctx context.Context, activityID string, d calendar.Date) (bool, error) {
			return h.checkins.IsChecked(ctx, activityID, d, "")
		}
		if err := view.Load(ctx, []checkin.Key{{ActivityID: req.ActivityID, Date: date}}, 1, lookup); err != nil {
			return nil, err
		}
	}

	checked, err := view.Toggle(ctx, date, req.ActivityID)
	if err != nil {
		return nil, err
	}
	return &ToggleResponse{ActivityID: req.ActivityID, Date: date, Checked: checked}, nil
}

// previewRange defaults to previewDays days starting today.
func (h *Handler) previewRange(fromStr, toStr string) (calendar.Range, error) {
	from, err := optionalDate(fromStr)
	if err != nil {
		return calendar.Range{}, err
	}
	if from.IsZero() {
		from = calendar.Today(h.now)
	}
	to, err := optionalDate(toStr)
	if err != nil {
		return calendar.Range{}, err
	}
	if to.IsZero() {
		to = calendar.AddDays(from, previewDays-1)
	}
	return calendar.NewRange(from, to)
}

func toCreateActivity(req CreateActivityParams) (activity.CreateRequest, error) {
	anchor, err := optionalDate(req.Anchor)
	if err != nil {
		return activity.CreateRequest{}, err
	}
	out := activity.CreateRequest{
		Name:          req.Name,
		Description:   req.Description,
		Icon:          req.Icon,
		IntervalWeeks: req.IntervalWeeks,
		EveryNDays:    req.EveryNDays,
		Anchor:        anchor,
	}
	switch req.Recurrence {
	case "days_of_week", "":
		out.Type = activity.TypeDaysOfWeek
		mask, err := activity.ParseWeekdays(req.Weekdays)
		if err != nil {
			return activity.CreateRequest{}, err
		}
		out.DaysOfWeek = mask
	case "every_n_days":
		out.Type = activity.TypeEveryNDays
	default:
		return activity.CreateRequest{}, fmt.Errorf("%w: unknown recurrence %q", errInvalidParams, req.Recurrence)
	}
	return out, nil
}

func optionalDate(s string) (calendar.Date, error) {
	if strings.TrimSpace(s) == "" {
		return calendar.Date{}, nil
	}
	return calendar.Parse(s)
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	return nil
}
