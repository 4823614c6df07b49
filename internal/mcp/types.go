package mcp

import (
	"time"

	"github.com/rpggio/challengr/internal/domain/activity"
	"github.com/rpggio/challengr/internal/domain/calendar"
	"github.com/rpggio/challengr/internal/domain/challenge"
	"github.com/rpggio/challengr/internal/domain/progress"
	"github.com/rpggio/challengr/internal/domain/session"
)

type LoginParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterParams struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChallengeIDParams struct {
	ChallengeID string `json:"challenge_id"`
}

type CreateChallengeParams struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
}

type UpdateChallengeParams struct {
	ChallengeID string `json:"challenge_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type CreateActivityParams struct {
	ChallengeID string `json:"challenge_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	// Recurrence is "days_of_week" or "every_n_days".
	Recurrence    string   `json:"recurrence"`
	Weekdays      []string `json:"weekdays,omitempty"`
	IntervalWeeks int      `json:"interval_weeks,omitempty"`
	EveryNDays    int      `json:"every_n_days,omitempty"`
	Anchor        string   `json:"anchor,omitempty"`
}

type UpdateActivityParams struct {
	ActivityID  string `json:"activity_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

type PreviewScheduleParams struct {
	ChallengeID string `json:"challenge_id"`
	ActivityID  string `json:"activity_id"`
	From        string `json:"from,omitempty"`
	To          string `json:"to,omitempty"`
}

type GetDayParams struct {
	ChallengeID string `json:"challenge_id"`
	Date        string `json:"date,omitempty"`
	UserID      string `json:"user_id,omitempty"`
}

type ToggleCheckinParams struct {
	ChallengeID string `json:"challenge_id"`
	ActivityID  string `json:"activity_id"`
	Date        string `json:"date"`
}

type GetCalendarParams struct {
	ChallengeID string `json:"challenge_id"`
	UserID      string `json:"user_id,omitempty"`
}

type SessionResponse struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

func sessionResponse(s *session.Session) SessionResponse {
	return SessionResponse{UserID: s.UserID, Name: s.Name, Email: s.Email, ExpiresAt: s.ExpiresAt}
}

type ChallengeResponse struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	StartDate   calendar.Date      `json:"start_date"`
	EndDate     calendar.Date      `json:"end_date"`
	OwnerID     string             `json:"owner_id,omitempty"`
	Members     []challenge.Member `json:"members,omitempty"`
	JoinPath    string             `json:"join_path"`
}

func challengeResponse(c challenge.Challenge) ChallengeResponse {
	return ChallengeResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
		OwnerID:     c.OwnerID,
		Members:     c.Members,
		JoinPath:    challenge.JoinURL("", c.ID),
	}
}

type ActivityResponse struct {
	ID            string        `json:"id"`
	ChallengeID   string        `json:"challenge_id,omitempty"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	Icon          string        `json:"icon,omitempty"`
	Recurrence    string        `json:"recurrence"`
	Weekdays      string        `json:"weekdays,omitempty"`
	IntervalWeeks int           `json:"interval_weeks,omitempty"`
	EveryNDays    int           `json:"every_n_days,omitempty"`
	Anchor        calendar.Date `json:"anchor"`
}

func activityResponse(a activity.Activity) ActivityResponse {
	resp := ActivityResponse{
		ID:          a.ID,
		ChallengeID: a.ChallengeID,
		Name:        a.Name,
		Description: a.Description,
		Icon:        a.Icon,
		Recurrence:  a.RecurrenceType().String(),
		Anchor:      a.Anchor,
	}
	switch r := a.Recurrence.(type) {
	case activity.DaysOfWeek:
		resp.Weekdays = r.Mask.String()
		resp.IntervalWeeks = r.IntervalWeeks
	case activity.EveryNDays:
		resp.EveryNDays = r.N
	}
	return resp
}

type ActivityRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
	Done bool   `json:"done"`
}

type DayResponse struct {
	Date       calendar.Date   `json:"date"`
	Status     progress.Status `json:"status"`
	Done       int             `json:"done"`
	Total      int             `json:"total"`
	Activities []ActivityRef   `json:"activities"`
}

func dayResponse(cell progress.DayCell) DayResponse {
	done := make(map[string]bool, len(cell.Completed))
	for _, id := range cell.Completed {
		done[id] = true
	}
	refs := make([]ActivityRef, 0, len(cell.Scheduled))
	for _, a := range cell.Scheduled {
		refs = append(refs, ActivityRef{ID: a.ID, Name: a.Name, Icon: a.Icon, Done: done[a.ID]})
	}
	return DayResponse{
		Date:       cell.Date,
		Status:     cell.Status,
		Done:       cell.Done,
		Total:      cell.Total,
		Activities: refs,
	}
}

type CalendarResponse struct {
	ChallengeID string         `json:"challenge_id"`
	Name        string         `json:"name"`
	UserID      string         `json:"user_id,omitempty"`
	Window      calendar.Range `json:"window"`
	Range       calendar.Range `json:"range"`
	Days        []DayResponse  `json:"days"`
}

func calendarResponse(c *progress.Calendar) CalendarResponse {
	days := make([]DayResponse, 0, len(c.Days))
	for _, cell := range c.Days {
		days = append(days, dayResponse(cell))
	}
	return CalendarResponse{
		ChallengeID: c.ChallengeID,
		Name:        c.Name,
		UserID:      c.UserID,
		Window:      c.Window,
		Range:       c.Range,
		Days:        days,
	}
}

type ScheduleResponse struct {
	ActivityID string          `json:"activity_id"`
	Range      calendar.Range  `json:"range"`
	Dates      []calendar.Date `json:"dates"`
}

type ToggleResponse struct {
	ActivityID string        `json:"activity_id"`
	Date       calendar.Date `json:"date"`
	Checked    bool          `json:"checked"`
	Day        *DayResponse  `json:"day,omitempty"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}
