package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/rpggio/challengr/internal/domain/calendar"
	"github.com/rpggio/challengr/internal/domain/checkin"
	"github.com/rpggio/challengr/internal/domain/progress"
	"github.com/rpggio/challengr/internal/repository"
)

var (
	epGetCheckin    = endpoint{method: http.MethodGet, route: "/activities/{id}/checkins/{date}"}
	epCreateCheckin = endpoint{method: http.MethodPost, route: "/activities/{id}/checkins"}
	epDeleteCheckin = endpoint{method: http.MethodDelete, route: "/activities/{id}/checkins/{date}"}
)

// CheckinRepository reads and writes checkins over the remote API.
type CheckinRepository struct {
	client *Client
}

var (
	_ checkin.Remote         = (*CheckinRepository)(nil)
	_ progress.CheckinLookup = (*CheckinRepository)(nil)
)

// NewCheckinRepository creates a checkin repository.
func NewCheckinRepository(client *Client) *CheckinRepository {
	return &CheckinRepository{client: client}
}

// IsChecked reports whether the checkin exists: any success status means
// checked and 404 means not checked. An empty userID asks for the caller.
func (r *CheckinRepository) IsChecked(ctx context.Context, activityID string, date calendar.Date, userID string) (bool, error) {
	path := checkinPath(activityID, date)
	if userID != "" {
		path += "?userId=" + url.QueryEscape(userID)
	}
	err := r.client.do(ctx, epGetCheckin, path, nil, nil)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (r *CheckinRepository) Create(ctx context.Context, activityID string, date calendar.Date) error {
	body := struct {
		Date calendar.Date `json:"date"`
	}{Date: date}
	return r.client.do(ctx, epCreateCheckin, "/activities/"+url.PathEscape(activityID)+"/checkins", body, nil)
}

func (r *CheckinRepository) Delete(ctx context.Context, activityID string, date calendar.Date) error {
	return r.client.do(ctx, epDeleteCheckin, checkinPath(activityID, date), nil, nil)
}

func checkinPath(activityID string, date calendar.Date) string {
	return "/activities/" + url.PathEscape(activityID) + "/checkins/" + date.String()
}
