package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rpggio/challengr/internal/domain/activity"
)

var (
	epListActivities = endpoint{method: http.MethodGet, route: "/activities/list/{challengeId}"}
	epCreateActivity = endpoint{method: http.MethodPost, route: "/activities/create/{challengeId}"}
	epUpdateActivity = endpoint{method: http.MethodPut, route: "/activities/update/{id}"}
)

// ActivityRepository implements activity.Repository over the remote API.
type ActivityRepository struct {
	client *Client
}

var _ activity.Repository = (*ActivityRepository)(nil)

// NewActivityRepository creates an activity repository.
func NewActivityRepository(client *Client) *ActivityRepository {
	return &ActivityRepository{client: client}
}

func (r *ActivityRepository) List(ctx context.Context, challengeID string) ([]activity.Activity, error) {
	var out []activity.Activity
	if err := r.client.do(ctx, epListActivities, "/activities/list/"+url.PathEscape(challengeID), nil, &out); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].ChallengeID == "" {
			out[i].ChallengeID = challengeID
		}
	}
	if out == nil {
		out = []activity.Activity{}
	}
	return out, nil
}

// Create posts a and stores the assigned ID back into it.
func (r *ActivityRepository) Create(ctx context.Context, challengeID string, a *activity.Activity) error {
	var created struct {
		ID string `json:"id"`
	}
	if err := r.client.do(ctx, epCreateActivity, "/activities/create/"+url.PathEscape(challengeID), a, &created); err != nil {
		return err
	}
	a.ID = created.ID
	a.ChallengeID = challengeID
	return nil
}

func (r *ActivityRepository) Update(ctx context.Context, id string, fields activity.Fields) error {
	return r.client.do(ctx, epUpdateActivity, "/activities/update/"+url.PathEscape(id), fields, nil)
}
