package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rpggio/challengr/internal/domain/calendar"
	"github.com/rpggio/challengr/internal/domain/challenge"
)

var (
	epMyChallenges    = endpoint{method: http.MethodGet, route: "/challenges/GetMyChallenges"}
	epGetChallenge    = endpoint{method: http.MethodGet, route: "/challenges/GetChallengeById/{id}"}
	epCreateChallenge = endpoint{method: http.MethodPost, route: "/challenges/CreateChallenge"}
	epUpdateChallenge = endpoint{method: http.MethodPut, route: "/challenges/UpdateChallenge/{id}"}
	epDeleteChallenge = endpoint{method: http.MethodDelete, route: "/challenges/DeleteChallenge/{id}"}
	epLeaveChallenge  = endpoint{method: http.MethodDelete, route: "/challenges/LeaveChallenge/{id}"}
	epJoinChallenge   = endpoint{method: http.MethodPost, route: "/challenges/JoinChallenge/{id}"}
)

// ChallengeRepository implements challenge.Repository over the remote API.
type ChallengeRepository struct {
	client *Client
}

var _ challenge.Repository = (*ChallengeRepository)(nil)

// NewChallengeRepository creates a challenge repository.
func NewChallengeRepository(client *Client) *ChallengeRepository {
	return &ChallengeRepository{client: client}
}

func (r *ChallengeRepository) ListMine(ctx context.Context) ([]challenge.Challenge, error) {
	var out []challenge.Challenge
	if err := r.client.do(ctx, epMyChallenges, "/challenges/GetMyChallenges", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []challenge.Challenge{}
	}
	return out, nil
}

func (r *ChallengeRepository) Get(ctx context.Context, id string) (*challenge.Challenge, error) {
	var out challenge.Challenge
	if err := r.client.do(ctx, epGetChallenge, "/challenges/GetChallengeById/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type createChallengeBody struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	StartDate   calendar.Date `json:"startDate"`
	EndDate     calendar.Date `json:"endDate"`
}

// Create posts the challenge and fills c from the created record.
func (r *ChallengeRepository) Create(ctx context.Context, c *challenge.Challenge) error {
	body := createChallengeBody{
		Name:        c.Name,
		Description: c.Description,
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
	}
	var created challenge.Challenge
	if err := r.client.do(ctx, epCreateChallenge, "/challenges/CreateChallenge", body, &created); err != nil {
		return err
	}
	if created.ID != "" {
		c.ID = created.ID
	}
	if created.OwnerID != "" {
		c.OwnerID = created.OwnerID
	}
	if len(created.Members) > 0 {
		c.Members = created.Members
	}
	return nil
}

func (r *ChallengeRepository) Update(ctx context.Context, id string, fields challenge.Fields) error {
	return r.client.do(ctx, epUpdateChallenge, "/challenges/UpdateChallenge/"+url.PathEscape(id), fields, nil)
}

func (r *ChallengeRepository) Delete(ctx context.Context, id string) error {
	return r.client.do(ctx, epDeleteChallenge, "/challenges/DeleteChallenge/"+url.PathEscape(id), nil, nil)
}

func (r *ChallengeRepository) Leave(ctx context.Context, id string) error {
	return r.client.do(ctx, epLeaveChallenge, "/challenges/LeaveChallenge/"+url.PathEscape(id), nil, nil)
}

func (r *ChallengeRepository) Join(ctx context.Context, id string) error {
	return r.client.do(ctx, epJoinChallenge, "/challenges/JoinChallenge/"+url.PathEscape(id), nil, nil)
}
