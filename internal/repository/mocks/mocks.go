package mocks

import (
	"context"

	"github.com/rpggio/challengr/internal/domain/activity"
	"github.com/rpggio/challengr/internal/domain/calendar"
	"github.com/rpggio/challengr/internal/domain/challenge"
	"github.com/stretchr/testify/mock"
)

// ChallengeRepository is a mock for challenge.Repository.
type ChallengeRepository struct {
	mock.Mock
}

func (m *ChallengeRepository) ListMine(ctx context.Context) ([]challenge.Challenge, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]challenge.Challenge); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ChallengeRepository) Get(ctx context.Context, id string) (*challenge.Challenge, error) {
	args := m.Called(ctx, id)
	if c, ok := args.Get(0).(*challenge.Challenge); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ChallengeRepository) Create(ctx context.Context, c *challenge.Challenge) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *ChallengeRepository) Update(ctx context.Context, id string, fields challenge.Fields) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *ChallengeRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ChallengeRepository) Leave(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ChallengeRepository) Join(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) List(ctx context.Context, challengeID string) ([]activity.Activity, error) {
	args := m.Called(ctx, challengeID)
	if list, ok := args.Get(0).([]activity.Activity); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ActivityRepository) Create(ctx context.Context, challengeID string, a *activity.Activity) error {
	args := m.Called(ctx, challengeID, a)
	return args.Error(0)
}

func (m *ActivityRepository) Update(ctx context.Context, id string, fields activity.Fields) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

// CheckinRepository is a mock for the remote checkin operations.
type CheckinRepository struct {
	mock.Mock
}

func (m *CheckinRepository) IsChecked(ctx context.Context, activityID string, date calendar.Date, userID string) (bool, error) {
	args := m.Called(ctx, activityID, date, userID)
	return args.Bool(0), args.Error(1)
}

func (m *CheckinRepository) Create(ctx context.Context, activityID string, date calendar.Date) error {
	args := m.Called(ctx, activityID, date)
	return args.Error(0)
}

func (m *CheckinRepository) Delete(ctx context.Context, activityID string, date calendar.Date) error {
	args := m.Called(ctx, activityID, date)
	return args.Error(0)
}

// AuthClient is a mock for session.AuthClient.
type AuthClient struct {
	mock.Mock
}

func (m *AuthClient) Login(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *AuthClient) Register(ctx context.Context, name, email, password string) error {
	args := m.Called(ctx, name, email, password)
	return args.Error(0)
}

// TokenStore is a mock for session.TokenStore.
type TokenStore struct {
	mock.Mock
}

func (m *TokenStore) Load(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *TokenStore) Save(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *TokenStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
