package activity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rpggio/challengr/internal/domain/activity"
	"github.com/rpggio/challengr/internal/repository"
	"github.com/rpggio/challengr/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestActivityService_CreateDaysOfWeek(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActivityRepository{}
	repo.On("Create", ctx, "c1", mock.MatchedBy(func(a *activity.Activity) bool {
		return a.Recurrence == activity.DaysOfWeek{Mask: activity.Monday | activity.Thursday, IntervalWeeks: 1} &&
			a.Anchor.String() == "2024-01-01"
	})).Run(func(args mock.Arguments) {
		args.Get(2).(*activity.Activity).ID = "a1"
	}).Return(nil)

	svc := activity.NewService(repo, nil)
	a, err := svc.Create(ctx, "c1", activity.CreateRequest{
		Name:       "  Stretch ",
		Type:       activity.TypeDaysOfWeek,
		DaysOfWeek: activity.Monday | activity.Thursday,
		Anchor:     day("2024-01-01"),
	})
	require.NoError(t, err)
	require.Equal(t, "a1", a.ID)
	require.Equal(t, "Stretch", a.Name)
	require.Equal(t, "c1", a.ChallengeID)
	repo.AssertExpectations(t)
}

func TestActivityService_CreateEveryNDays(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActivityRepository{}
	repo.On("Create", ctx, "c1", mock.Anything).Return(nil)

	svc := activity.NewService(repo, nil)
	a, err := svc.Create(ctx, "c1", activity.CreateRequest{
		Name:       "Run",
		Type:       activity.TypeEveryNDays,
		EveryNDays: 3,
	})
	require.NoError(t, err)
	require.Equal(t, activity.EveryNDays{N: 3}, a.Recurrence)
	require.False(t, a.Anchor.IsZero())
}

func TestActivityService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActivityRepository{}
	svc := activity.NewService(repo, nil)

	cases := map[string]activity.CreateRequest{
		"missing name":       {Type: activity.TypeEveryNDays, EveryNDays: 2},
		"unknown type":       {Name: "x", Type: 5},
		"every n days zero":  {Name: "x", Type: activity.TypeEveryNDays},
		"mixed field groups": {Name: "x", Type: activity.TypeEveryNDays, EveryNDays: 2, DaysOfWeek: activity.Monday},
		"stray n on weekday": {Name: "x", Type: activity.TypeDaysOfWeek, EveryNDays: 2},
		"mask out of range":  {Name: "x", Type: activity.TypeDaysOfWeek, DaysOfWeek: 200},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, "c1", req)
			require.ErrorIs(t, err, activity.ErrInvalidInput)
		})
	}

	_, err := svc.Create(ctx, " ", activity.CreateRequest{Name: "x", Type: activity.TypeDaysOfWeek})
	require.ErrorIs(t, err, activity.ErrInvalidInput)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestActivityService_ListMapsNotFound(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActivityRepository{}
	repo.On("List", ctx, "missing").Return(nil, repository.ErrNotFound)

	svc := activity.NewService(repo, nil)
	_, err := svc.List(ctx, "missing")
	require.ErrorIs(t, err, activity.ErrChallengeNotFound)
}

func TestActivityService_UpdateTouchesDescriptiveFields(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActivityRepository{}
	repo.On("Update", ctx, "a1", activity.Fields{Name: "Read", Description: "20 pages", Icon: "book"}).Return(nil)
	repo.On("Update", ctx, "gone", mock.Anything).Return(repository.ErrNotFound)
	repo.On("Update", ctx, "boom", mock.Anything).Return(errors.New("network down"))

	svc := activity.NewService(repo, nil)
	require.NoError(t, svc.Update(ctx, "a1", activity.Fields{Name: " Read ", Description: "20 pages", Icon: "book"}))
	require.ErrorIs(t, svc.Update(ctx, "gone", activity.Fields{Name: "x"}), activity.ErrActivityNotFound)
	require.ErrorContains(t, svc.Update(ctx, "boom", activity.Fields{Name: "x"}), "updating activity")
	require.ErrorIs(t, svc.Update(ctx, "a1", activity.Fields{}), activity.ErrInvalidInput)
}
