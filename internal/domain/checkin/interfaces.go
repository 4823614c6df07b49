package checkin

import (
	"context"

	"github.com/rpggio/challengr/internal/domain/calendar"
)

// Remote creates and deletes checkins on the remote service.
type Remote interface {
	Create(ctx context.Context, activityID string, date calendar.Date) error
	Delete(ctx context.Context, activityID string, date calendar.Date) error
}
