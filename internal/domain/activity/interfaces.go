package activity

import "context"

// Repository provides access to a challenge's activities.
type Repository interface {
	List(ctx context.Context, challengeID string) ([]Activity, error)
	Create(ctx context.Context, challengeID string, a *Activity) error
	Update(ctx context.Context, id string, fields Fields) error
}
