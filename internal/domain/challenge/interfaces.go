package challenge

import "context"

// Repository provides access to the caller's challenges.
type Repository interface {
	ListMine(ctx context.Context) ([]Challenge, error)
	Get(ctx context.Context, id string) (*Challenge, error)
	Create(ctx context.Context, c *Challenge) error
	Update(ctx context.Context, id string, fields Fields) error
	Delete(ctx context.Context, id string) error
	Leave(ctx context.Context, id string) error
	Join(ctx context.Context, id string) error
}
