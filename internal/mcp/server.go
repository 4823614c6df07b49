package mcp

import (
	"context"
	"log/slog"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/challengr/internal/domain/activity"
	"github.com/rpggio/challengr/internal/domain/calendar"
	"github.com/rpggio/challengr/internal/domain/challenge"
	"github.com/rpggio/challengr/internal/domain/checkin"
	"github.com/rpggio/challengr/internal/domain/progress"
	"github.com/rpggio/challengr/internal/domain/session"
)

// SessionService defines login operations needed by MCP.
type SessionService interface {
	Login(ctx context.Context, req session.LoginRequest) (*session.Session, error)
	Register(ctx context.Context, req session.RegisterRequest) error
	Logout(ctx context.Context) error
	Current(ctx context.Context) (*session.Session, error)
}

// ChallengeService defines challenge operations needed by MCP.
type ChallengeService interface {
	List(ctx context.Context) ([]challenge.Challenge, error)
	Get(ctx context.Context, id string) (*challenge.Challenge, error)
	Create(ctx context.Context, req challenge.CreateRequest) (*challenge.Challenge, error)
	Update(ctx context.Context, id string, fields challenge.Fields) error
	Delete(ctx context.Context, id string) error
	Leave(ctx context.Context, id string) error
	Join(ctx context.Context, id string) error
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	List(ctx context.Context, challengeID string) ([]activity.Activity, error)
	Create(ctx context.Context, challengeID string, req activity.CreateRequest) (*activity.Activity, error)
	Update(ctx context.Context, id string, fields activity.Fields) error
}

// ProgressService defines calendar rendering needed by MCP.
type ProgressService interface {
	Calendar(ctx context.Context, challengeID, userID string) (*progress.Calendar, error)
	Day(ctx context.Context, challengeID string, date calendar.Date, userID string, view *checkin.Cache) (*progress.DayCell, error)
	Schedule(ctx context.Context, challengeID, activityID string, r calendar.Range) ([]calendar.Date, error)
}

// CheckinLookup reads a single checkin status.
type CheckinLookup = progress.CheckinLookup

// ViewRegistry hands out the checkin cache of each view.
type ViewRegistry interface {
	Open(key string) *checkin.Cache
	Current(key string) *checkin.Cache
	Close(key string)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Sessions   SessionService
	Challenges ChallengeService
	Activities ActivityService
	Progress   ProgressService
	Checkins   CheckinLookup
	Views      ViewRegistry
	// Now overrides the clock used for default dates.
	Now func() time.Time
}

// Config contains server configuration.
type Config struct {
	Services Services
	Version  string
	Logger   *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "0.1.0"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "challengr",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(tokenMiddleware())
	server.AddReceivingMiddleware(viewMiddleware())
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, NewHandler(cfg.Services), cfg.Logger)

	return server
}
