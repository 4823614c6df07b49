package testserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rpggio/challengr/internal/api"
	"github.com/rpggio/challengr/internal/domain/activity"
	"github.com/rpggio/challengr/internal/domain/challenge"
	"github.com/rpggio/challengr/internal/domain/checkin"
	"github.com/rpggio/challengr/internal/domain/progress"
	"github.com/rpggio/challengr/internal/domain/session"
	"github.com/rpggio/challengr/internal/mcp"
	"github.com/rpggio/challengr/internal/sqlite"
	"github.com/rpggio/challengr/internal/transport"
	"github.com/stretchr/testify/require"
)

// TestServer is the full MCP HTTP stack backed by a FakeAPI.
type TestServer struct {
	Server   *httptest.Server
	API      *FakeAPI
	DB       *sqlite.DB
	Views    *checkin.Views
	Registry *prometheus.Registry
}

// Options tune a TestServer.
type Options struct {
	AuthEnabled bool
	Now         func() time.Time
	MaxDays     int
}

// New starts a TestServer that is closed with the test.
func New(t *testing.T, opts Options) *TestServer {
	t.Helper()

	fake := NewFakeAPI(t)

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	reg := prometheus.NewRegistry()
	client := api.NewClient(api.Options{BaseURL: fake.URL(), Metrics: api.NewMetrics(reg)})
	sessionSvc := session.NewService(api.NewAuthRepository(client), sqlite.NewTokenRepository(db, ""), nil)
	client.SetTokenSource(sessionSvc)

	challengeRepo := api.NewChallengeRepository(client)
	activityRepo := api.NewActivityRepository(client)
	checkinRepo := api.NewCheckinRepository(client)

	views := checkin.NewViews(checkinRepo, nil)
	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Sessions:   sessionSvc,
			Challenges: challenge.NewService(challengeRepo, nil),
			Activities: activity.NewService(activityRepo, nil),
			Progress: progress.NewService(challengeRepo, activityRepo, checkinRepo, progress.Options{
				MaxDays:           opts.MaxDays,
				LookupConcurrency: 4,
				Now:               opts.Now,
			}, nil),
			Checkins: checkinRepo,
			Views:    views,
			Now:      opts.Now,
		},
	})

	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: time.Minute},
	)
	var auth func(http.Handler) http.Handler
	if opts.AuthEnabled {
		auth = transport.AuthMiddleware(transport.SessionTokens{Now: opts.Now})
	}
	server := httptest.NewServer(transport.NewServer(transport.Options{
		MCP:     mcpHandler,
		Auth:    auth,
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Health:  db.PingContext,
	}))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return &TestServer{
		Server:   server,
		API:      fake,
		DB:       db,
		Views:    views,
		Registry: reg,
	}
}

// Connect opens an MCP client session over HTTP. A non-empty token is sent
// as a bearer token on every request.
func (ts *TestServer) Connect(t *testing.T, token string) *sdkmcp.ClientSession {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	httpClient := &http.Client{Transport: bearerTransport{token: token, next: http.DefaultTransport}}
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	cs, err := client.Connect(ctx, &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: httpClient,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

type bearerTransport struct {
	token string
	next  http.RoundTripper
}

func (b bearerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if b.token == "" {
		return b.next.RoundTrip(r)
	}
	r = r.Clone(r.Context())
	r.Header.Set("Authorization", "Bearer "+b.token)
	return b.next.RoundTrip(r)
}
