package mcp

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/challengr/internal/domain/checkin"
	"github.com/rpggio/challengr/internal/domain/session"
	"github.com/stretchr/testify/require"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestTrafficLogging_RedactsCredentials(t *testing.T) {
	logs := &lockedBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	sessions := loggedIn()
	sessions.loginFn = func(context.Context, session.LoginRequest) (*session.Session, error) {
		return &session.Session{UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}, nil
	}
	server := NewServer(Config{
		Services: Services{Sessions: sessions, Views: checkin.NewViews(nil, nil)},
		Logger:   logger,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer ss.Close()
	cs, err := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil).Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer cs.Close()

	res, err := cs.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "login",
		Arguments: map[string]any{"email": "ana@example.com", "password": "hunter2"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	res, err = cs.CallTool(ctx, &sdkmcp.CallToolParams{Name: "toggle_checkin", Arguments: map[string]any{"date": "2024-03-01"}})
	require.NoError(t, err)
	require.True(t, res.IsError)

	var traffic []string
	for _, line := range strings.Split(logs.String(), "\n") {
		if strings.Contains(line, "mcp traffic") {
			traffic = append(traffic, line)
		}
	}
	out := strings.Join(traffic, "\n")
	require.Contains(t, out, "tool=login")
	require.Contains(t, out, "tool=toggle_checkin")
	require.Contains(t, out, "tool_error=true")
	require.NotContains(t, out, "hunter2")
	require.NotContains(t, out, "ana@example.com")
}

func TestFormatPayload_Truncates(t *testing.T) {
	out := formatPayload(strings.Repeat("x", maxLoggedPayload*2))
	require.True(t, strings.HasSuffix(out, "...(truncated)"))
	require.Len(t, out, maxLoggedPayload+len("...(truncated)"))
	require.Equal(t, "null", formatPayload(nil))
}
