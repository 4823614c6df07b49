package mcp

import (
	"context"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/challengr/internal/domain/session"
)

type contextKey int

const viewKeyKey contextKey = iota

// defaultViewKey names the single view of a stdio connection.
const defaultViewKey = "default"

// getViewKey extracts the view key from context.
func getViewKey(ctx context.Context) string {
	if v, _ := ctx.Value(viewKeyKey).(string); v != "" {
		return v
	}
	return defaultViewKey
}

// tokenMiddleware attaches the request's bearer token, if any, to the
// context so remote calls act as that user instead of the stored login.
func tokenMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if token := bearerToken(req); token != "" {
				ctx = session.WithToken(ctx, token)
			}
			return next(ctx, method, req)
		}
	}
}

func bearerToken(req sdkmcp.Request) string {
	if req == nil {
		return ""
	}
	extra := req.GetExtra()
	if extra == nil || extra.Header == nil {
		return ""
	}
	auth := extra.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

// viewMiddleware picks the key of the checkin view a request works on:
// the Mcp-Session-Id header (HTTP), _meta.session_id (stdio clients that
// set it) or the SDK session ID.
func viewMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			var key string

			extra := req.GetExtra()
			if extra != nil && extra.Header != nil {
				key = extra.Header.Get("Mcp-Session-Id")
			}

			// Notifications like "initialized" carry nil params.
			if key == "" {
				if params := req.GetParams(); params != nil {
					func() {
						defer func() { recover() }()
						if meta := params.GetMeta(); meta != nil {
							if sid, ok := meta["session_id"].(string); ok {
								key = sid
							}
						}
					}()
				}
			}

			if key == "" {
				key = safeSessionID(req)
			}
			if key != "" {
				ctx = context.WithValue(ctx, viewKeyKey, key)
			}

			return next(ctx, method, req)
		}
	}
}
