package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolDefinition describes one tool and its JSON input schema.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

func str(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func object(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

var challengeIDProp = str("Challenge ID")

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		// Session
		{
			Name:        "login",
			Description: "Log in to the challenge service and remember the session",
			InputSchema: object(map[string]any{
				"email":    str("Account email"),
				"password": str("Account password"),
			}, "email", "password"),
		},
		{
			Name:        "register",
			Description: "Create an account; log in afterwards",
			InputSchema: object(map[string]any{
				"name":     str("Display name"),
				"email":    str("Account email"),
				"password": str("Password, at least 6 characters"),
			}, "name", "email", "password"),
		},
		{
			Name:        "logout",
			Description: "Forget the stored session",
			InputSchema: object(map[string]any{}),
		},
		{
			Name:        "whoami",
			Description: "Show the logged-in user and when the session expires",
			InputSchema: object(map[string]any{}),
		},

		// Challenges
		{
			Name:        "list_challenges",
			Description: "List the challenges you own or have joined",
			InputSchema: object(map[string]any{}),
		},
		{
			Name:        "get_challenge",
			Description: "Get a challenge with its members",
			InputSchema: object(map[string]any{"challenge_id": challengeIDProp}, "challenge_id"),
		},
		{
			Name:        "create_challenge",
			Description: "Create a challenge; start_date defaults to today and an omitted end_date leaves it open",
			InputSchema: object(map[string]any{
				"name":        str("Challenge name"),
				"description": str("Challenge description"),
				"start_date":  str("First day, YYYY-MM-DD"),
				"end_date":    str("Last day, YYYY-MM-DD"),
			}, "name"),
		},
		{
			Name:        "update_challenge",
			Description: "Rename a challenge or change its description (owner only)",
			InputSchema: object(map[string]any{
				"challenge_id": challengeIDProp,
				"name":         str("New name"),
				"description":  str("New description"),
			}, "challenge_id", "name"),
		},
		{
			Name:        "delete_challenge",
			Description: "Delete a challenge (owner only)",
			InputSchema: object(map[string]any{"challenge_id": challengeIDProp}, "challenge_id"),
		},
		{
			Name:        "leave_challenge",
			Description: "Leave a challenge you joined",
			InputSchema: object(map[string]any{"challenge_id": challengeIDProp}, "challenge_id"),
		},
		{
			Name:        "join_challenge",
			Description: "Join a challenge from its invite link ID",
			InputSchema: object(map[string]any{"challenge_id": challengeIDProp}, "challenge_id"),
		},

		// Activities
		{
			Name:        "list_activities",
			Description: "List the activities of a challenge with their recurrence rules",
			InputSchema: object(map[string]any{"challenge_id": challengeIDProp}, "challenge_id"),
		},
		{
			Name:        "create_activity",
			Description: "Add a recurring activity to a challenge. The recurrence cannot be changed later",
			InputSchema: object(map[string]any{
				"challenge_id": challengeIDProp,
				"name":         str("Activity name"),
				"description":  str("Activity description"),
				"icon":         str("Icon name"),
				"recurrence": map[string]any{
					"type":        "string",
					"description": "Recurrence rule",
					"enum":        []string{"days_of_week", "every_n_days"},
				},
				"weekdays": map[string]any{
					"type":        "array",
					"description": "Weekdays for days_of_week (mon..sun); empty means every day",
					"items":       map[string]any{"type": "string"},
				},
				"interval_weeks": map[string]any{
					"type":        "integer",
					"description": "Repeat every N weeks for days_of_week (default 1)",
				},
				"every_n_days": map[string]any{
					"type":        "integer",
					"description": "Period in days for every_n_days",
				},
				"anchor": str("Date the interval counts from, YYYY-MM-DD (default today)"),
			}, "challenge_id", "name", "recurrence"),
		},
		{
			Name:        "update_activity",
			Description: "Change an activity's name, description or icon",
			InputSchema: object(map[string]any{
				"activity_id": str("Activity ID"),
				"name":        str("New name"),
				"description": str("New description"),
				"icon":        str("New icon"),
			}, "activity_id", "name"),
		},
		{
			Name:        "preview_schedule",
			Description: "List the dates an activity is due within the challenge window",
			InputSchema: object(map[string]any{
				"challenge_id": challengeIDProp,
				"activity_id":  str("Activity ID"),
				"from":         str("First date, YYYY-MM-DD (default today)"),
				"to":           str("Last date, YYYY-MM-DD (default four weeks on)"),
			}, "challenge_id", "activity_id"),
		},

		// Progress
		{
			Name:        "get_day",
			Description: "Show the activities scheduled on a day and which are checked in; opens a new day view",
			InputSchema: object(map[string]any{
				"challenge_id": challengeIDProp,
				"date":         str("Day, YYYY-MM-DD (default today)"),
				"user_id":      str("Member to show (default you)"),
			}, "challenge_id"),
		},
		{
			Name:        "toggle_checkin",
			Description: "Check in or undo a checkin for one of your activities on a day",
			InputSchema: object(map[string]any{
				"challenge_id": challengeIDProp,
				"activity_id":  str("Activity ID"),
				"date":         str("Day, YYYY-MM-DD"),
			}, "challenge_id", "activity_id", "date"),
		},
		{
			Name:        "get_calendar",
			Description: "Show progress per day for the most recent weeks of a challenge",
			InputSchema: object(map[string]any{
				"challenge_id": challengeIDProp,
				"user_id":      str("Member to show (default you)"),
			}, "challenge_id"),
		},
	}
}

func registerTools(server *sdkmcp.Server, h *Handler, logger *slog.Logger) {
	for _, def := range buildToolCatalog() {
		name := def.Name
		server.AddTool(&sdkmcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
			var args json.RawMessage
			if req != nil && req.Params != nil {
				args = req.Params.Arguments
			}
			result, err := h.Handle(ctx, getViewKey(ctx), name, args)
			if err != nil {
				return toolError(logger, name, err), nil
			}
			return toolResult(result)
		})
	}
}

func toolResult(v any) (*sdkmcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil
}

func toolError(logger *slog.Logger, tool string, err error) *sdkmcp.CallToolResult {
	apiErr := MapError(err)
	if logger != nil {
		level := slog.LevelDebug
		if apiErr.Code == "INTERNAL" || apiErr.Code == "REMOTE_UNAVAILABLE" {
			level = slog.LevelWarn
		}
		logger.Log(context.Background(), level, "tool failed", "tool", tool, "code", apiErr.Code, "error", err)
	}
	data, _ := json.Marshal(apiErr)
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}
}
