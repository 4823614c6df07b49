package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/challengr/internal/domain/calendar"
	"github.com/rpggio/challengr/internal/testserver"
	"github.com/stretchr/testify/require"
)

// 2024-03-06 is a Wednesday.
var now = time.Date(2024, 3, 6, 15, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return now }

type testEnv struct {
	ts     *testserver.TestServer
	cs     *sdkmcp.ClientSession
	userID string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ts := testserver.New(t, testserver.Options{Now: fixedNow})
	userID := ts.API.AddUser("Alex", "alex@example.com", "pw")
	cs := ts.Connect(t, ts.API.IssueToken(userID, time.Hour))
	return &testEnv{ts: ts, cs: cs, userID: userID}
}

func callTool(t *testing.T, cs *sdkmcp.ClientSession, name string, args map[string]any, out any) {
	t.Helper()
	res := call(t, cs, name, args)
	require.False(t, res.IsError, "%s failed: %s", name, text(t, res))
	if out != nil {
		require.NoError(t, json.Unmarshal([]byte(text(t, res)), out))
	}
}

func callToolError(t *testing.T, cs *sdkmcp.ClientSession, name string, args map[string]any) string {
	t.Helper()
	res := call(t, cs, name, args)
	require.True(t, res.IsError, "%s unexpectedly succeeded: %s", name, text(t, res))
	var apiErr struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &apiErr))
	return apiErr.Code
}

func call(t *testing.T, cs *sdkmcp.ClientSession, name string, args map[string]any) *sdkmcp.CallToolResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if args == nil {
		args = map[string]any{}
	}
	res, err := cs.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	return res
}

func text(t *testing.T, res *sdkmcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok, "unexpected content %T", res.Content[0])
	return tc.Text
}

type day struct {
	Date       string `json:"date"`
	Status     string `json:"status"`
	Done       int    `json:"done"`
	Total      int    `json:"total"`
	Activities []struct {
		ID   string `json:"id"`
		Done bool   `json:"done"`
	} `json:"activities"`
}

// seedChallenge creates a 2024-03-01..2024-03-14 challenge with a Mon/Wed/Fri
// activity and an every-other-day activity, both anchored on the start.
func (env *testEnv) seedChallenge(t *testing.T) (challengeID, weekly, alternate string) {
	t.Helper()
	var c struct {
		ID       string `json:"id"`
		JoinPath string `json:"join_path"`
	}
	callTool(t, env.cs, "create_challenge", map[string]any{
		"name":       "March streak",
		"start_date": "2024-03-01",
		"end_date":   "2024-03-14",
	}, &c)
	require.NotEmpty(t, c.ID)
	require.Equal(t, "/join/"+c.ID, c.JoinPath)

	var a struct {
		ID       string `json:"id"`
		Weekdays string `json:"weekdays"`
	}
	callTool(t, env.cs, "create_activity", map[string]any{
		"challenge_id": c.ID,
		"name":         "Run",
		"recurrence":   "days_of_week",
		"weekdays":     []string{"mon", "wed", "fri"},
		"anchor":       "2024-03-01",
	}, &a)
	require.Equal(t, "mon,wed,fri", a.Weekdays)
	weekly = a.ID

	callTool(t, env.cs, "create_activity", map[string]any{
		"challenge_id": c.ID,
		"name":         "Stretch",
		"recurrence":   "every_n_days",
		"every_n_days": 2,
		"anchor":       "2024-03-01",
	}, &a)
	alternate = a.ID
	return c.ID, weekly, alternate
}

func TestIntegration_PreviewSchedule(t *testing.T) {
	env := setupTestEnv(t)
	cid, weekly, alternate := env.seedChallenge(t)

	var sched struct {
		Dates []string `json:"dates"`
	}
	callTool(t, env.cs, "preview_schedule", map[string]any{
		"challenge_id": cid,
		"activity_id":  weekly,
		"from":         "2024-03-01",
		"to":           "2024-03-10",
	}, &sched)
	require.Equal(t, []string{"2024-03-01", "2024-03-04", "2024-03-06", "2024-03-08"}, sched.Dates)

	callTool(t, env.cs, "preview_schedule", map[string]any{
		"challenge_id": cid,
		"activity_id":  alternate,
		"from":         "2024-02-20",
		"to":           "2024-03-07",
	}, &sched)
	// Dates before the challenge starts are never scheduled.
	require.Equal(t, []string{"2024-03-01", "2024-03-03", "2024-03-05", "2024-03-07"}, sched.Dates)

	require.Equal(t, "ACTIVITY_NOT_FOUND", callToolError(t, env.cs, "preview_schedule", map[string]any{
		"challenge_id": cid,
		"activity_id":  "missing",
	}))
	require.Equal(t, "INVALID_DATE", callToolError(t, env.cs, "preview_schedule", map[string]any{
		"challenge_id": cid,
		"activity_id":  weekly,
		"from":         "03/01/2024",
	}))
}

func TestIntegration_DayAndToggle(t *testing.T) {
	env := setupTestEnv(t)
	cid, weekly, alternate := env.seedChallenge(t)
	first := calendar.MustParse("2024-03-01")
	env.ts.API.SetCheckin(env.userID, weekly, first)

	var d day
	callTool(t, env.cs, "get_day", map[string]any{"challenge_id": cid, "date": "2024-03-01"}, &d)
	require.Equal(t, "in_progress", d.Status)
	require.Equal(t, 1, d.Done)
	require.Equal(t, 2, d.Total)

	var toggled struct {
		Checked bool `json:"checked"`
	}
	callTool(t, env.cs, "toggle_checkin", map[string]any{
		"challenge_id": cid,
		"activity_id":  alternate,
		"date":         "2024-03-01",
	}, &toggled)
	require.True(t, toggled.Checked)
	require.True(t, env.ts.API.Checked(env.userID, alternate, first))

	callTool(t, env.cs, "get_day", map[string]any{"challenge_id": cid, "date": "2024-03-01"}, &d)
	require.Equal(t, "complete", d.Status)
	require.Equal(t, 2, d.Done)

	callTool(t, env.cs, "toggle_checkin", map[string]any{
		"challenge_id": cid,
		"activity_id":  weekly,
		"date":         "2024-03-01",
	}, &toggled)
	require.False(t, toggled.Checked)
	require.False(t, env.ts.API.Checked(env.userID, weekly, first))

	// Tuesday has only the alternate activity due; today is the default.
	callTool(t, env.cs, "get_day", map[string]any{"challenge_id": cid, "date": "2024-03-05"}, &d)
	require.Equal(t, "not_started", d.Status)
	require.Len(t, d.Activities, 1)
	require.Equal(t, alternate, d.Activities[0].ID)

	callTool(t, env.cs, "get_day", map[string]any{"challenge_id": cid}, &d)
	require.Equal(t, "2024-03-06", d.Date)
	require.Equal(t, 1, d.Total)

	callTool(t, env.cs, "get_day", map[string]any{"challenge_id": cid, "date": "2024-02-28"}, &d)
	require.Equal(t, "empty", d.Status)
}

func TestIntegration_MemberDayDoesNotLeakIntoToggle(t *testing.T) {
	env := setupTestEnv(t)
	cid, weekly, _ := env.seedChallenge(t)
	wednesday := calendar.MustParse("2024-03-06")

	boID := env.ts.API.AddUser("Bo", "bo@example.com", "pw")
	bo := env.ts.Connect(t, env.ts.API.IssueToken(boID, time.Hour))
	callTool(t, bo, "join_challenge", map[string]any{"challenge_id": cid}, nil)
	callTool(t, bo, "toggle_checkin", map[string]any{
		"challenge_id": cid,
		"activity_id":  weekly,
		"date":         "2024-03-06",
	}, nil)
	require.True(t, env.ts.API.Checked(boID, weekly, wednesday))

	var d day
	callTool(t, env.cs, "get_day", map[string]any{"challenge_id": cid, "user_id": boID}, &d)
	require.Equal(t, 1, d.Done)
	require.Equal(t, "complete", d.Status)

	var toggled struct {
		Checked bool `json:"checked"`
	}
	callTool(t, env.cs, "toggle_checkin", map[string]any{
		"challenge_id": cid,
		"activity_id":  weekly,
		"date":         "2024-03-06",
	}, &toggled)
	require.True(t, toggled.Checked)
	require.True(t, env.ts.API.Checked(env.userID, weekly, wednesday))
	require.True(t, env.ts.API.Checked(boID, weekly, wednesday))

	callTool(t, env.cs, "get_day", map[string]any{"challenge_id": cid}, &d)
	require.Equal(t, 1, d.Done)
}

func TestIntegration_ToggleOutsideWindowRejected(t *testing.T) {
	env := setupTestEnv(t)
	cid, weekly, _ := env.seedChallenge(t)

	for _, date := range []string{"2024-02-28", "2024-03-15"} {
		require.Equal(t, "INVALID_INPUT", callToolError(t, env.cs, "toggle_checkin", map[string]any{
			"challenge_id": cid,
			"activity_id":  weekly,
			"date":         date,
		}))
	}
	require.Zero(t, env.ts.API.Calls(http.MethodPost, "/api/activities/{id}/checkins"))
}

func TestIntegration_ToggleRollsBackOnRemoteFailure(t *testing.T) {
	env := setupTestEnv(t)
	cid, weekly, _ := env.seedChallenge(t)

	var d day
	callTool(t, env.cs, "get_day", map[string]any{"challenge_id": cid, "date": "2024-03-04"}, &d)
	require.Equal(t, "not_started", d.Status)

	env.ts.API.FailNext(http.MethodPost, "/api/activities/{id}/checkins", http.StatusServiceUnavailable)
	require.Equal(t, "REMOTE_UNAVAILABLE", callToolError(t, env.cs, "toggle_checkin", map[string]any{
		"challenge_id": cid,
		"activity_id":  weekly,
		"date":         "2024-03-04",
	}))
	require.False(t, env.ts.API.Checked(env.userID, weekly, calendar.MustParse("2024-03-04")))

	// The rolled back entry toggles from its previous value.
	var toggled struct {
		Checked bool `json:"checked"`
	}
	callTool(t, env.cs, "toggle_checkin", map[string]any{
		"challenge_id": cid,
		"activity_id":  weekly,
		"date":         "2024-03-04",
	}, &toggled)
	require.True(t, toggled.Checked)
	require.True(t, env.ts.API.Checked(env.userID, weekly, calendar.MustParse("2024-03-04")))
}

func TestIntegration_Calendar(t *testing.T) {
	env := setupTestEnv(t)
	cid, weekly, alternate := env.seedChallenge(t)
	env.ts.API.SetCheckin(env.userID, weekly, calendar.MustParse("2024-03-01"))
	env.ts.API.SetCheckin(env.userID, alternate, calendar.MustParse("2024-03-01"))
	env.ts.API.SetCheckin(env.userID, alternate, calendar.MustParse("2024-03-03"))

	var cal struct {
		Name  string `json:"name"`
		Range struct {
			From string `json:"from"`
			To   string `json:"to"`
		} `json:"range"`
		Days []day `json:"days"`
	}
	callTool(t, env.cs, "get_calendar", map[string]any{"challenge_id": cid}, &cal)
	require.Equal(t, "March streak", cal.Name)
	require.Equal(t, "2024-03-01", cal.Range.From)
	require.Equal(t, "2024-03-14", cal.Range.To)
	require.Len(t, cal.Days, 14)

	byDate := map[string]day{}
	for _, d := range cal.Days {
		byDate[d.Date] = d
	}
	require.Equal(t, "complete", byDate["2024-03-01"].Status)
	require.Equal(t, "empty", byDate["2024-03-02"].Status)
	require.Equal(t, "complete", byDate["2024-03-03"].Status)
	require.Equal(t, "not_started", byDate["2024-03-04"].Status)
	require.Equal(t, 2, byDate["2024-03-13"].Total)
}

func TestIntegration_ViewsPerSession(t *testing.T) {
	env := setupTestEnv(t)
	cid, _, _ := env.seedChallenge(t)
	other := env.ts.Connect(t, env.ts.API.IssueToken(env.userID, time.Hour))

	callTool(t, env.cs, "get_day", map[string]any{"challenge_id": cid, "date": "2024-03-01"}, nil)
	callTool(t, other, "get_day", map[string]any{"challenge_id": cid, "date": "2024-03-04"}, nil)
	require.Equal(t, 2, env.ts.Views.Len())

	callTool(t, other, "logout", nil, nil)
	require.Equal(t, 1, env.ts.Views.Len())
}

func TestIntegration_MetricsAndHealth(t *testing.T) {
	env := setupTestEnv(t)
	env.seedChallenge(t)

	resp, err := http.Get(env.ts.Server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "challengr_api_requests_total")
	require.Contains(t, string(body), "challengr_api_request_duration_seconds")

	health, err := http.Get(env.ts.Server.URL + "/health")
	require.NoError(t, err)
	health.Body.Close()
	require.Equal(t, http.StatusOK, health.StatusCode)
}
