package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `challengr tracks habit challenges: Challenges → Activities → daily Checkins.

Core concepts:
- Challenge: a named window of days (start_date..end_date, end may be open = "through today") with members.
- Activity: a recurring task in a challenge. Its recurrence is fixed at creation:
  days_of_week (weekday set + every N weeks) or every_n_days (every N days from the anchor).
- Checkin: you completed an activity on a date. Only dates inside the challenge window count.
- Day view: get_day opens a view for your session; toggle_checkin works against the latest view.

Default workflow:
1) login (once; the session is remembered until it expires).
2) list_challenges → get_challenge / list_activities.
3) get_day for today's checklist, then toggle_checkin for each completed activity.
4) get_calendar for progress over the last weeks (at most six weeks are shown).

Dates are always YYYY-MM-DD.

Docs:
- challengr://docs/recurrence (exact due-date rules)
- challengr://docs/progress (day status and calendar window)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "challengr://docs/recurrence",
		Name:        "docs_recurrence",
		Title:       "Recurrence rules",
		Description: "When an activity is due: weekday sets, week intervals and every-N-days periods.",
		Content: `# Recurrence rules

Every activity has an anchor date (default: the day it was created).

## days_of_week

- ` + "`weekdays`" + ` selects Monday..Sunday. An empty set means every day.
- ` + "`interval_weeks`" + ` N (default 1): due only in weeks 0, N, 2N, ... counted from the anchor's week.
- Weeks start on Monday and are counted continuously across year boundaries, so a
  fortnightly activity never skips or doubles at New Year.
- Weeks before the anchor's week line up the same way (the offset is taken modulo N).

## every_n_days

- Due on the anchor and every N days after it (N >= 1).
- Never due before the anchor.

## No recurrence

Activities created by other clients without a rule are due every day.

Use ` + "`preview_schedule`" + ` to list due dates before relying on a rule.
`,
	},
	{
		URI:         "challengr://docs/progress",
		Name:        "docs_progress",
		Title:       "Progress and calendar",
		Description: "Day status classification and how the calendar window is chosen.",
		Content: `# Progress and calendar

## Day status

For each day, ` + "`total`" + ` is the number of activities due and ` + "`done`" + ` how many have a checkin.

| total | done | status |
|---|---|---|
| 0 | - | empty |
| > 0 | 0 | not_started |
| > 0 | 0 < done < total | in_progress |
| > 0 | done = total | complete |

Days outside the challenge window are always ` + "`empty`" + `.

## Calendar window

` + "`get_calendar`" + ` shows the most recent days of the challenge: it ends at the challenge's
end date (today for open challenges) and goes back at most six weeks, never before the start date.

Checkin lookups that fail count as not done; the rest of the calendar is still shown.

## Toggling

` + "`toggle_checkin`" + ` flips the checkin at once. If the service rejects the change the flip is
undone and the error returned; nothing is retried automatically.
Only dates inside the challenge window can be toggled, and only your own checkins.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
