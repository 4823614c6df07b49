package challenge

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/rpggio/challengr/internal/domain/calendar"
)

// Challenge is a named, time-boxed collection of activities and members.
type Challenge struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	StartDate   calendar.Date `json:"startDate"`
	EndDate     calendar.Date `json:"endDate"`
	OwnerID     string        `json:"ownerId,omitempty"`
	Members     []Member      `json:"members,omitempty"`
}

// Window is the challenge's active date range. An open end date is
// resolved to today.
func (c Challenge) Window(today calendar.Date) calendar.Range {
	end := c.EndDate
	if end.IsZero() {
		end = today
	}
	return calendar.Range{From: c.StartDate, To: end}
}

// IsOwner reports whether userID created the challenge.
func (c Challenge) IsOwner(userID string) bool {
	return userID != "" && c.OwnerID == userID
}

// HasMember reports whether userID is among the members.
func (c Challenge) HasMember(userID string) bool {
	for _, m := range c.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}

// JoinURL builds the invite link a member shares for this challenge.
func JoinURL(origin, challengeID string) string {
	return strings.TrimRight(origin, "/") + "/join/" + url.PathEscape(challengeID)
}

// Member references a participant of a challenge.
type Member struct {
	ID    string `json:"userId"`
	Name  string `json:"userName"`
	Email string `json:"email,omitempty"`
}

// UnmarshalJSON accepts both member shapes the API returns:
// {userId, userName} and {id, email, displayName}.
func (m *Member) UnmarshalJSON(data []byte) error {
	var w struct {
		UserID      string `json:"userId"`
		UserName    string `json:"userName"`
		ID          string `json:"id"`
		Email       string `json:"email"`
		DisplayName string `json:"displayName"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*m = Member{
		ID:    firstNonEmpty(w.UserID, w.ID),
		Name:  firstNonEmpty(w.UserName, w.DisplayName, w.Email),
		Email: w.Email,
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
