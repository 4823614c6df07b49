package activity

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rpggio/challengr/internal/domain/calendar"
)

// RecurrenceType is the wire code of a recurrence rule.
type RecurrenceType int

const (
	TypeNone       RecurrenceType = 0
	TypeDaysOfWeek RecurrenceType = 1
	TypeEveryNDays RecurrenceType = 2
)

func (t RecurrenceType) String() string {
	switch t {
	case TypeDaysOfWeek:
		return "days_of_week"
	case TypeEveryNDays:
		return "every_n_days"
	default:
		return "daily"
	}
}

// Weekdays is a 7-bit set, bit 0 = Monday … bit 6 = Sunday.
type Weekdays uint8

const (
	Monday Weekdays = 1 << iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday

	AllWeekdays = Monday | Tuesday | Wednesday | Thursday | Friday | Saturday | Sunday
)

var weekdayNames = [7]string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// Has reports whether the mask includes the given day bit.
func (w Weekdays) Has(bit int) bool {
	return int(w)&bit != 0
}

func (w Weekdays) String() string {
	if w == 0 {
		return "every day"
	}
	var names []string
	for i, name := range weekdayNames {
		if w&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, ",")
}

// ParseWeekdays turns names like "mon", "Tue" or "sunday" into a mask.
func ParseWeekdays(names []string) (Weekdays, error) {
	var mask Weekdays
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		found := false
		for i, short := range weekdayNames {
			if name != "" && strings.HasPrefix(name, short) {
				mask |= 1 << i
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("%w: unknown weekday %q", ErrInvalidInput, raw)
		}
	}
	return mask, nil
}

// Recurrence decides which dates an activity is due on. Implementations are
// DaysOfWeek and EveryNDays; a nil Recurrence means every day.
type Recurrence interface {
	Type() RecurrenceType
	due(anchor, target calendar.Date, weeks WeekFunc) bool
}

// DaysOfWeek recurs on the masked weekdays of every IntervalWeeks-th week.
// A zero mask means every day of every week; an IntervalWeeks below 1 means 1.
type DaysOfWeek struct {
	Mask          Weekdays
	IntervalWeeks int
}

func (DaysOfWeek) Type() RecurrenceType { return TypeDaysOfWeek }

// EveryNDays recurs every N days from the anchor. N below 1 means 1.
type EveryNDays struct {
	N int
}

func (EveryNDays) Type() RecurrenceType { return TypeEveryNDays }

// Activity is a recurring task belonging to a challenge.
type Activity struct {
	ID          string
	ChallengeID string
	Name        string
	Description string
	Icon        string
	Recurrence  Recurrence
	// Anchor is the reference date for interval alignment. When zero, the
	// evaluated date anchors itself.
	Anchor calendar.Date
}

// RecurrenceType returns the wire code of a's rule.
func (a Activity) RecurrenceType() RecurrenceType {
	if a.Recurrence == nil {
		return TypeNone
	}
	return a.Recurrence.Type()
}

// wireActivity is the remote API shape: a type code plus nullable per-type fields.
type wireActivity struct {
	ID                 string         `json:"id,omitempty"`
	ChallengeID        string         `json:"challengeId,omitempty"`
	Name               string         `json:"name"`
	Description        string         `json:"description,omitempty"`
	Icon               *string        `json:"icon"`
	RecurrenceType     RecurrenceType `json:"recurrenceType"`
	DaysOfWeekMask     *int           `json:"daysOfWeekMask"`
	IntervalWeeks      *int           `json:"intervalWeeks"`
	EveryNDays         *int           `json:"everyNDays"`
	ScheduleAnchorDate calendar.Date  `json:"scheduleAnchorDate"`
}

// MarshalJSON writes the remote API representation, populating only the
// field group of the active recurrence type.
func (a Activity) MarshalJSON() ([]byte, error) {
	w := wireActivity{
		ID:                 a.ID,
		ChallengeID:        a.ChallengeID,
		Name:               a.Name,
		Description:        a.Description,
		RecurrenceType:     a.RecurrenceType(),
		ScheduleAnchorDate: a.Anchor,
	}
	if a.Icon != "" {
		w.Icon = &a.Icon
	}
	switch r := a.Recurrence.(type) {
	case DaysOfWeek:
		mask := int(r.Mask)
		interval := r.IntervalWeeks
		if interval < 1 {
			interval = 1
		}
		w.DaysOfWeekMask = &mask
		w.IntervalWeeks = &interval
	case EveryNDays:
		n := r.N
		if n < 1 {
			n = 1
		}
		w.EveryNDays = &n
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads the remote API representation. Missing or malformed
// numeric fields fall back to their defaults; unknown type codes decode as
// an every-day activity. A malformed anchor date is an error.
func (a *Activity) UnmarshalJSON(data []byte) error {
	var w wireActivity
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*a = Activity{
		ID:          w.ID,
		ChallengeID: w.ChallengeID,
		Name:        w.Name,
		Description: w.Description,
		Anchor:      w.ScheduleAnchorDate,
	}
	if w.Icon != nil {
		a.Icon = *w.Icon
	}
	switch w.RecurrenceType {
	case TypeDaysOfWeek:
		a.Recurrence = DaysOfWeek{
			Mask:          Weekdays(intOr(w.DaysOfWeekMask, 0) & int(AllWeekdays)),
			IntervalWeeks: intOr(w.IntervalWeeks, 1),
		}
	case TypeEveryNDays:
		a.Recurrence = EveryNDays{N: intOr(w.EveryNDays, 1)}
	}
	return nil
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
