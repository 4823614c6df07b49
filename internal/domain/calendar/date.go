package calendar

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Layout is the ISO calendar date format used at every boundary.
const Layout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// Date is a calendar date without a time of day, held at UTC midnight.
// The zero value means "no date".
type Date struct {
	t time.Time
}

// NewDate returns the date for the given year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime returns the UTC calendar date of t.
func FromTime(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

// Today returns the current UTC date according to now.
func Today(now func() time.Time) Date {
	if now == nil {
		now = time.Now
	}
	return FromTime(now())
}

// Parse parses "YYYY-MM-DD". A trailing time part starting with 'T' is
// accepted and discarded, since the remote API sometimes sends timestamps.
func Parse(s string) (Date, error) {
	raw := strings.TrimSpace(s)
	if i := strings.IndexByte(raw, 'T'); i == len(Layout) {
		raw = raw[:i]
	}
	t, err := time.Parse(Layout, raw)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{t: t}, nil
}

// MustParse is Parse for literals; it panics on malformed input.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// IsZero reports whether d is the absent date.
func (d Date) IsZero() bool { return d.t.IsZero() }

// Time returns d as a UTC midnight timestamp.
func (d Date) Time() time.Time { return d.t }

// String formats d as "YYYY-MM-DD", or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(Layout)
}

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }

// Compare returns -1, 0 or +1.
func (d Date) Compare(o Date) int { return d.t.Compare(o.t) }

// MarshalJSON encodes d as "YYYY-MM-DD", or null when zero.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts an ISO date string, "" or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, data)
	}
	if strings.TrimSpace(s) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DayOfWeekIndex maps d to a Monday-origin weekday: Monday=0 … Sunday=6.
func DayOfWeekIndex(d Date) int {
	return (int(d.t.Weekday()) + 6) % 7
}

// DayBit returns the days-of-week mask bit for d.
func DayBit(d Date) int {
	return 1 << DayOfWeekIndex(d)
}

// WeekIndex numbers Monday-bounded weeks within d's year. Week 0 holds
// January 1st. The count restarts every year.
func WeekIndex(d Date) int {
	yearStart := NewDate(d.t.Year(), time.January, 1)
	days := DaysBetween(yearStart, d)
	return (days + DayOfWeekIndex(yearStart)) / 7
}

// EpochWeekIndex numbers Monday-bounded weeks continuously across years.
// Within one year the difference between two indexes equals the
// WeekIndex difference.
func EpochWeekIndex(d Date) int {
	// 1970-01-01 was a Thursday, three days after the week's Monday.
	return floorDiv(daysSinceEpoch(d)+3, 7)
}

// AddDays returns d shifted by n calendar days.
func AddDays(d Date, n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// DaysBetween returns the whole number of days from a to b (b - a).
func DaysBetween(a, b Date) int {
	return daysSinceEpoch(b) - daysSinceEpoch(a)
}

func daysSinceEpoch(d Date) int {
	return int(floorDiv64(d.t.Unix(), secondsPerDay))
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorDiv64(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Mod returns a modulo n normalized to [0, n).
func Mod(a, n int) int {
	return ((a % n) + n) % n
}
