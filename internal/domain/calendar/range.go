package calendar

import "fmt"

// DefaultMaxDays bounds rendered calendar windows to six weeks.
const DefaultMaxDays = 42

// Range is an inclusive span of dates. A zero bound leaves that side open.
type Range struct {
	From Date `json:"from"`
	To   Date `json:"to"`
}

// NewRange validates and returns the inclusive range [from, to].
func NewRange(from, to Date) (Range, error) {
	if from.IsZero() || to.IsZero() {
		return Range{}, fmt.Errorf("%w: both bounds required", ErrInvalidRange)
	}
	if to.Before(from) {
		return Range{}, fmt.Errorf("%w: %s is before %s", ErrInvalidRange, to, from)
	}
	return Range{From: from, To: to}, nil
}

// Len is the inclusive number of days in r, or 0 when r is inverted or open.
func (r Range) Len() int {
	if r.From.IsZero() || r.To.IsZero() {
		return 0
	}
	n := DaysBetween(r.From, r.To) + 1
	if n < 0 {
		return 0
	}
	return n
}

// Days lists every date of a closed range in ascending order.
func (r Range) Days() []Date {
	n := r.Len()
	if n == 0 {
		return nil
	}
	out := make([]Date, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, AddDays(r.From, i))
	}
	return out
}

// Contains reports whether d falls inside r. Open bounds always pass.
func (r Range) Contains(d Date) bool {
	if !r.From.IsZero() && d.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && d.After(r.To) {
		return false
	}
	return true
}

// ClampRange bounds [start, end] to at most maxDays days, keeping the most
// recent part. The result never starts before start and always ends at end.
// Spans that already fit, including inverted ones, are returned unchanged.
func ClampRange(start, end Date, maxDays int) Range {
	if maxDays < 1 {
		maxDays = 1
	}
	span := DaysBetween(start, end) + 1
	if span <= maxDays {
		return Range{From: start, To: end}
	}
	from := AddDays(end, -(maxDays - 1))
	if from.Before(start) {
		from = start
	}
	return Range{From: from, To: end}
}
