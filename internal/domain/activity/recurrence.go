package activity

import "github.com/rpggio/challengr/internal/domain/calendar"

// WeekFunc numbers weeks for interval alignment.
type WeekFunc func(calendar.Date) int

// Evaluator decides whether activities are due on a date.
type Evaluator struct {
	// Weeks numbers weeks for DaysOfWeek intervals. Nil uses
	// calendar.EpochWeekIndex; calendar.WeekIndex restarts every year.
	Weeks WeekFunc
}

// WeekAlignment names a week numbering scheme.
type WeekAlignment string

const (
	AlignEpoch WeekAlignment = "epoch"
	AlignYear  WeekAlignment = "year"
)

// NewEvaluator returns an evaluator for the named week alignment.
// Unknown names use epoch alignment.
func NewEvaluator(alignment WeekAlignment) Evaluator {
	if alignment == AlignYear {
		return Evaluator{Weeks: calendar.WeekIndex}
	}
	return Evaluator{Weeks: calendar.EpochWeekIndex}
}

// IsDue reports whether a is due on target using epoch week alignment.
func IsDue(a Activity, target calendar.Date) bool {
	return Evaluator{}.IsDue(a, target)
}

// IsDue reports whether a is due on target. It never fails: absent or
// out-of-range rule fields take their documented defaults.
func (e Evaluator) IsDue(a Activity, target calendar.Date) bool {
	if a.Recurrence == nil {
		return true
	}
	weeks := e.Weeks
	if weeks == nil {
		weeks = calendar.EpochWeekIndex
	}
	anchor := a.Anchor
	if anchor.IsZero() {
		anchor = target
	}
	return a.Recurrence.due(anchor, target, weeks)
}

// DueDates lists the dates of r on which a is due.
func (e Evaluator) DueDates(a Activity, r calendar.Range) []calendar.Date {
	var out []calendar.Date
	for _, d := range r.Days() {
		if e.IsDue(a, d) {
			out = append(out, d)
		}
	}
	return out
}

func (r DaysOfWeek) due(anchor, target calendar.Date, weeks WeekFunc) bool {
	if r.Mask == 0 {
		return true
	}
	if !r.Mask.Has(calendar.DayBit(target)) {
		return false
	}
	interval := r.IntervalWeeks
	if interval < 1 {
		interval = 1
	}
	return calendar.Mod(weeks(target)-weeks(anchor), interval) == 0
}

func (r EveryNDays) due(anchor, target calendar.Date, _ WeekFunc) bool {
	n := r.N
	if n < 1 {
		n = 1
	}
	diff := calendar.DaysBetween(anchor, target)
	return diff >= 0 && diff%n == 0
}
