package progress

import (
	"github.com/rpggio/challengr/internal/domain/activity"
	"github.com/rpggio/challengr/internal/domain/calendar"
)

// Status classifies a day for display.
type Status string

const (
	StatusEmpty      Status = "empty"
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusComplete   Status = "complete"
)

// Classify derives the display status from done and total counts.
func Classify(done, total int) Status {
	switch {
	case total <= 0:
		return StatusEmpty
	case done <= 0:
		return StatusNotStarted
	case done < total:
		return StatusInProgress
	default:
		return StatusComplete
	}
}

// CompletedFunc reports whether an activity was completed on a date.
type CompletedFunc func(activityID string, date calendar.Date) bool

// DayCell is the aggregate of one calendar day.
type DayCell struct {
	Date      calendar.Date       `json:"date"`
	Scheduled []activity.Activity `json:"scheduled"`
	Completed []string            `json:"completed"`
	Done      int                 `json:"done"`
	Total     int                 `json:"total"`
	Status    Status              `json:"status"`
}

// Aggregator builds day cells with a given recurrence evaluator.
type Aggregator struct {
	Evaluator activity.Evaluator
}

// Aggregate uses epoch week alignment.
func Aggregate(dates []calendar.Date, acts []activity.Activity, window calendar.Range, completed CompletedFunc) []DayCell {
	return Aggregator{}.Aggregate(dates, acts, window, completed)
}

// Aggregate builds one cell per date, in order. Dates outside window have
// nothing scheduled whatever the recurrence rules say; a zero window bound
// leaves that side open. A nil completed counts nothing as done.
func (g Aggregator) Aggregate(dates []calendar.Date, acts []activity.Activity, window calendar.Range, completed CompletedFunc) []DayCell {
	cells := make([]DayCell, 0, len(dates))
	for _, d := range dates {
		cell := DayCell{Date: d, Scheduled: []activity.Activity{}, Completed: []string{}}
		if window.Contains(d) {
			cell.Scheduled = g.Scheduled(acts, d)
		}
		for _, a := range cell.Scheduled {
			if completed != nil && completed(a.ID, d) {
				cell.Completed = append(cell.Completed, a.ID)
			}
		}
		cell.Total = len(cell.Scheduled)
		cell.Done = len(cell.Completed)
		cell.Status = Classify(cell.Done, cell.Total)
		cells = append(cells, cell)
	}
	return cells
}

// Scheduled filters acts to those due on d.
func (g Aggregator) Scheduled(acts []activity.Activity, d calendar.Date) []activity.Activity {
	out := []activity.Activity{}
	for _, a := range acts {
		if g.Evaluator.IsDue(a, d) {
			out = append(out, a)
		}
	}
	return out
}
