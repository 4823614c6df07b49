package calendar

import "errors"

var (
	// ErrInvalidDate indicates a malformed ISO date string.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidRange indicates a range whose end precedes its start.
	ErrInvalidRange = errors.New("invalid date range")
)
