package activity

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateCreateInput checks a creation request before it reaches the API.
func ValidateCreateInput(req CreateRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	switch req.Type {
	case TypeDaysOfWeek:
		if req.EveryNDays != 0 {
			return fmt.Errorf("%w: every_n_days is only valid for every-N-days activities", ErrInvalidInput)
		}
	case TypeEveryNDays:
		if req.EveryNDays < 1 {
			return fmt.Errorf("%w: every_n_days must be at least 1", ErrInvalidInput)
		}
		if req.DaysOfWeek != 0 || req.IntervalWeeks != 0 {
			return fmt.Errorf("%w: weekday fields are only valid for days-of-week activities", ErrInvalidInput)
		}
	}
	return nil
}

// ValidateFields checks an edit of an activity's descriptive fields.
func ValidateFields(f Fields) error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	return nil
}
