package mcp

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rpggio/challengr/internal/api"
	"github.com/rpggio/challengr/internal/domain/activity"
	"github.com/rpggio/challengr/internal/domain/calendar"
	"github.com/rpggio/challengr/internal/domain/challenge"
	"github.com/rpggio/challengr/internal/domain/checkin"
	"github.com/rpggio/challengr/internal/domain/session"
	"github.com/rpggio/challengr/internal/repository"
)

// errInvalidParams marks tool arguments that could not be decoded.
var errInvalidParams = errors.New("invalid tool arguments")

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes. Errors with no specific
// code map to INTERNAL with the original message.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, session.ErrUnauthenticated), errors.Is(err, repository.ErrUnauthorized):
		return &APIError{Code: "UNAUTHENTICATED", Message: "not logged in or session expired", RecoveryHint: "Call login first"}
	case errors.Is(err, session.ErrInvalidCredentials):
		return &APIError{Code: "INVALID_CREDENTIALS", Message: "invalid email or password"}
	case errors.Is(err, challenge.ErrNotOwner), errors.Is(err, repository.ErrForbidden):
		return &APIError{Code: "FORBIDDEN", Message: "only the challenge owner can do this"}
	case errors.Is(err, challenge.ErrAlreadyMember):
		return &APIError{Code: "ALREADY_MEMBER", Message: "already a member of this challenge"}
	case errors.Is(err, challenge.ErrChallengeNotFound), errors.Is(err, activity.ErrChallengeNotFound):
		return &APIError{Code: "CHALLENGE_NOT_FOUND", Message: "challenge not found", RecoveryHint: "Call list_challenges for valid IDs"}
	case errors.Is(err, activity.ErrActivityNotFound):
		return &APIError{Code: "ACTIVITY_NOT_FOUND", Message: "activity not found", RecoveryHint: "Call list_activities for valid IDs"}
	case errors.Is(err, repository.ErrNotFound):
		return &APIError{Code: "NOT_FOUND", Message: "not found"}
	case errors.Is(err, calendar.ErrInvalidDate), errors.Is(err, calendar.ErrInvalidRange):
		return &APIError{Code: "INVALID_DATE", Message: err.Error(), RecoveryHint: "Use YYYY-MM-DD dates"}
	case errors.Is(err, errInvalidParams),
		errors.Is(err, challenge.ErrInvalidInput),
		errors.Is(err, activity.ErrInvalidInput),
		errors.Is(err, session.ErrInvalidInput),
		errors.Is(err, repository.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, checkin.ErrClosed):
		return &APIError{Code: "VIEW_CLOSED", Message: "the day view was replaced", RecoveryHint: "Call get_day again"}
	}
	var statusErr *api.StatusError
	if errors.As(err, &statusErr) {
		code := "REMOTE_ERROR"
		if statusErr.Code >= http.StatusInternalServerError {
			code = "REMOTE_UNAVAILABLE"
		}
		return &APIError{Code: code, Message: statusErr.Error(), Details: map[string]any{"status": statusErr.Code}}
	}
	return &APIError{Code: "INTERNAL", Message: err.Error()}
}
