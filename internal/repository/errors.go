package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when the remote API rejects the credentials
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller lacks permission for the entity
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is returned when the remote state disagrees with the request
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput is returned when the remote API rejects the payload
	ErrInvalidInput = errors.New("invalid input")
)
