package session

import "errors"

var (
	// ErrUnauthenticated indicates there is no valid session; the caller must log in.
	ErrUnauthenticated = errors.New("not logged in or session expired")
	// ErrInvalidCredentials indicates the remote service rejected the login.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidToken indicates a token that is not a readable JWT.
	ErrInvalidToken = errors.New("malformed session token")
	// ErrInvalidInput indicates invalid login or registration input.
	ErrInvalidInput = errors.New("invalid session input")
)
