package challenge

import "errors"

var (
	// ErrChallengeNotFound indicates the challenge doesn't exist.
	ErrChallengeNotFound = errors.New("challenge not found")
	// ErrInvalidInput indicates invalid challenge input.
	ErrInvalidInput = errors.New("invalid challenge input")
	// ErrNotOwner indicates only the owner may perform the operation.
	ErrNotOwner = errors.New("only the challenge owner can do that")
	// ErrAlreadyMember indicates the caller already joined the challenge.
	ErrAlreadyMember = errors.New("already a member of this challenge")
)
