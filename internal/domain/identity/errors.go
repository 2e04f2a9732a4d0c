package identity

import "errors"

var (
	// ErrUnauthorized indicates a missing or unknown credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUserNotFound indicates the user doesn't exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrGroupNotFound indicates the group doesn't exist.
	ErrGroupNotFound = errors.New("group not found")
	// ErrInvalidInput indicates invalid identity input.
	ErrInvalidInput = errors.New("invalid identity input")
)
