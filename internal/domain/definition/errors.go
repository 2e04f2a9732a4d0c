package definition

import "errors"

var (
	// ErrDefinitionNotFound indicates the report definition doesn't exist.
	ErrDefinitionNotFound = errors.New("report definition not found")
	// ErrInvalidInput indicates invalid definition input.
	ErrInvalidInput = errors.New("invalid report definition input")
)
