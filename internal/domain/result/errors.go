package result

import (
	"errors"

	"github.com/ganot/report-results/internal/domain/payload"
)

var (
	// ErrRecordNotFound indicates the result doesn't exist.
	ErrRecordNotFound = errors.New("result not found")
	// ErrPayloadMissing indicates no payload has been stored for the result.
	ErrPayloadMissing = errors.New("result has no payload")
	// ErrCorruptPayload indicates the stored payload could not be decoded.
	ErrCorruptPayload = payload.ErrCorruptPayload
	// ErrInvalidInput indicates invalid input for result operations.
	ErrInvalidInput = errors.New("invalid result input")
	// ErrForbidden indicates the result is outside the caller's scope.
	ErrForbidden = errors.New("result not visible to caller")
	// ErrUnescapableTitle indicates the title cannot be placed safely in
	// document markup.
	ErrUnescapableTitle = errors.New("title cannot be escaped for document markup")
	// ErrRendererUnavailable indicates no document renderer is configured
	// or it could not be reached.
	ErrRendererUnavailable = errors.New("document renderer unavailable")
	// ErrTaskNotFound is returned by task readers when the task no longer
	// exists.
	ErrTaskNotFound = errors.New("task not found")
)
