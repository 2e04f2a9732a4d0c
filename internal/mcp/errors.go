package mcp

import (
	"errors"
	"fmt"

	"github.com/ganot/report-results/internal/domain/activity"
	"github.com/ganot/report-results/internal/domain/definition"
	"github.com/ganot/report-results/internal/domain/result"
	"github.com/ganot/report-results/internal/repository"
)

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

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, result.ErrRecordNotFound):
		return &APIError{Code: "RESULT_NOT_FOUND", Message: "result not found", RecoveryHint: "Check ID spelling or use list_results"}
	case errors.Is(err, result.ErrForbidden):
		return &APIError{Code: "FORBIDDEN", Message: "result is outside your groups"}
	case errors.Is(err, result.ErrPayloadMissing):
		return &APIError{Code: "PAYLOAD_MISSING", Message: "result has no stored payload", RecoveryHint: "Check result_status; the task may still be running"}
	case errors.Is(err, result.ErrCorruptPayload):
		return &APIError{Code: "PAYLOAD_CORRUPT", Message: "stored payload cannot be read", RecoveryHint: "Regenerate the result"}
	case errors.Is(err, result.ErrUnescapableTitle):
		return &APIError{Code: "UNPRINTABLE_TITLE", Message: "title cannot be placed in a document", RecoveryHint: "Remove control characters from the report title"}
	case errors.Is(err, result.ErrRendererUnavailable):
		return &APIError{Code: "RENDERER_UNAVAILABLE", Message: "document renderer is unavailable", RecoveryHint: "Retry later"}
	case errors.Is(err, result.ErrInvalidInput), errors.Is(err, definition.ErrInvalidInput), errors.Is(err, activity.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, definition.ErrDefinitionNotFound):
		return &APIError{Code: "DEFINITION_NOT_FOUND", Message: "report definition not found", RecoveryHint: "Use list_definitions"}
	case errors.Is(err, repository.ErrConflict):
		return &APIError{Code: "CONFLICT", Message: "an entity with this ID already exists"}
	case errors.Is(err, repository.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	default:
		return nil
	}
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
