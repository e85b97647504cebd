package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/chengzhnag/taskboard/internal/domain"
	"github.com/chengzhnag/taskboard/internal/service"
	"github.com/chengzhnag/taskboard/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var batchErr *service.BatchPartialFailureError

	switch {
	// Not found errors
	case store.IsNotFoundError(err):
		return http.StatusNotFound

	// Conflict errors
	case store.IsDuplicateError(err):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, service.ErrNoValidQuestions),
		errors.Is(err, service.ErrMissingRecipient),
		errors.Is(err, service.ErrMissingSubject),
		errors.Is(err, service.ErrMissingBody),
		errors.As(err, &batchErr),
		isDomainValidationError(err):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message based
// on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var batchErr *service.BatchPartialFailureError

	switch {
	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, store.ErrCategoryNotFound):
		return "Category not found"

	case errors.Is(err, store.ErrQuestionNotFound):
		return "Question not found"

	case errors.Is(err, store.ErrTaskIDExists):
		return "A task with this id already exists"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	case errors.Is(err, service.ErrNoValidQuestions):
		return "No valid questions in batch"

	case errors.Is(err, service.ErrMissingRecipient),
		errors.Is(err, service.ErrMissingSubject),
		errors.Is(err, service.ErrMissingBody):
		return err.Error()

	case errors.As(err, &batchErr):
		return batchErr.Error()

	case isDomainValidationError(err):
		// Domain validation messages name only the missing field.
		return err.Error()

	default:
		return "An unexpected error occurred"
	}
}

// isDomainValidationError reports whether the error is one of the domain's
// field-level validation failures, all safe to echo verbatim.
func isDomainValidationError(err error) bool {
	for _, target := range []error{
		domain.ErrValidation,
		domain.ErrInvalidCronExpression,
		domain.ErrInvalidOptions,
		domain.ErrEmptyTaskTitle,
		domain.ErrEmptyTaskType,
		domain.ErrEmptyFrequencyType,
		domain.ErrMissingCronExpression,
		domain.ErrMissingSpecificDate,
		domain.ErrMissingScript,
		domain.ErrEmptyCategoryName,
		domain.ErrEmptyQuestionContent,
		domain.ErrEmptyQuestionType,
		domain.ErrEmptyCorrectAnswer,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// SanitizeValidationError removes sensitive details from validator errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		// Example: "Key: 'CreateTaskRequest.Title' Error:Field validation for 'Title' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
