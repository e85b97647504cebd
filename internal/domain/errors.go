// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition is returned when a task status transition is not
	// permitted by the lifecycle state machine.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidCronExpression is returned when a cron expression fails to parse.
	ErrInvalidCronExpression = errors.New("invalid cron expression")

	// ErrInvalidOptions is returned when question options cannot be encoded as JSON.
	ErrInvalidOptions = errors.New("invalid question options")
)
