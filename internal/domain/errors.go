package domain

import "errors"

// Task validation errors.
var (
	ErrEmptyTaskID         = errors.New("task ID cannot be empty")
	ErrEmptySourceImageRef = errors.New("source image reference cannot be empty")
	ErrInvalidStyle        = errors.New("invalid style")
	ErrEmptyProvider       = errors.New("provider cannot be empty")
	ErrInvalidTaskStatus   = errors.New("invalid task status")

	// ErrInvalidTransition is returned when a status change skips or
	// reverses a lifecycle step.
	ErrInvalidTransition = errors.New("invalid task status transition")

	// ErrFieldsMismatch is returned when a task carries fields its status
	// does not allow, or lacks fields its status requires.
	ErrFieldsMismatch = errors.New("task fields do not match status")
)
