package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// These errors represent conditions callers may check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in ServiceError
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrInvalidStyle indicates an unknown style selector.
	// API layer should map this to HTTP 400 Bad Request.
	ErrInvalidStyle = errors.New("invalid style")

	// ErrEmptyImage indicates that no image bytes were supplied.
	// API layer should map this to HTTP 400 Bad Request.
	ErrEmptyImage = errors.New("image cannot be empty")

	// ErrTooManyTaskIDs indicates a status query above the batch limit.
	// API layer should map this to HTTP 400 Bad Request.
	ErrTooManyTaskIDs = errors.New("too many task ids")

	// ErrAssetNotFound indicates that a stored blob does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrAssetNotFound = errors.New("asset not found")
)

// ServiceError wraps unexpected errors from a service operation with context.
type ServiceError struct {
	// Service is the service that failed (e.g., "task")
	Service string
	// Op is the operation that failed (e.g., "create", "get_statuses")
	Op string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return e.Service + " service " + e.Op + " operation failed: " + e.Err.Error()
	}
	return e.Service + " service " + e.Op + " operation failed"
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, operation string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      operation,
		Err:     err,
	}
}
