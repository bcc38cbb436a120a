package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/videosnap/internal/api/shared"
	"github.com/phrazzld/videosnap/internal/service"
	"github.com/phrazzld/videosnap/internal/store"
)

// MapErrorToStatusCode maps service errors to HTTP status codes without
// leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidStyle),
		errors.Is(err, service.ErrEmptyImage),
		errors.Is(err, service.ErrTooManyTaskIDs),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	case errors.Is(err, shared.ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge

	case errors.Is(err, service.ErrAssetNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}

// errorCode returns the stable machine code for a status.
func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return shared.CodeInvalidRequest
	case http.StatusUnauthorized:
		return shared.CodeUnauthorized
	case http.StatusNotFound:
		return shared.CodeNotFound
	case http.StatusRequestEntityTooLarge:
		return shared.CodeTooLarge
	default:
		return shared.CodeInternal
	}
}

// GetSafeErrorMessage returns a client-safe message for err.
func GetSafeErrorMessage(err error) string {
	switch {
	case err == nil:
		return "An unexpected error occurred"
	case errors.Is(err, service.ErrInvalidStyle):
		return "Invalid type: must be one of [imaginative realistic]"
	case errors.Is(err, service.ErrEmptyImage):
		return "Invalid image_base64: image cannot be empty"
	case errors.Is(err, service.ErrTooManyTaskIDs):
		return "Too many task ids"
	case errors.Is(err, shared.ErrBodyTooLarge):
		return "Request body too large"
	case errors.Is(err, service.ErrAssetNotFound):
		return "Resource not found"
	case errors.Is(err, store.ErrNotFound):
		return "Not found"
	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the error response for err. A non-empty
// userMessage replaces the default safe message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, userMessage string) {
	status := MapErrorToStatusCode(err)
	if userMessage == "" {
		userMessage = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, errorCode(status), userMessage, err)
}
