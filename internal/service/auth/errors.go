package auth

import "errors"

// Common authentication errors
var (
	// ErrMissingAPIKey indicates a request carried no API key
	ErrMissingAPIKey = errors.New("api key is missing")

	// ErrInvalidAPIKey indicates the supplied key does not match the configured hash
	ErrInvalidAPIKey = errors.New("invalid api key")

	// ErrInvalidHash indicates the configured hash is not a bcrypt hash
	ErrInvalidHash = errors.New("invalid api key hash")
)
