package generation

import "errors"

// Common errors returned by prompt generators
var (
	// ErrGenerationFailed is returned when prompt generation fails for any general reason
	ErrGenerationFailed = errors.New("failed to generate prompt from image")

	// ErrInvalidResponse is returned when the LLM response is empty or malformed
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the LLM blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = errors.New("transient error during prompt generation")

	// ErrInvalidConfig is returned when the generator configuration is invalid
	ErrInvalidConfig = errors.New("invalid generator configuration")

	// ErrUnsupportedStyle is returned for a style without instructions
	ErrUnsupportedStyle = errors.New("unsupported style")

	// ErrEmptyImage is returned when no image bytes were supplied
	ErrEmptyImage = errors.New("image cannot be empty")
)
