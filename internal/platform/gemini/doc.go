// Package gemini provides an implementation of the generation.PromptGenerator
// interface backed by Google's Gemini API.
//
// The image is prepared (oriented, bounded, re-encoded) by the generation
// package, sent inline next to the style instruction, and the first candidate's
// text becomes the video prompt. Transient API failures (HTTP 429 and 5xx) are
// retried with exponential backoff; safety blocks and empty answers are not.
package gemini
