package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt cost used when generating API key hashes.
const HashCost = 12

// KeyVerifier checks a presented API key.
type KeyVerifier interface {
	// Verify returns nil when key matches, ErrMissingAPIKey when key is
	// empty and ErrInvalidAPIKey otherwise.
	Verify(key string) error
}

// BcryptVerifier verifies API keys against a single bcrypt hash.
type BcryptVerifier struct {
	hash []byte
}

var _ KeyVerifier = (*BcryptVerifier)(nil)

// NewBcryptVerifier creates a verifier for the given bcrypt hash.
func NewBcryptVerifier(hash string) (*BcryptVerifier, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	return &BcryptVerifier{hash: []byte(hash)}, nil
}

// Verify implements KeyVerifier.
func (v *BcryptVerifier) Verify(key string) error {
	if key == "" {
		return ErrMissingAPIKey
	}
	err := bcrypt.CompareHashAndPassword(v.hash, []byte(key))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidAPIKey
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAPIKey, err)
	}
	return nil
}

// HashKey returns the bcrypt hash of key.
func HashKey(key string) (string, error) {
	if key == "" {
		return "", ErrMissingAPIKey
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), HashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash api key: %w", err)
	}
	return string(hash), nil
}
