package services

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services for stable HTTP mapping.
var (
	// ErrNotFound indicates the referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredentials covers every authentication failure; callers
	// must not be able to tell which part of the credential was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken covers every token failure (malformed, expired,
	// mis-signed) uniformly.
	ErrInvalidToken = errors.New("invalid token")

	// ErrValidation indicates missing or malformed required input.
	ErrValidation = errors.New("validation error")

	// ErrConflict indicates a user-facing uniqueness violation.
	ErrConflict = errors.New("conflict")

	// ErrForbidden indicates the caller lacks the required authorization.
	ErrForbidden = errors.New("forbidden")

	// ErrIDExhausted indicates the bounded identifier-generation loop ran
	// out of attempts. Operational anomaly, surfaced as a server error.
	ErrIDExhausted = errors.New("identifier generation exhausted")
)

// missingField wraps ErrValidation naming the absent field.
func missingField(field string) error {
	return fmt.Errorf("%w: %s is required", ErrValidation, field)
}
