// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")

	// Input errors.
	ErrInvalidInput = errors.New("invalid input")

	// Pipeline errors. ErrArtifactNotLoaded and ErrDimensionMismatch are
	// structural (bad or mismatched model artifacts) and must never be
	// retried; they abort process initialization or the whole request.
	ErrArtifactNotLoaded = errors.New("model artifact not loaded")
	ErrDimensionMismatch = errors.New("feature dimension mismatch")

	// Generative service errors.
	ErrExplanationUnavailable = errors.New("explanation unavailable")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	// Structural pipeline errors indicate misconfiguration, never retry.
	if errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrArtifactNotLoaded) ||
		errors.Is(err, ErrDimensionMismatch) {
		return false
	}

	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
