// Package errors provides standardized domain errors that express business intent
// rather than infrastructure details. These errors should be used by use cases
// and mapped to appropriate HTTP status codes by handlers.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Standard domain errors that can be used across all domain modules.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (e.g., duplicate key).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates the request lacks valid authentication credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the authenticated user doesn't have permission.
	ErrForbidden = errors.New("forbidden")

	// ErrOffline indicates the remote side is unreachable or the session is signed out.
	// Callers are expected to degrade to local-only behavior.
	ErrOffline = errors.New("offline")

	// ErrTimeout indicates a store or gateway call exceeded its time bound.
	ErrTimeout = errors.New("timeout")

	// ErrGatewayUnavailable indicates a transport or technical failure talking to the fiscal gateway.
	ErrGatewayUnavailable = errors.New("gateway unavailable")

	// ErrLimitExceeded indicates a retry budget has been exhausted.
	ErrLimitExceeded = errors.New("limit exceeded")

	// ErrInvalidTransition indicates a state machine rejected the requested move.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// New creates a new error with the given message.
// This is a convenience wrapper around errors.New for consistency.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
// Use this to add context at each layer without losing the original error type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// FromContext converts context cancellation into the domain taxonomy.
// A deadline becomes ErrTimeout; any other error is returned unchanged.
func FromContext(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

// IsTransient reports whether err is worth retrying later (offline or timeout).
func IsTransient(err error) bool {
	return errors.Is(err, ErrOffline) || errors.Is(err, ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrGatewayUnavailable)
}
