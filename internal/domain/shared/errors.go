// Package shared contains common domain types, errors, and events that are
// used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrValueOutOfRange = errors.New("value out of range")

	// State errors
	ErrConflict        = errors.New("conflict with current state")
	ErrStateTransition = errors.New("invalid state transition")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// External service errors
	ErrUnavailable = errors.New("service unavailable")
	ErrTimeout     = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "session", "user", "friendship"
	Op      string // Operation that failed, e.g., "Start", "Complete"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Session domain errors
var (
	ErrSessionNotFound      = NewDomainError("session", "Find", ErrNotFound, "session not found or already completed")
	ErrActiveSessionExists  = NewDomainError("session", "Start", ErrConflict, "active session already exists")
	ErrInvalidDuration      = NewDomainError("session", "Validate", ErrValueOutOfRange, "duration must be between 1 and 480 minutes")
	ErrSessionNotOwned      = NewDomainError("session", "Complete", ErrNotFound, "session does not belong to caller")
	ErrSessionAlreadyClosed = NewDomainError("session", "Complete", ErrNotFound, "session already completed")
)

// User domain errors
var (
	ErrUserNotFound      = NewDomainError("user", "Find", ErrNotFound, "user not found")
	ErrUserAlreadyExists = NewDomainError("user", "Create", ErrAlreadyExists, "user already exists")
	ErrInvalidEmail      = NewDomainError("user", "Validate", ErrInvalidInput, "invalid email address")
	ErrWrongCredentials  = NewDomainError("user", "Authenticate", ErrUnauthorized, "invalid email or password")
)

// Achievement domain errors
var (
	ErrAchievementNotFound = NewDomainError("achievement", "Find", ErrNotFound, "achievement not found")
	ErrAchievementExists   = NewDomainError("achievement", "Create", ErrAlreadyExists, "achievement with this name already exists")
)

// Friendship domain errors
var (
	ErrFriendshipNotFound  = NewDomainError("friendship", "Find", ErrNotFound, "friendship not found")
	ErrSelfFriendship      = NewDomainError("friendship", "Request", ErrInvalidInput, "cannot add yourself as a friend")
	ErrAlreadyFriends      = NewDomainError("friendship", "Request", ErrConflict, "already friends with this user")
	ErrRequestAlreadySent  = NewDomainError("friendship", "Request", ErrConflict, "friend request already sent")
	ErrRequestAlreadyInbox = NewDomainError("friendship", "Request", ErrConflict, "friend request already received")
	ErrUserBlocked         = NewDomainError("friendship", "Request", ErrForbidden, "cannot add blocked user")
)

// Campus domain errors
var (
	ErrUniversityNotFound = NewDomainError("campus", "Find", ErrNotFound, "university not found")
	ErrCampusNotFound     = NewDomainError("campus", "Find", ErrNotFound, "campus not found")
)

// Auth errors
var (
	ErrRefreshTokenInvalid = NewDomainError("auth", "Refresh", ErrUnauthorized, "refresh token expired or invalid")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if the error is a conflict or duplicate error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsUnavailable checks if the error indicates a transiently unreachable
// backing service and the operation can be retried.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrTimeout)
}
