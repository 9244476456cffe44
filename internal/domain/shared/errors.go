// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
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
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrFutureTimestamp = errors.New("timestamp cannot be in the future")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")
	ErrTerminalState   = errors.New("entity is in a terminal state")
	ErrExpired         = errors.New("expired")

	// Expected-outcome sentinels. These are named results, not failures:
	// callers branch on them instead of reporting them as errors.
	ErrInsufficientSignal = errors.New("insufficient signal")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrOptimisticLock         = errors.New("optimistic lock failure")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "participation", "alert", "intervention"
	Op      string // Operation that failed, e.g., "ComputeProgress", "Resolve"
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

// ValidationError describes malformed or inconsistent input data.
// Field names the offending attribute so the caller can decide whether
// to drop the record or abort the whole batch.
type ValidationError struct {
	Domain  string
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: validation failed on %q: %s", e.Domain, e.Field, e.Message)
}

// Is makes the error match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return errors.Is(ErrValidation, target)
}

// NewValidationError creates a ValidationError naming the offending field.
func NewValidationError(domain, field, message string) *ValidationError {
	return &ValidationError{Domain: domain, Field: field, Message: message}
}

// InvalidStateTransition describes a lifecycle transition that is not
// permitted from the entity's current state. The engine refuses such calls
// instead of coercing state; the caller renders it as actionable feedback.
type InvalidStateTransition struct {
	Domain string
	From   string
	To     string
}

// Error implements the error interface.
func (e *InvalidStateTransition) Error() string {
	return fmt.Sprintf("%s: invalid state transition %s -> %s", e.Domain, e.From, e.To)
}

// Is makes the error match ErrStateTransition.
func (e *InvalidStateTransition) Is(target error) bool {
	return errors.Is(ErrStateTransition, target)
}

// NewInvalidStateTransition creates an InvalidStateTransition error.
func NewInvalidStateTransition(domain, from, to string) *InvalidStateTransition {
	return &InvalidStateTransition{Domain: domain, From: from, To: to}
}

// Participation domain errors
var (
	ErrParticipationNotFound = NewDomainError("participation", "Find", ErrNotFound, "participation not found")
	ErrParticipationTerminal = NewDomainError("participation", "Mutate", ErrTerminalState, "participation is in a terminal status")
	ErrInvalidParticipantID  = NewDomainError("participation", "Validate", ErrInvalidID, "invalid participant ID")
	ErrInvalidCompetitionID  = NewDomainError("participation", "Validate", ErrInvalidID, "invalid competition ID")
)

// Milestone domain errors
var (
	ErrMilestoneNotFound      = NewDomainError("milestone", "Find", ErrNotFound, "milestone not found")
	ErrInvalidMilestoneTarget = NewDomainError("milestone", "Validate", ErrValueOutOfRange, "milestone target must be positive")
)

// Leaderboard domain errors
var (
	ErrLeaderboardNotFound = NewDomainError("leaderboard", "Find", ErrNotFound, "leaderboard not found")
	ErrSnapshotNotFound    = NewDomainError("leaderboard", "FindSnapshot", ErrNotFound, "snapshot not found")
)

// Alert domain errors
var (
	ErrAlertNotFound = NewDomainError("alert", "Find", ErrNotFound, "alert not found")
)

// Intervention domain errors
var (
	ErrInterventionNotFound = NewDomainError("intervention", "Find", ErrNotFound, "intervention not found")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsStateTransition checks if the error is an invalid state transition.
func IsStateTransition(err error) bool {
	return errors.Is(err, ErrStateTransition)
}

// IsInsufficientSignal reports whether the result is the expected
// "not enough data" outcome. UIs must not render it as a failure.
func IsInsufficientSignal(err error) bool {
	return errors.Is(err, ErrInsufficientSignal)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification)
}
