/*
errors.go - Error types shared by the rental domain

ERROR CATEGORIES:
  1. Validation  - malformed input, rejected before any derivation runs
  2. Transition  - a state machine refused a named action
  3. Store       - missing records, conflicting writes
  4. Access      - actor lacks the capability for a write

Derivations never return errors for dangling references; they substitute
UnknownLabel instead. Unauthorized reads yield empty results, not errors.

SEE ALSO:
  - lifecycle.go: produces TransitionError
  - api/handlers.go: maps these onto HTTP status codes
*/
package rental

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is wrapped by every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced record doesn't exist or is
	// outside the actor's scope.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned when a state machine rejects an action.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrConflict is returned for uniqueness violations and guarded deletes.
	ErrConflict = errors.New("conflict")

	// ErrForbidden is returned when the actor's role lacks a capability.
	ErrForbidden = errors.New("forbidden")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError identifies the offending input field.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// TransitionError reports an action attempted from a state that doesn't allow it.
type TransitionError struct {
	Entity string
	ID     string
	From   string
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s %s: cannot %s from %s", e.Entity, e.ID, e.Action, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ConflictError carries the clashing key (chassis number, email, ...).
type ConflictError struct {
	Entity string
	Key    string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Entity, e.Key, e.Reason)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrConflict)
}

func IsNotFound(err error) bool  { return errors.Is(err, ErrNotFound) }
func IsForbidden(err error) bool { return errors.Is(err, ErrForbidden) }
