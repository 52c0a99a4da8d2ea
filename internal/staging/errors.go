package staging

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates a staged value was rejected. Nothing was stored.
	ErrValidation = errors.New("validation failed")

	// ErrIncompatibleConstraint indicates two constraints staged for the same
	// package and dependency kind have no version in common.
	ErrIncompatibleConstraint = errors.New("incompatible version constraint")
)

// ValidationError describes why a staging call was rejected.
type ValidationError struct {
	// Field is the rejected input ("path", "package", "constraint", "command", "operation")
	Field string

	// Value is the rejected value as given by the caller
	Value string

	// Reason is a human-readable explanation
	Reason string

	// Err is an optional more specific cause
	Err error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s %q: %s: %v", e.Field, e.Value, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Unwrap exposes both ErrValidation and the specific cause to errors.Is.
func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrValidation, e.Err}
	}
	return []error{ErrValidation}
}

func invalid(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}
