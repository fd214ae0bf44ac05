package invoice

import (
	"errors"
	"fmt"
	"strings"
)

// Common invoice errors
var (
	// ErrValidation is returned when a draft, customer or service is rejected
	// before it is submitted to the backend.
	ErrValidation = errors.New("validation failed")

	// ErrTotalMismatch is returned when a bill's authoritative total differs from
	// the sum of its line totals.
	ErrTotalMismatch = errors.New("bill total does not match its items")

	// ErrEmptyItems is returned when a draft has no line items.
	ErrEmptyItems = errors.New("at least one service item is required")
)

// ComputationError wraps errors with context about the bill being computed.
type ComputationError struct {
	// Op is the operation that failed (e.g., "CheckTotal").
	Op string

	// BillNumber identifies the bill (if available).
	BillNumber string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *ComputationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("invoice: %s failed for %s: %s: %v", e.Op, e.BillNumber, e.Details, e.Err)
	}
	return fmt.Sprintf("invoice: %s failed for %s: %v", e.Op, e.BillNumber, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ComputationError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *ComputationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// ValidationError represents one rejected field.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string

	// Err is an optional sentinel describing the failure (e.g. ErrEmptyItems).
	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap returns the sentinel, if any.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ValidationErrors collects every rejected field of one submission.
type ValidationErrors []*ValidationError

// Error implements the error interface.
func (ve ValidationErrors) Error() string {
	msgs := make([]string, 0, len(ve))
	for _, e := range ve {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// Is makes ValidationErrors match ErrValidation and any field's sentinel.
func (ve ValidationErrors) Is(target error) bool {
	if target == ErrValidation {
		return true
	}
	for _, e := range ve {
		if errors.Is(e, target) {
			return true
		}
	}
	return false
}

// Fields returns the names of the rejected fields in order.
func (ve ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(ve))
	for _, e := range ve {
		fields = append(fields, e.Field)
	}
	return fields
}
