package render

import (
	"errors"
	"fmt"
)

// ErrRenderFailed is returned when a document could not be produced.
var ErrRenderFailed = errors.New("failed to render invoice")

// RenderError wraps errors with context about the bill being rendered.
type RenderError struct {
	// Op is the operation that failed (e.g., "Render").
	Op string

	// BillNumber identifies the bill (if available).
	BillNumber string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	if e.BillNumber == "" {
		return fmt.Sprintf("render: %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("render: %s failed for %s: %v", e.Op, e.BillNumber, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *RenderError) Unwrap() error {
	return e.Err
}

// Is reports ErrRenderFailed for every RenderError, plus whatever the wrapped
// error matches.
func (e *RenderError) Is(target error) bool {
	return target == ErrRenderFailed || errors.Is(e.Err, target)
}
