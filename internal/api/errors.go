package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Common API errors
var (
	// ErrTransport is returned when the backend could not be reached or did not
	// answer with an envelope.
	ErrTransport = errors.New("backend unreachable")

	// ErrApplication is returned when the backend answered success: false.
	ErrApplication = errors.New("backend rejected the request")

	// ErrNotFound matches application errors with a 404 status.
	ErrNotFound = errors.New("not found")

	errEmptyData = errors.New("response carried no data")
)

// TransportError describes a network or protocol failure.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("api: %s: %s returned %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("api: %s: %s: %v", e.Op, e.URL, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is matches ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// APIError carries the message of a success: false envelope.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("api: %s: %s", e.Op, msg)
}

// Is matches ErrApplication, and ErrNotFound for 404 responses.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrApplication:
		return true
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// UserMessage returns the text to show for err: the backend message for
// application errors, a generic line for transport errors.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, ErrTransport) {
		return "Could not reach the billing backend. Check BILLGEN_API_URL and try again."
	}
	return err.Error()
}
