package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// TransientError marks an upstream failure that is worth retrying.
type TransientError struct {
	Err        error
	StatusCode int // HTTP status code if applicable
	RetryAfter int // seconds from a Retry-After header, 0 if absent
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// PermanentError marks a failure that must not be retried, such as rejected
// credentials or an invalid request.
type PermanentError struct {
	Err        error
	StatusCode int
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// DegradedError carries a usable partial result alongside the failure. The
// transcription pipeline uses it when translation fails but the transcript
// itself is fine.
type DegradedError struct {
	Err      error
	Fallback string // partial content that is still usable
}

func (e *DegradedError) Error() string {
	return fmt.Sprintf("degraded: %v", e.Err)
}

func (e *DegradedError) Unwrap() error {
	return e.Err
}

// Transient wraps err with an optional HTTP status.
func Transient(err error, status int) *TransientError {
	return &TransientError{Err: err, StatusCode: status}
}

// Permanent wraps err with an optional HTTP status.
func Permanent(err error, status int) *PermanentError {
	return &PermanentError{Err: err, StatusCode: status}
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var transient *TransientError
	if errors.As(err, &transient) {
		return true
	}
	var permanent *PermanentError
	if errors.As(err, &permanent) {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		// The caller's deadline owns this failure; retrying inside it is futile.
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	if status := StatusCode(err); status > 0 {
		return isTransientStatus(status)
	}

	return false
}

// IsDegraded reports whether err allows continuing with a partial result.
func IsDegraded(err error) bool {
	var degraded *DegradedError
	return errors.As(err, &degraded)
}

// StatusCode extracts the HTTP status carried by a wrapped error chain,
// returning 0 when none is present.
func StatusCode(err error) int {
	var transient *TransientError
	if errors.As(err, &transient) {
		return transient.StatusCode
	}
	var permanent *PermanentError
	if errors.As(err, &permanent) {
		return permanent.StatusCode
	}
	return 0
}

func isTransientStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// FromHTTPStatus classifies an upstream HTTP failure into a transient or
// permanent error.
func FromHTTPStatus(status int, err error) error {
	if isTransientStatus(status) {
		return &TransientError{Err: err, StatusCode: status}
	}
	return &PermanentError{Err: err, StatusCode: status}
}
