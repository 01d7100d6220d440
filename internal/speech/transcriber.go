package speech

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	ariaerrors "aria/internal/errors"
)

// Code classifies transcription failures for the HTTP boundary.
type Code string

const (
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodePayloadTooLarge    Code = "PAYLOAD_TOO_LARGE"
	CodeUnknown            Code = "UNKNOWN"
)

// Error is the typed failure surfaced by the transcription pipeline. Upstream
// providers never leak raw errors past this type.
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a code.
func NewError(code Code, err error) *Error {
	return &Error{Code: code, Err: err}
}

// CodeOf extracts the Code from an error chain, defaulting to UNKNOWN.
func CodeOf(err error) Code {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Code
	}
	return CodeUnknown
}

// codeForStatus maps an upstream HTTP status to a failure code.
func codeForStatus(status int) Code {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return CodeInvalidCredentials
	case http.StatusTooManyRequests:
		return CodeRateLimited
	case http.StatusRequestEntityTooLarge:
		return CodePayloadTooLarge
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return CodeServiceUnavailable
	default:
		return CodeUnknown
	}
}

// HTTPStatus maps a failure code back to the status the API responds with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidCredentials:
		return http.StatusUnauthorized
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Request carries one audio clip for transcription. Language is an advisory
// hint ("auto" or empty means detect); TargetLanguage, when set, asks for a
// translated transcript as well.
type Request struct {
	Audio          []byte
	Format         string // e.g. "m4a", "wav"; informs the upstream file name
	Language       string
	TargetLanguage string
}

// Result is a best-effort transcript. Original carries the untranslated text
// when translation happened; Translated reports whether it did.
type Result struct {
	Text       string
	Original   string
	Language   string
	Translated bool
}

// Transcriber converts one audio clip to text.
type Transcriber interface {
	Transcribe(ctx context.Context, req Request) (Result, error)
}

// wrapUpstream converts a retry/transport error into a typed speech error.
func wrapUpstream(err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	if status := ariaerrors.StatusCode(err); status > 0 {
		return NewError(codeForStatus(status), err)
	}
	if ariaerrors.IsTransient(err) || errors.Is(err, context.DeadlineExceeded) {
		return NewError(CodeServiceUnavailable, err)
	}
	return NewError(CodeUnknown, err)
}
