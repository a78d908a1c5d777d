// Package errors provides the structured error type shared by the HTTP
// handlers and its mapping onto response status codes.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed    ErrorCode = "VALIDATION_FAILED"
	ErrCodeFileTooLarge        ErrorCode = "FILE_TOO_LARGE"
	ErrCodeFileTypeInvalid     ErrorCode = "FILE_TYPE_INVALID"
	ErrCodeStorageUploadFailed ErrorCode = "STORAGE_UPLOAD_FAILED"
	ErrCodeUpstreamRejected    ErrorCode = "UPSTREAM_REJECTED"
	ErrCodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrCodeEventPublishFailed  ErrorCode = "EVENT_PUBLISH_FAILED"
	ErrCodeCDNFetchFailed      ErrorCode = "CDN_FETCH_FAILED"
	ErrCodeRateLimited         ErrorCode = "RATE_LIMITED"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error. Message is the
// static text safe to show to a browser; Details never leaves the server.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError carries one of the static 400 messages.
func NewValidationError(message string) *StandardError {
	return newError(ErrCodeValidationFailed, message, "", false)
}

func NewFileTooLargeError(message string, size int64) *StandardError {
	return newError(ErrCodeFileTooLarge, message, fmt.Sprintf("size: %d", size), false)
}

func NewFileTypeInvalidError(message, contentType, filename string) *StandardError {
	return newError(ErrCodeFileTypeInvalid, message,
		fmt.Sprintf("contentType: %s, filename: %s", contentType, filename), false)
}

func NewStorageUploadError(err error) *StandardError {
	return newError(ErrCodeStorageUploadFailed, "Internal server error", err.Error(), true)
}

func NewUpstreamRejectedError(status int, body string) *StandardError {
	e := newError(ErrCodeUpstreamRejected, "Upstream service error",
		fmt.Sprintf("status %d: %s", status, truncate(body, 512)), status >= 500)
	return e.WithMetadata("status", status)
}

func NewUpstreamUnavailableError(err error) *StandardError {
	return newError(ErrCodeUpstreamUnavailable, "Upstream service error", err.Error(), true)
}

func NewEventPublishError(details string) *StandardError {
	return newError(ErrCodeEventPublishFailed, "Failed to publish event", details, true)
}

func NewCDNFetchError(url string, err error) *StandardError {
	return newError(ErrCodeCDNFetchFailed, "CDN fetch failed",
		fmt.Sprintf("url: %s, error: %v", url, err), true)
}

func NewRateLimitedError() *StandardError {
	return newError(ErrCodeRateLimited, "Too many requests", "", true)
}

func NewInternalError(err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return newError(ErrCodeInternal, "Internal server error", details, false)
}

// Normalize returns err as a *StandardError, wrapping unknown errors as
// INTERNAL_ERROR.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// IsCode reports whether err is a StandardError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	return errors.As(err, &stdErr) && stdErr.Code == code
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION"), strings.HasPrefix(codeStr, "FILE_"):
		return "VALIDATION"
	case strings.HasPrefix(codeStr, "UPSTREAM"):
		return "UPSTREAM"
	case strings.HasPrefix(codeStr, "STORAGE"):
		return "STORAGE"
	case strings.HasPrefix(codeStr, "EVENT"):
		return "EVENTS"
	case strings.HasPrefix(codeStr, "CDN"):
		return "CDN"
	case code == ErrCodeRateLimited:
		return "THROTTLING"
	default:
		return "INTERNAL"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
