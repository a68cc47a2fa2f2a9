// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Missing identity token, invalid parameters or configuration
//   - Transport errors (200-299): Stream dial failures, dropped connections, failed requests
//   - Decode errors (300-399): Malformed stream frames and response bodies
//   - Service errors (400-499): Errors reported by the trading service
//   - Session errors (500-599): Session start, stop and reconcile failures
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeMissingToken, "identity token is required")
//
//	// Create a formatted error
//	err := errors.Newf(errors.ErrCodeInvalidSessionMode, "unsupported session mode %s", mode)
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeDialFailed, "failed to dial stream", originalErr)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeMissingToken) { ... }
package errors

import (
	"errors"
	"fmt"

	"github.com/moznion/go-optional"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// ServiceError is an error reported by the trading service, either as a
// non-2xx control response or as an "error" message on the stream.
type ServiceError struct {
	StatusCode   int                 // HTTP status, 0 when the error came from the stream
	ErrorCode    string              // Service error code, e.g. RATE_LIMIT
	Message      string              // Human-readable message
	Advice       string              // Optional user guidance for ErrorCode
	RetryMinutes optional.Option[int] // Set when the service asked the caller to wait
}

// NewServiceError creates a new ServiceError.
func NewServiceError(statusCode int, errorCode, message string) *ServiceError {
	return &ServiceError{
		StatusCode:   statusCode,
		ErrorCode:    errorCode,
		Message:      message,
		Advice:       "",
		RetryMinutes: optional.None[int](),
	}
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "service error"
	}

	if e.ErrorCode != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.ErrorCode)
	}

	if e.StatusCode != 0 {
		msg = fmt.Sprintf("[%d] %s", e.StatusCode, msg)
	}

	return msg
}

// IsServiceError checks if an error is a ServiceError.
func IsServiceError(err error) bool {
	var serviceErr *ServiceError

	return errors.As(err, &serviceErr)
}

// AsServiceError returns the first ServiceError in err's chain.
func AsServiceError(err error) (*ServiceError, bool) {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr, true
	}

	return nil, false
}

// DecodeError is returned when an inbound stream frame cannot be decoded.
// Decode errors are counted and dropped by the stream supervisor.
type DecodeError struct {
	Code  ErrorCode
	Frame string
	Cause error
}

// NewDecodeError creates a new DecodeError. The frame is truncated to keep log lines short.
func NewDecodeError(code ErrorCode, frame []byte, cause error) *DecodeError {
	const maxFrame = 256

	text := string(frame)
	if len(text) > maxFrame {
		text = text[:maxFrame]
	}

	return &DecodeError{
		Code:  code,
		Frame: text,
		Cause: cause,
	}
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] failed to decode frame: %v", e.Code, e.Cause)
	}

	return fmt.Sprintf("[%d] failed to decode frame", e.Code)
}

// Unwrap returns the underlying error cause.
func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// IsDecodeError checks if an error is a DecodeError.
func IsDecodeError(err error) bool {
	var decodeErr *DecodeError

	return errors.As(err, &decodeErr)
}
