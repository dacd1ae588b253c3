// Package errors defines the application error type shared by services, adapters and handlers.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates a conflict with existing data (e.g., unique constraint violation).
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeUnauthorized indicates missing or invalid credentials.
	ErrCodeUnauthorized ErrorCode = "unauthorized"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeUpstream indicates a collaborator returned something we could not use.
	ErrCodeUpstream ErrorCode = "upstream"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// PublicCode is the fixed set of codes shown to users and returned by the auth and profile APIs.
type PublicCode string

const (
	PublicUnexpected     PublicCode = "ERR_UNEXPECTED_ERROR"
	PublicSignupRejected PublicCode = "ERR_SIGNUP_REJECTED"
	PublicUsernameTaken  PublicCode = "ERR_USERNAME_TAKEN"
)

// ParsePublicCode maps a wire code to a PublicCode. Unknown codes become PublicUnexpected.
func ParsePublicCode(s string) PublicCode {
	switch PublicCode(s) {
	case PublicSignupRejected, PublicUsernameTaken:
		return PublicCode(s)
	default:
		return PublicUnexpected
	}
}

// Message is the user-facing text for the code.
func (c PublicCode) Message() string {
	switch c {
	case PublicSignupRejected:
		return "We couldn't create an account with those details."
	case PublicUsernameTaken:
		return "That username is already taken."
	default:
		return "Something went wrong. Please try again."
	}
}

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Public is the user-facing code; empty means ERR_UNEXPECTED_ERROR
	Public PublicCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional, for validation errors)
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return NotFound(fmt.Sprintf(format, args...))
}

// Conflict creates a new Conflict error.
func Conflict(message string) *AppError {
	return &AppError{Code: ErrCodeConflict, Message: message}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Field: field}
}

// Unauthorized creates a new Unauthorized error.
func Unauthorized(message string) *AppError {
	return &AppError{Code: ErrCodeUnauthorized, Message: message}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message}
}

// UsernameTaken is the conflict returned when a username is claimed by someone else.
func UsernameTaken(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeConflict,
		Public:  PublicUsernameTaken,
		Message: PublicUsernameTaken.Message(),
		Field:   "username",
		Cause:   cause,
	}
}

// SignupRejected is the conflict returned when an account cannot be created.
func SignupRejected(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeConflict,
		Public:  PublicSignupRejected,
		Message: PublicSignupRejected.Message(),
		Cause:   cause,
	}
}

// Upstream wraps an unusable collaborator response.
func Upstream(cause error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeUpstream,
		Public:  PublicUnexpected,
		Message: message,
		Cause:   cause,
	}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool { return isCode(err, ErrCodeNotFound) }

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool { return isCode(err, ErrCodeConflict) }

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool { return isCode(err, ErrCodeValidation) }

// IsUnauthorized checks if an error is an Unauthorized error.
func IsUnauthorized(err error) bool { return isCode(err, ErrCodeUnauthorized) }

// IsTimeout checks if an error is a Timeout error.
func IsTimeout(err error) bool { return isCode(err, ErrCodeTimeout) }

// IsCanceled checks if an error is a Canceled error.
func IsCanceled(err error) bool { return isCode(err, ErrCodeCanceled) }

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

// PublicCodeOf returns the user-facing code carried by err.
// Anything that is not an AppError with a public code normalizes to ERR_UNEXPECTED_ERROR.
func PublicCodeOf(err error) PublicCode {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Public != "" {
		return appErr.Public
	}
	return PublicUnexpected
}

// UserMessage returns text safe to show in an alert for err.
// Validation and not-found messages pass through; everything else uses the public code's text.
func UserMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Public == "" {
		switch appErr.Code {
		case ErrCodeValidation, ErrCodeNotFound, ErrCodeUnauthorized:
			return appErr.Message
		}
	}
	return PublicCodeOf(err).Message()
}
