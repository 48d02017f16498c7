// Package apperror centralizes the application error taxonomy. Services and
// handlers return *AppError values; the HTTP translator in respond.go maps
// them to status codes and response envelopes in one place.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies an application error.
type ErrorType int

const (
	// InternalError is the fallback for anything not explicitly classified.
	InternalError ErrorType = iota
	// ValidationError covers schema/constraint violations on input.
	ValidationError
	// NotFoundError covers missing resources, including malformed ids.
	NotFoundError
	// AuthenticationError covers missing, invalid, or expired credentials.
	AuthenticationError
	// AuthorizationError covers role or ownership violations.
	AuthorizationError
	// DuplicateError covers unique-constraint violations.
	DuplicateError
	// GeocodingError covers failures resolving an address with the provider.
	GeocodingError
	// UploadError covers rejected or failed file uploads.
	UploadError
)

// AppError carries a user-facing message, a classification, and optionally
// the underlying error for logs.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying error to errors.Is/errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status for the error type.
func (e *AppError) StatusCode() int {
	switch e.Type {
	case ValidationError, DuplicateError, UploadError:
		return http.StatusBadRequest
	case NotFoundError:
		return http.StatusNotFound
	case AuthenticationError:
		return http.StatusUnauthorized
	case AuthorizationError:
		return http.StatusForbidden
	case GeocodingError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// TypeName returns a stable identifier for the type, used in development
// error payloads.
func (e *AppError) TypeName() string {
	switch e.Type {
	case ValidationError:
		return "ValidationError"
	case NotFoundError:
		return "NotFoundError"
	case AuthenticationError:
		return "AuthenticationError"
	case AuthorizationError:
		return "AuthorizationError"
	case DuplicateError:
		return "DuplicateError"
	case GeocodingError:
		return "GeocodingError"
	case UploadError:
		return "UploadError"
	default:
		return "InternalError"
	}
}

// New creates an AppError with an explicit type.
func New(t ErrorType, message string, err error) *AppError {
	return &AppError{Type: t, Message: message, Err: err}
}

// NewValidation creates a ValidationError.
func NewValidation(message string, err error) *AppError {
	return New(ValidationError, message, err)
}

// NewNotFound creates a NotFoundError.
func NewNotFound(message string, err error) *AppError {
	return New(NotFoundError, message, err)
}

// NewAuthentication creates an AuthenticationError.
func NewAuthentication(message string, err error) *AppError {
	return New(AuthenticationError, message, err)
}

// NewAuthorization creates an AuthorizationError.
func NewAuthorization(message string, err error) *AppError {
	return New(AuthorizationError, message, err)
}

// NewDuplicate creates a DuplicateError.
func NewDuplicate(message string, err error) *AppError {
	return New(DuplicateError, message, err)
}

// NewGeocoding creates a GeocodingError.
func NewGeocoding(message string, err error) *AppError {
	return New(GeocodingError, message, err)
}

// NewUpload creates an UploadError.
func NewUpload(message string, err error) *AppError {
	return New(UploadError, message, err)
}

// NewInternal creates an InternalError.
func NewInternal(message string, err error) *AppError {
	return New(InternalError, message, err)
}

// IsType reports whether err (or anything it wraps) is an AppError of the
// given type.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	return IsType(err, NotFoundError)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	return IsType(err, ValidationError)
}

// IsDuplicate reports whether err is a DuplicateError.
func IsDuplicate(err error) bool {
	return IsType(err, DuplicateError)
}
