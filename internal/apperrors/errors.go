package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error so handlers can map it to an
// HTTP status without inspecting internals.
type Kind string

const (
	KindPreconditionFailed   Kind = "PRECONDITION_FAILED"
	KindForbidden            Kind = "FORBIDDEN"
	KindInvalidArgument      Kind = "INVALID_ARGUMENT"
	KindNotFound             Kind = "NOT_FOUND"
	KindReferentialIntegrity Kind = "REFERENTIAL_INTEGRITY"
	KindConflict             Kind = "CONFLICT"
	KindDependencyFailure    Kind = "DEPENDENCY_FAILURE"
)

// AppError carries an error kind and a human-readable message.
type AppError struct {
	Kind    Kind   `json:"code"`
	Message string `json:"message"`
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// HTTPStatus maps the error kind to an HTTP status code.
func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindPreconditionFailed:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindReferentialIntegrity, KindConflict:
		return http.StatusConflict
	case KindDependencyFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func PreconditionFailed(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindPreconditionFailed, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func InvalidArgument(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func ReferentialIntegrity(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindReferentialIntegrity, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// DependencyFailure wraps an opaque collaborator error (PDF renderer,
// external registry) without losing its chain.
func DependencyFailure(message string, cause error) *AppError {
	return &AppError{Kind: KindDependencyFailure, Message: message, cause: cause}
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// From extracts an AppError from err, or wraps it as an internal
// dependency failure so callers always get a typed value.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{Kind: KindDependencyFailure, Message: "internal error", cause: err}
}
