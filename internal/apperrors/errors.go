// Package apperrors defines the domain error taxonomy returned by services
// and translated to HTTP responses by the handlers' error boundary.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the stable, machine-readable name of an error category.
type Kind string

const (
	KindValidation        Kind = "ValidationError"
	KindNotFound          Kind = "NotFoundError"
	KindForbidden         Kind = "ForbiddenError"
	KindInvalidState      Kind = "InvalidStateError"
	KindInsufficientStock Kind = "InsufficientStockError"
	KindUnauthenticated   Kind = "UnauthenticatedError"
	KindConflict          Kind = "ConflictError"
	KindInternal          Kind = "InternalError"
)

var statusByKind = map[Kind]int{
	KindValidation:        http.StatusBadRequest,
	KindNotFound:          http.StatusNotFound,
	KindForbidden:         http.StatusForbidden,
	KindInvalidState:      http.StatusBadRequest,
	KindInsufficientStock: http.StatusBadRequest,
	KindUnauthenticated:   http.StatusUnauthorized,
	KindConflict:          http.StatusConflict,
	KindInternal:          http.StatusInternalServerError,
}

// Error is a classified domain error.
type Error struct {
	Kind    Kind
	Message string
	// Details carries optional structured context, e.g. per-field validation failures.
	Details map[string]string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// StatusCode returns the HTTP status associated with the error kind.
func (e *Error) StatusCode() int {
	if code, ok := statusByKind[e.Kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return newf(KindValidation, format, args...)
}

// ValidationDetails builds a ValidationError carrying per-field messages.
func ValidationDetails(message string, details map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

func NotFound(format string, args ...interface{}) *Error {
	return newf(KindNotFound, format, args...)
}

func Forbidden(format string, args ...interface{}) *Error {
	return newf(KindForbidden, format, args...)
}

func InvalidState(format string, args ...interface{}) *Error {
	return newf(KindInvalidState, format, args...)
}

func InsufficientStock(format string, args ...interface{}) *Error {
	return newf(KindInsufficientStock, format, args...)
}

func Unauthenticated(format string, args ...interface{}) *Error {
	return newf(KindUnauthenticated, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return newf(KindConflict, format, args...)
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err's chain contains a domain error of the given kind.
func Is(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}

// StatusCode maps any error to an HTTP status; unclassified errors are 500.
func StatusCode(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.StatusCode()
	}
	return http.StatusInternalServerError
}
