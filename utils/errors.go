package utils

import (
	"errors"
	"net/http"
)

// ErrorKind is the category a business-rule violation falls into. Every
// kind maps to exactly one HTTP status code.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindConflict     ErrorKind = "conflict"
	KindInvalidState ErrorKind = "invalid_state"
	KindValidation   ErrorKind = "validation"
	KindFatal        ErrorKind = "fatal"
)

type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindInvalidState:
		return http.StatusUnprocessableEntity
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func NewNotFound(msg string) *AppError {
	return &AppError{Kind: KindNotFound, Message: msg}
}

func NewUnauthorized(msg string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: msg}
}

func NewForbidden(msg string) *AppError {
	return &AppError{Kind: KindForbidden, Message: msg}
}

func NewConflict(msg string) *AppError {
	return &AppError{Kind: KindConflict, Message: msg}
}

func NewInvalidState(msg string) *AppError {
	return &AppError{Kind: KindInvalidState, Message: msg}
}

func NewValidation(msg string) *AppError {
	return &AppError{Kind: KindValidation, Message: msg}
}

// NewFatal wraps a storage/transaction failure. The cause is kept for
// logging; callers see only the generic message.
func NewFatal(msg string, cause error) *AppError {
	return &AppError{Kind: KindFatal, Message: msg, Err: cause}
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
