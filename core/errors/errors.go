package errors

import (
	stderrors "errors"
	"fmt"
)

type ErrorCode string

const (
	ErrInvalidInput         ErrorCode = "INVALID_INPUT"
	ErrInvalidRequestData   ErrorCode = "INVALID_REQUEST_DATA"
	ErrNotFound             ErrorCode = "NOT_FOUND"
	ErrConflict             ErrorCode = "CONFLICT"
	ErrAlreadyExists        ErrorCode = "ALREADY_EXISTS"
	ErrConfirmationRequired ErrorCode = "CONFIRMATION_REQUIRED"
	ErrExternalSync         ErrorCode = "EXTERNAL_SYNC"
	ErrUnauthorized         ErrorCode = "UNAUTHORIZED"
	ErrForbidden            ErrorCode = "FORBIDDEN"
	ErrInternalServer       ErrorCode = "INTERNAL_SERVER_ERROR"
)

// AppError is the error type carried from services to controllers.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another AppError by code so callers can test against the
// sentinel values below with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

var (
	NotFound             = &AppError{Code: ErrNotFound}
	Conflict             = &AppError{Code: ErrConflict}
	InvalidInput         = &AppError{Code: ErrInvalidInput}
	ConfirmationRequired = &AppError{Code: ErrConfirmationRequired}
)

// CodeOf returns the AppError code found in err's chain, or ErrInternalServer.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr != nil {
		return appErr.Code
	}
	return ErrInternalServer
}

// As is a shortcut for errors.As into *AppError.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr != nil {
		return appErr, true
	}
	return nil, false
}
