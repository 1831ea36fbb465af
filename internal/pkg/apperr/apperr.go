package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable machine-readable error codes returned in the error envelope.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeForbidden    = "FORBIDDEN"
	CodeLocked       = "LOCKED"
	CodeDuplicate    = "DUPLICATE"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeInternal     = "INTERNAL_ERROR"
)

var statusByCode = map[string]int{
	CodeValidation:   http.StatusBadRequest,
	CodeNotFound:     http.StatusNotFound,
	CodeForbidden:    http.StatusForbidden,
	CodeLocked:       http.StatusBadRequest,
	CodeDuplicate:    http.StatusConflict,
	CodeUnauthorized: http.StatusUnauthorized,
	CodeInternal:     http.StatusInternalServerError,
}

// Error is a coded application error. Err optionally carries the underlying cause.
type Error struct {
	Code    string
	Message string
	Details interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on code so errors.Is(err, apperr.ErrWeekLocked) works for any locked error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func New(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Sentinels for errors.Is checks.
var (
	ErrValidation = &Error{Code: CodeValidation, Message: "Validation failed"}
	ErrNotFound   = &Error{Code: CodeNotFound, Message: "Not found"}
	ErrForbidden  = &Error{Code: CodeForbidden, Message: "Forbidden"}
	ErrWeekLocked = &Error{Code: CodeLocked, Message: "Planning period is locked"}
	ErrDuplicate  = &Error{Code: CodeDuplicate, Message: "Duplicate"}
)

func Validation(message string) *Error {
	return &Error{Code: CodeValidation, Message: message}
}

// ValidationFields attaches per-field messages as details.
func ValidationFields(message string, fields map[string]string) *Error {
	return &Error{Code: CodeValidation, Message: message, Details: fields}
}

func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Code: CodeForbidden, Message: message}
}

func WeekLocked() *Error {
	return &Error{Code: CodeLocked, Message: "This planning period is locked and cannot be edited"}
}

func Duplicate(message string) *Error {
	return &Error{Code: CodeDuplicate, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Code: CodeUnauthorized, Message: message}
}

func Internal(err error) *Error {
	return &Error{Code: CodeInternal, Message: "Internal Server Error", Err: err}
}

// CodeOf returns the code of err, or INTERNAL_ERROR for uncoded errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Status returns the HTTP status for err.
func Status(err error) int {
	if s, ok := statusByCode[CodeOf(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}
