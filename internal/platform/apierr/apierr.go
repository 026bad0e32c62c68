package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func BadRequest(code string, msg string) *Error {
	return New(http.StatusBadRequest, code, errors.New(msg))
}

func Unauthorized(code string, msg string) *Error {
	return New(http.StatusUnauthorized, code, errors.New(msg))
}

func Forbidden(code string, msg string) *Error {
	return New(http.StatusForbidden, code, errors.New(msg))
}

func NotFound(code string, msg string) *Error {
	return New(http.StatusNotFound, code, errors.New(msg))
}

func Internal(code string, err error) *Error {
	return New(http.StatusInternalServerError, code, err)
}

// StatusOf returns the HTTP status carried by err, or 500 for anything else.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// CodeOf returns the machine code carried by err, or fallback.
func CodeOf(err error, fallback string) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Code != "" {
		return ae.Code
	}
	return fallback
}
