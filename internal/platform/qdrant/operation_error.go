package qdrant

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// OperationErrorCode classifies a failed call to the vector database.
type OperationErrorCode string

const (
	OperationErrorValidation      OperationErrorCode = "validation_failed"
	OperationErrorEncodeFailed    OperationErrorCode = "encode_failed"
	OperationErrorDecodeFailed    OperationErrorCode = "decode_failed"
	OperationErrorTransportFailed OperationErrorCode = "transport_failed"
	OperationErrorTimeout         OperationErrorCode = "timeout"
	OperationErrorQueryFailed     OperationErrorCode = "query_failed"
)

// OperationError is returned by every VectorStore method.
type OperationError struct {
	Code       OperationErrorCode
	Operation  string
	StatusCode int
	Message    string
	Cause      error
}

func (e *OperationError) Error() string {
	if e == nil {
		return "qdrant: operation failed"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "qdrant %s: %s", e.Operation, e.Code)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	switch {
	case e.Message != "" && e.Cause != nil:
		fmt.Fprintf(&b, ": %s: %v", e.Message, e.Cause)
	case e.Message != "":
		b.WriteString(": " + e.Message)
	case e.Cause != nil:
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Retryable reports failures that may succeed unchanged on a later attempt: network
// errors, timeouts, throttling and server-side statuses.
func (e *OperationError) Retryable() bool {
	if e == nil {
		return false
	}
	switch e.Code {
	case OperationErrorTransportFailed, OperationErrorTimeout:
		return true
	case OperationErrorQueryFailed:
		return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// IsRetryable unwraps err looking for a retryable OperationError.
func IsRetryable(err error) bool {
	var oe *OperationError
	return errors.As(err, &oe) && oe.Retryable()
}

// ErrorCode returns the code of the first OperationError in err's chain.
func ErrorCode(err error) (OperationErrorCode, bool) {
	var oe *OperationError
	if !errors.As(err, &oe) {
		return "", false
	}
	return oe.Code, true
}

func opErr(op string, code OperationErrorCode, msg string, cause error) error {
	return &OperationError{Code: code, Operation: op, Message: msg, Cause: cause}
}

func statusErr(op string, status int, msg string) error {
	return &OperationError{Code: OperationErrorQueryFailed, Operation: op, StatusCode: status, Message: msg}
}
