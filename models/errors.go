package models

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures at the HTTP boundary
type ErrorKind string

const (
	KindUploadMissing  ErrorKind = "upload_missing"
	KindInvalidRequest ErrorKind = "invalid_request"
	KindIO             ErrorKind = "io_error"
	KindProbe          ErrorKind = "probe_error"
	KindTranscode      ErrorKind = "transcode_error"
	KindSend           ErrorKind = "send_error"
	KindInternal       ErrorKind = "internal_error"
)

// Error is a classified failure. Details holds engine diagnostics, which are
// only partially exposed to clients.
type Error struct {
	Kind    ErrorKind
	Op      string
	Details string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func UploadMissingError(op string) *Error {
	return &Error{Kind: KindUploadMissing, Op: op, Err: errors.New("no file uploaded")}
}

func InvalidRequestError(op string, format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidRequest, Op: op, Err: fmt.Errorf(format, args...)}
}

func IOError(op string, err error) *Error {
	return &Error{Kind: KindIO, Op: op, Err: err}
}

func ProbeError(op string, err error, details string) *Error {
	return &Error{Kind: KindProbe, Op: op, Err: err, Details: details}
}

func TranscodeError(op string, err error, details string) *Error {
	return &Error{Kind: KindTranscode, Op: op, Err: err, Details: details}
}

// KindOf returns the kind of err, KindInternal for unclassified errors
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// DetailsOf returns the diagnostics attached to err, if any
func DetailsOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return ""
}

// HTTPStatus maps an error kind to the status code sent to clients
func HTTPStatus(kind ErrorKind) int {
	switch kind {
	case KindUploadMissing, KindInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
