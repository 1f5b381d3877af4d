package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindInvalidState    Kind = "invalid_state"
	KindInvalidArgument Kind = "invalid_argument"
	KindInternal        Kind = "internal"
)

// Error carries a client-safe message and the HTTP status it maps to.
// Err keeps the underlying cause for logs; it is never rendered.
type Error struct {
	Kind    Kind
	Message string
	Status  int
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

func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " not found", Status: http.StatusNotFound}
}

func InvalidState(msg string) *Error {
	return &Error{Kind: KindInvalidState, Message: msg, Status: http.StatusBadRequest}
}

func InvalidArgument(msg string) *Error {
	return &Error{Kind: KindInvalidArgument, Message: msg, Status: http.StatusBadRequest}
}

func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Status: http.StatusInternalServerError, Err: cause}
}

// Wrap passes *Error values through untouched and turns anything else into
// an Internal error with msg.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return Internal(msg, err)
}

// StatusOf returns the status code carried by err, or 500.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}

func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}
