// Package apperr is the kiosk's user-facing failure taxonomy. Every flow
// catches its own failures and reports them as *Error, whose Message is a
// short sentence fit for the screen.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes failures
type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindDomain       Kind = "domain"
	KindBusy         Kind = "busy"
	KindGeneric      Kind = "generic"
)

// ErrBusy is returned when a flow is already processing a submission.
var ErrBusy = errors.New("operation already in progress")

type Error struct {
	Op      string // flow operation that failed
	Kind    Kind
	Message string // shown to the user
	Err     error  // underlying cause, logged only
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(op string, kind Kind, message string, cause error) *Error {
	return &Error{Op: op, Kind: kind, Message: message, Err: cause}
}

func Validation(op, message string) *Error {
	return New(op, KindValidation, message, nil)
}

func Busy(op string) *Error {
	return New(op, KindBusy, "Please wait, still processing.", ErrBusy)
}

// KindOf returns the Kind of err, or KindGeneric.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindGeneric
}

// Message returns the user-facing sentence carried by err.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}

// KindForStatus maps a backend status code onto the taxonomy.
func KindForStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusBadRequest:
		return KindDomain
	default:
		return KindGeneric
	}
}

// HTTPStatus is the status the kiosk front answers the browser with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindDomain:
		return http.StatusUnprocessableEntity
	case KindBusy:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}
