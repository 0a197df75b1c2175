// Package apperr is the error taxonomy shared by services and controllers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation        Kind = "validation"
	KindInvalidTransition Kind = "invalid_transition"
	KindForbidden         Kind = "forbidden"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
)

type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error { return newf(KindValidation, format, args...) }

func InvalidTransition(format string, args ...any) error {
	return newf(KindInvalidTransition, format, args...)
}

func Forbidden(format string, args ...any) error { return newf(KindForbidden, format, args...) }

func NotFound(format string, args ...any) error { return newf(KindNotFound, format, args...) }

// Conflict marks a lost compare-and-swap. Services translate it before
// returning to callers.
func Conflict(format string, args ...any) error { return newf(KindConflict, format, args...) }

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool { return err != nil && KindOf(err) == kind }

// Status maps an error to the HTTP status the transport answers with.
func Status(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindInvalidTransition, KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
