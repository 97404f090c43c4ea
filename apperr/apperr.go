// Package apperr defines the domain error kinds surfaced by the model layer
// and their HTTP status mapping.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an Error.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad request"
	case KindNotFound:
		return "not found"
	default:
		return "internal"
	}
}

// Sentinels usable with errors.Is to test for a kind regardless of message.
var (
	ErrBadRequest = &Error{Kind: KindBadRequest}
	ErrNotFound   = &Error{Kind: KindNotFound}
)

// Error is a domain error carrying a kind, a client-facing message and an
// optional cause that stays out of the message.
type Error struct {
	Kind    Kind
	Message string
	// Details lists individual validation failures, if any.
	Details []string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is a kind sentinel (an *Error without message)
// of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Cause == nil && t.Kind == e.Kind
}

// BadRequest returns a KindBadRequest error.
func BadRequest(msg string, details ...string) *Error {
	return &Error{Kind: KindBadRequest, Message: msg, Details: details}
}

// NotFound returns a KindNotFound error with a formatted message.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind and message to cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsBadRequest reports whether err's chain holds a KindBadRequest *Error.
func IsBadRequest(err error) bool { return KindOf(err) == KindBadRequest }

// IsNotFound reports whether err's chain holds a KindNotFound *Error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// Status maps err to an HTTP status code.
func Status(err error) int {
	switch KindOf(err) {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
