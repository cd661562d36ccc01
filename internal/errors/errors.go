// internal/errors/errors.go
package errors

import (
	stderrors "errors"
	"fmt"
)

type Kind string

const (
	KindNotFound      Kind = "NOT_FOUND"
	KindAmbiguous     Kind = "AMBIGUOUS"
	KindTooShort      Kind = "TOO_SHORT"
	KindInvalidState  Kind = "INVALID_STATE"
	KindAlreadyExists Kind = "ALREADY_EXISTS"
	KindIO            Kind = "IO"
	KindCorrupt       Kind = "CORRUPT"
)

// Error carries an error kind alongside the message. The kind is what
// callers branch on; the message is for humans.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
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

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Ambiguous(format string, args ...any) *Error {
	return &Error{Kind: KindAmbiguous, Message: fmt.Sprintf(format, args...)}
}

func TooShort(format string, args ...any) *Error {
	return &Error{Kind: KindTooShort, Message: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func AlreadyExists(format string, args ...any) *Error {
	return &Error{Kind: KindAlreadyExists, Message: fmt.Sprintf(format, args...)}
}

// IO wraps a storage provider failure with context.
func IO(err error, format string, args ...any) *Error {
	return &Error{Kind: KindIO, Message: fmt.Sprintf(format, args...), Err: err}
}

func Corrupt(format string, args ...any) *Error {
	return &Error{Kind: KindCorrupt, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err or anything it wraps is an *Error of the
// given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
