// Package apperr defines the error kinds shared by every ledger operation.
// Handlers map a Kind to an HTTP status; services only decide the Kind.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error for callers and transports.
type Kind string

const (
	KindValidation    Kind = "VALIDATION_ERROR"
	KindAuthorization Kind = "AUTHORIZATION_ERROR"
	KindNotFound      Kind = "NOT_FOUND"
	KindIntegrity     Kind = "INTEGRITY_ERROR"
	KindConflict      Kind = "CONFLICT"
	KindBadRequest    Kind = "BAD_REQUEST"
	KindInternal      Kind = "INTERNAL_ERROR"
)

// Error is a classified error with a human readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validation reports malformed or inconsistent input.
func Validation(format string, args ...any) *Error {
	return newf(KindValidation, format, args...)
}

// Authorization reports a caller without the rights for an operation.
func Authorization(format string, args ...any) *Error {
	return newf(KindAuthorization, format, args...)
}

// NotFound reports a missing group, member, expense or settlement.
func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, format, args...)
}

// Integrity reports ledger data that violates an invariant which write-time
// validation should have made unreachable.
func Integrity(format string, args ...any) *Error {
	return newf(KindIntegrity, format, args...)
}

// BadRequest reports a request that could not be decoded at all.
func BadRequest(format string, args ...any) *Error {
	return newf(KindBadRequest, format, args...)
}

// Conflict reports a transient serialization failure. Callers retry once.
func Conflict(err error) *Error {
	return &Error{Kind: KindConflict, Message: "concurrent modification, please retry", Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the public text of a classified error, including any
// context wrapped around it. The cause of the classified error is left out.
// Unclassified errors get a generic message.
func Message(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "internal server error"
	}
	msg := err.Error()
	if e.Err != nil {
		msg = strings.TrimSuffix(msg, ": "+e.Err.Error())
	}
	return msg
}

// IsConflict reports whether err is worth one automatic retry.
func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}

// RetryOnConflict runs fn and runs it once more if it failed with a conflict.
func RetryOnConflict(fn func() error) error {
	err := fn()
	if IsConflict(err) {
		err = fn()
	}
	return err
}
