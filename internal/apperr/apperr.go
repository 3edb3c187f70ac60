// Package apperr defines the error kinds surfaced by chronos components and
// how they map onto tool reply codes.
package apperr

import (
	"errors"
	"fmt"
)

// Kind categorises an error for the reply envelope
type Kind string

const (
	KindInvalidArgument  Kind = "invalid_argument"
	KindInvalidTimezone  Kind = "invalid_timezone"
	KindNotFound         Kind = "not_found"
	KindInvalidState     Kind = "invalid_state"
	KindUnknownOperation Kind = "unknown_operation"
	KindTimedOut         Kind = "timed_out"
	KindStorage          Kind = "storage_error"
	KindConfiguration    Kind = "configuration_error"
	KindOperationFailed  Kind = "operation_failed"
)

// Code returns the reply code for a kind
func (k Kind) Code() int {
	switch k {
	case KindInvalidArgument, KindInvalidTimezone:
		return 400
	case KindNotFound, KindUnknownOperation:
		return 404
	case KindTimedOut:
		return 408
	case KindInvalidState:
		return 409
	default:
		return 500
	}
}

// IsInvalidArgument reports whether k is InvalidArgument or one of its subtypes
func (k Kind) IsInvalidArgument() bool {
	return k == KindInvalidArgument || k == KindInvalidTimezone
}

// Error is a categorised error with an optional cause
type Error struct {
	Kind    Kind
	Message string
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

// Is matches another *Error of the same kind, so errors.Is(err, apperr.NotFound)
// style comparisons work against the sentinels below. An invalid timezone also
// matches InvalidArgument.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Message != "" || t.Err != nil {
		return false
	}
	if t.Kind == KindInvalidArgument {
		return e.Kind.IsInvalidArgument()
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is
var (
	InvalidArgument  = &Error{Kind: KindInvalidArgument}
	InvalidTimezone  = &Error{Kind: KindInvalidTimezone}
	NotFound         = &Error{Kind: KindNotFound}
	InvalidState     = &Error{Kind: KindInvalidState}
	UnknownOperation = &Error{Kind: KindUnknownOperation}
	TimedOut         = &Error{Kind: KindTimedOut}
	Storage          = &Error{Kind: KindStorage}
	Configuration    = &Error{Kind: KindConfiguration}
)

// New creates an error of the given kind
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind around a cause
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind of err, or KindOperationFailed if it carries none
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOperationFailed
}
