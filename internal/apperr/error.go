// Package apperr defines the application's error taxonomy and the classified
// error value every failure is normalized into before the resilience layer
// reasons about it.
//
// A classified Error is immutable after construction. The With* methods
// return copies, so a value handed to listeners or stored in breaker details
// can never be mutated underneath them.
package apperr

import (
	"errors"
	"fmt"
)

// Error is the canonical classified failure value.
type Error struct {
	kind        Kind
	message     string
	details     map[string]any
	recoverable bool
	cause       error
}

// New creates a classified error with the default recoverability for its kind.
func New(kind Kind, message string) *Error {
	return &Error{
		kind:        kind,
		message:     message,
		recoverable: DefaultRecoverable(kind),
	}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap creates a classified error that preserves cause for diagnostics.
// The cause is referenced, not cloned, and does not survive serialization.
func Wrap(kind Kind, message string, cause error) *Error {
	e := New(kind, message)
	e.cause = cause
	return e
}

// Kind returns the stable kind identifier.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the human-readable message.
func (e *Error) Message() string { return e.message }

// Recoverable reports whether this failure could be waited out or retried.
// It does not by itself mean the failure will be retried.
func (e *Error) Recoverable() bool { return e.recoverable }

// Cause returns the wrapped underlying error, if any.
func (e *Error) Cause() error { return e.cause }

// Detail returns a single contextual detail value.
func (e *Error) Detail(key string) (any, bool) {
	v, ok := e.details[key]
	return v, ok
}

// Details returns a copy of the contextual detail map.
func (e *Error) Details() map[string]any {
	if len(e.details) == 0 {
		return nil
	}
	out := make(map[string]any, len(e.details))
	for k, v := range e.details {
		out[k] = v
	}
	return out
}

// WithDetails returns a copy of the error with the given details merged in.
func (e *Error) WithDetails(details map[string]any) *Error {
	clone := e.clone()
	if clone.details == nil {
		clone.details = make(map[string]any, len(details))
	}
	for k, v := range details {
		clone.details[k] = v
	}
	return clone
}

// WithDetail returns a copy of the error with a single detail added.
func (e *Error) WithDetail(key string, value any) *Error {
	return e.WithDetails(map[string]any{key: value})
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *Error) WithCause(cause error) *Error {
	clone := e.clone()
	clone.cause = cause
	return clone
}

// WithRecoverable returns a copy of the error with the recoverable flag
// overridden.
func (e *Error) WithRecoverable(recoverable bool) *Error {
	clone := e.clone()
	clone.recoverable = recoverable
	return clone
}

func (e *Error) clone() *Error {
	clone := &Error{
		kind:        e.kind,
		message:     e.message,
		recoverable: e.recoverable,
		cause:       e.cause,
	}
	if len(e.details) > 0 {
		clone.details = make(map[string]any, len(e.details))
		for k, v := range e.details {
			clone.details[k] = v
		}
	}
	return clone
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

// Unwrap exposes the cause to errors.Is / errors.As chains.
func (e *Error) Unwrap() error { return e.cause }

// Is matches another classified error of the same kind, so callers can write
// errors.Is(err, apperr.New(apperr.TimeoutError, "")).
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.kind == other.kind
	}
	return false
}

// IsKind reports whether err is (or wraps) a classified error of kind k.
func IsKind(err error, k Kind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.kind == k
}
