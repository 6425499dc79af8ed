package apperr

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"strings"
)

// unknownMessage is the fixed message used when the input carries no usable
// information at all.
const unknownMessage = "An unknown error occurred"

// Normalize converts an arbitrary failure value into a classified Error.
// It never fails and it is idempotent: an already classified error is
// returned as-is, never re-wrapped.
//
// Accepted inputs, in order of preference:
//   - *Error: returned unchanged
//   - error: kind inferred from the error chain and message (see FromError)
//   - string: unknown-error with the string as message
//   - anything with a Message() string method: unknown-error with that message
//   - nil or unrecognized: fixed unknown-error value
func Normalize(input any) *Error {
	switch v := input.(type) {
	case nil:
		return New(UnknownError, unknownMessage)
	case *Error:
		return v
	case error:
		return FromError(v)
	case string:
		return New(UnknownError, v)
	case interface{ Message() string }:
		return New(UnknownError, v.Message())
	default:
		return New(UnknownError, unknownMessage)
	}
}

// FromError classifies a native Go error. Classified errors anywhere in the
// chain are preserved; otherwise the kind is inferred from well-known error
// values and message content, first match wins. The original error is kept
// as the cause.
func FromError(err error) *Error {
	if err == nil {
		return New(UnknownError, unknownMessage)
	}

	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}

	msg := err.Error()

	switch {
	case errors.Is(err, fs.ErrNotExist) || strings.Contains(msg, "ENOENT"):
		return Wrap(FileNotFound, msg, err)

	case errors.Is(err, fs.ErrPermission) || strings.Contains(msg, "EACCES"):
		return Wrap(FileAccessDenied, msg, err)

	case errors.Is(err, context.Canceled):
		return Wrap(TaskCancelled, msg, err)

	case errors.Is(err, context.DeadlineExceeded) || isNetTimeout(err):
		return Wrap(TimeoutError, msg, err)

	case strings.Contains(strings.ToLower(msg), "timeout"):
		return Wrap(TimeoutError, msg, err)

	case strings.Contains(strings.ToLower(msg), "network") ||
		strings.Contains(strings.ToLower(msg), "connection"):
		return Wrap(NetworkError, msg, err)

	case strings.Contains(msg, "429"):
		return Wrap(ProviderRateLimited, msg, err)

	case strings.Contains(msg, "401"):
		return Wrap(ProviderAuthFailed, msg, err)

	default:
		return Wrap(InternalError, msg, err)
	}
}

func isNetTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
