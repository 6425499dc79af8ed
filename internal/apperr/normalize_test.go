package apperr

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestNormalize_Identity(t *testing.T) {
	original := New(ProviderRateLimited, "too many requests")

	got := Normalize(original)

	if got != original {
		t.Error("expected normalize to return the same value for a classified error")
	}
	if Normalize(got) != original {
		t.Error("expected normalize to be idempotent")
	}
}

func TestNormalize_WrappedClassifiedError(t *testing.T) {
	original := New(GitConflict, "merge conflict in main.go")
	wrapped := fmt.Errorf("commit failed: %w", original)

	got := Normalize(wrapped)

	if got != original {
		t.Errorf("expected the classified error from the chain, got %v", got)
	}
}

func TestNormalize_NativeErrors(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		wantKind        Kind
		wantRecoverable bool
	}{
		{
			name:            "enoent message",
			err:             errors.New("open config.json: ENOENT: no such file"),
			wantKind:        FileNotFound,
			wantRecoverable: false,
		},
		{
			name:            "fs not exist sentinel",
			err:             fmt.Errorf("read settings: %w", fs.ErrNotExist),
			wantKind:        FileNotFound,
			wantRecoverable: false,
		},
		{
			name:            "eacces message",
			err:             errors.New("open /etc/shadow: EACCES: permission denied"),
			wantKind:        FileAccessDenied,
			wantRecoverable: false,
		},
		{
			name:            "timeout message",
			err:             errors.New("request timeout after 30s"),
			wantKind:        TimeoutError,
			wantRecoverable: true,
		},
		{
			name:            "deadline exceeded",
			err:             context.DeadlineExceeded,
			wantKind:        TimeoutError,
			wantRecoverable: true,
		},
		{
			name:            "network message",
			err:             errors.New("network is unreachable"),
			wantKind:        NetworkError,
			wantRecoverable: true,
		},
		{
			name:            "connection message",
			err:             errors.New("connection refused"),
			wantKind:        NetworkError,
			wantRecoverable: true,
		},
		{
			name:            "rate limit status",
			err:             errors.New("unexpected status 429"),
			wantKind:        ProviderRateLimited,
			wantRecoverable: true,
		},
		{
			name:            "auth status",
			err:             errors.New("unexpected status 401"),
			wantKind:        ProviderAuthFailed,
			wantRecoverable: false,
		},
		{
			name:            "context canceled",
			err:             context.Canceled,
			wantKind:        TaskCancelled,
			wantRecoverable: false,
		},
		{
			name:            "anything else",
			err:             errors.New("nil pointer dereference"),
			wantKind:        InternalError,
			wantRecoverable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.err)

			if got.Kind() != tt.wantKind {
				t.Errorf("kind = %q, want %q", got.Kind(), tt.wantKind)
			}
			if got.Recoverable() != tt.wantRecoverable {
				t.Errorf("recoverable = %v, want %v", got.Recoverable(), tt.wantRecoverable)
			}
			if !errors.Is(got, tt.err) {
				t.Error("expected the original error to be preserved as cause")
			}
		})
	}
}

func TestNormalize_PrecedenceFirstMatchWins(t *testing.T) {
	// A message matching both the file rule and the timeout rule must take
	// the file rule, which comes first.
	got := Normalize(errors.New("ENOENT while waiting for lock timeout"))

	if got.Kind() != FileNotFound {
		t.Errorf("kind = %q, want %q", got.Kind(), FileNotFound)
	}
}

func TestNormalize_String(t *testing.T) {
	got := Normalize("git binary missing")

	if got.Kind() != UnknownError {
		t.Errorf("kind = %q, want %q", got.Kind(), UnknownError)
	}
	if got.Message() != "git binary missing" {
		t.Errorf("message = %q", got.Message())
	}
	if got.Recoverable() {
		t.Error("string input must not be recoverable")
	}
}

type messageCarrier struct{ msg string }

func (m messageCarrier) Message() string { return m.msg }

func TestNormalize_MessageCarrier(t *testing.T) {
	got := Normalize(messageCarrier{msg: "foreign failure"})

	if got.Kind() != UnknownError {
		t.Errorf("kind = %q, want %q", got.Kind(), UnknownError)
	}
	if got.Message() != "foreign failure" {
		t.Errorf("message = %q", got.Message())
	}
}

func TestNormalize_NilAndUnrecognized(t *testing.T) {
	for _, input := range []any{nil, 42, struct{}{}} {
		got := Normalize(input)

		if got.Kind() != UnknownError {
			t.Errorf("Normalize(%v) kind = %q, want %q", input, got.Kind(), UnknownError)
		}
		if got.Message() != "An unknown error occurred" {
			t.Errorf("Normalize(%v) message = %q", input, got.Message())
		}
	}
}
