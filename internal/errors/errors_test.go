package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "error with cause",
			err: &Error{
				Kind:    KindConnection,
				Message: "dial 127.0.0.1:28542",
				Cause:   errors.New("connection refused"),
			},
			want: "connection: dial 127.0.0.1:28542: connection refused",
		},
		{
			name: "error without cause",
			err: &Error{
				Kind:    KindInvalidArgument,
				Message: "no dialog parameters",
			},
			want: "invalid_argument: no dialog parameters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("i/o timeout")
	err := NewReceiveTimeoutError("no response", cause)

	if got := err.Unwrap(); got != cause {
		t.Errorf("Error.Unwrap() = %v, want %v", got, cause)
	}
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(err, cause) = false, want true")
	}
}

func TestKindPredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"connection", NewConnectionError("x", nil), IsConnection},
		{"send", NewSendError("x", nil), IsSend},
		{"receive timeout", NewReceiveTimeoutError("x", nil), IsReceiveTimeout},
		{"malformed", NewMalformedResponseError("x", nil), IsMalformedResponse},
		{"invalid argument", NewInvalidArgumentError("x", nil), IsInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(tt.err) {
				t.Errorf("predicate did not match %v", tt.err)
			}
			wrapped := fmt.Errorf("get_version: %w", tt.err)
			if !tt.check(wrapped) {
				t.Errorf("predicate did not match wrapped %v", wrapped)
			}
		})
	}
}

func TestKindOfPlainError(t *testing.T) {
	if got := KindOf(errors.New("plain")); got != "" {
		t.Errorf("KindOf(plain) = %q, want empty", got)
	}
	if IsSend(nil) {
		t.Errorf("IsSend(nil) = true, want false")
	}
}
