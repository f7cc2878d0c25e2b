package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	err := NewNotFound("seed", "abc123")
	want := "NOT_FOUND: seed not found: abc123"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(NewNotFound("seed", "x")) {
		t.Error("IsNotFound should be true for NewNotFound")
	}
	if IsNotFound(NewConflict("nope")) {
		t.Error("IsNotFound should be false for conflict")
	}
	// Wrapped errors still match
	wrapped := fmt.Errorf("loading: %w", NewNotFound("seed", "x"))
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should unwrap")
	}
}

func TestIsMaxIterations(t *testing.T) {
	err := NewMaxIterations(20)
	if !IsMaxIterations(err) {
		t.Error("IsMaxIterations should be true")
	}
	if err.Details["iterations"] != 20 {
		t.Errorf("Details[iterations] = %v, want 20", err.Details["iterations"])
	}
	if IsMaxIterations(NewInternal(errors.New("boom"))) {
		t.Error("IsMaxIterations should be false for internal errors")
	}
}

func TestIsConnectionError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("pass: %w", context.DeadlineExceeded), true},
		{"sqlite busy", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"refused", errors.New("dial tcp 127.0.0.1:1: connection refused"), true},
		{"logic error", errors.New("automation panicked: nil map"), false},
		{"not found", NewNotFound("seed", "x"), false},
	}
	for _, tc := range cases {
		if got := IsConnectionError(tc.err); got != tc.want {
			t.Errorf("%s: IsConnectionError = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewInternal(cause)
	if !errors.Is(err, cause) {
		t.Error("NewInternal should wrap its cause")
	}
}
