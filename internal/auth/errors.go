package auth

import (
	"errors"
	"fmt"
)

// Sentinel errors for authentication.
var (
	// ErrMissingCredential indicates that no bearer credential was provided.
	ErrMissingCredential = errors.New("missing bearer credential")

	// ErrInvalidCredential indicates that the bearer credential failed
	// verification.
	ErrInvalidCredential = errors.New("invalid bearer credential")
)

// Error is an authentication failure. Kind is one of the sentinel errors;
// Cause, when set, is the underlying verification error.
type Error struct {
	Kind  error
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v: %v", e.Kind, e.Cause)
	}
	return e.Kind.Error()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the error kind.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

// Reason returns a short label for metrics.
func (e *Error) Reason() string {
	if e.Kind == ErrMissingCredential {
		return "missing_credential"
	}
	return "invalid_credential"
}

func missing() error {
	return &Error{Kind: ErrMissingCredential}
}

func invalid(cause error) error {
	return &Error{Kind: ErrInvalidCredential, Cause: cause}
}
