// Run with: go test ./internal/apperror/ -v
package apperror

import (
	"errors"
	"fmt"
	"testing"
)

// TABLE-DRIVEN TESTS:
// One slice of cases, one loop of assertions. Adding a taxonomy entry means
// adding one struct literal here.

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("user", "42"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("username", "username is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "DuplicateUsername wraps ErrDuplicateUsername",
			err:       DuplicateUsername("alice"),
			target:    ErrDuplicateUsername,
			wantMatch: true,
		},
		{
			name:      "InvalidCredentials wraps ErrInvalidCredentials",
			err:       InvalidCredentials(),
			target:    ErrInvalidCredentials,
			wantMatch: true,
		},
		{
			name:      "InvalidMatch wraps ErrInvalidMatch",
			err:       InvalidMatch("self match"),
			target:    ErrInvalidMatch,
			wantMatch: true,
		},
		{
			name:      "TokenInvalid wraps ErrTokenInvalid",
			err:       TokenInvalid(errors.New("signature is invalid")),
			target:    ErrTokenInvalid,
			wantMatch: true,
		},
		{
			name:      "StoreUnavailable wraps ErrStoreUnavailable",
			err:       StoreUnavailable("insert user", errors.New("connection refused")),
			target:    ErrStoreUnavailable,
			wantMatch: true,
		},
		{
			name:      "wrapped with fmt.Errorf still matches",
			err:       fmt.Errorf("service/auth: %w", DuplicateUsername("bob")),
			target:    ErrDuplicateUsername,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("user", "42"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "InvalidCredentials does NOT match ErrNotFound",
			err:       InvalidCredentials(),
			target:    ErrNotFound,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("user", "42"),
			wantMessage: "user not found with id 42",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("username", "username is required"),
			wantMessage: "username is required",
		},
		{
			name:        "InvalidCredentials does not name a field",
			err:         InvalidCredentials(),
			wantMessage: "invalid username or password",
		},
		{
			name:        "StoreUnavailable hides the cause",
			err:         StoreUnavailable("find user", errors.New("dial tcp 10.0.0.1:5432: refused")),
			wantMessage: "storage unavailable during find user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset by peer")
	err := StoreUnavailable("list matches", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Error("errors.Is(err, ErrStoreUnavailable) = false, want true")
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(fmt.Errorf("wrapped: %w", StoreUnavailable("read", errors.New("timeout")))) {
		t.Error("StoreUnavailable should be retryable")
	}
	for _, err := range []error{
		InvalidMatch("self match"),
		DuplicateUsername("alice"),
		InvalidCredentials(),
		TokenInvalid(nil),
	} {
		if IsRetryable(err) {
			t.Errorf("IsRetryable(%v) = true, want false", err)
		}
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("password", "password is required")

	if err.Field != "password" {
		t.Errorf("Field = %q, want %q", err.Field, "password")
	}
}
