// Package apperror defines the domain error taxonomy shared by the stores,
// the services and the HTTP handlers.
//
// Every error that leaves a service wraps one of the sentinels below, so
// callers classify failures with errors.Is and never see raw driver errors.
//
// Two classes are deliberately ambiguous:
//   - ErrInvalidCredentials covers both "no such user" and "wrong password"
//   - ErrTokenInvalid covers expired, forged and malformed tokens
//
// ErrStoreUnavailable is the only class a caller may retry, and only for reads.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("Validation Error")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")

	ErrDuplicateUsername  = errors.New("duplicate username")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidMatch       = errors.New("invalid match")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying infrastructure error, never shown to clients
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the taxonomy sentinel and the cause to errors.Is/As.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// DuplicateUsername reports that a registration collided with an existing
// account. The username is echoed back; it was supplied by the caller.
func DuplicateUsername(username string) *AppError {
	return &AppError{
		Err:     ErrDuplicateUsername,
		Message: fmt.Sprintf("username %q is already taken", username),
		Field:   "username",
	}
}

// InvalidCredentials is the single login failure. The message must not say
// which half of the credential pair was wrong.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "invalid username or password",
	}
}

func InvalidMatch(message string) *AppError {
	return &AppError{
		Err:     ErrInvalidMatch,
		Message: message,
	}
}

// TokenInvalid is returned for every token that is not currently valid.
// The cause is kept for logging only.
func TokenInvalid(cause error) *AppError {
	return &AppError{
		Err:     ErrTokenInvalid,
		Message: "invalid or expired token",
		Cause:   cause,
	}
}

// StoreUnavailable wraps a transient infrastructure failure.
func StoreUnavailable(operation string, cause error) *AppError {
	return &AppError{
		Err:     ErrStoreUnavailable,
		Message: fmt.Sprintf("storage unavailable during %s", operation),
		Cause:   cause,
	}
}

// IsRetryable reports whether err may be retried by a caller performing an
// idempotent read.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
