package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// CONSISTENT ERROR FORMAT:
// Every error response from our API has the same shape:
//   {"error": "duplicate_username", "message": "username \"bob\" is already taken"}
//
// Clients switch on "error"; "message" is for humans.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/YongminGwon/omok-server/internal/apperror"
)

// maxBodyBytes caps JSON request bodies. Credentials and match results are
// tiny; anything larger is a client bug or abuse.
const maxBodyBytes = 1 << 16

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`           // Machine-readable error type (e.g., "invalid_match")
	Message string `json:"message"`         // Human-readable description
	Field   string `json:"field,omitempty"` // Set for validation errors
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set BEFORE the body is written; once
// Encode writes, header changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// errorMapping is one row of the taxonomy → HTTP table.
type errorMapping struct {
	target    error
	status    int
	errorType string
}

// errorMappings is checked in order. Store outages come first so that an
// outage during login is never reported as bad credentials.
var errorMappings = []errorMapping{
	{apperror.ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable"},
	{apperror.ErrValidation, http.StatusBadRequest, "validation_error"},
	{apperror.ErrInvalidMatch, http.StatusBadRequest, "invalid_match"},
	{apperror.ErrDuplicateUsername, http.StatusConflict, "duplicate_username"},
	{apperror.ErrConflict, http.StatusConflict, "conflict"},
	{apperror.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{apperror.ErrTokenInvalid, http.StatusUnauthorized, "unauthorized"},
	{apperror.ErrForbidden, http.StatusForbidden, "forbidden"},
	{apperror.ErrNotFound, http.StatusNotFound, "not_found"},
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
//
// The service layer never knows about status codes; this is the one place
// the taxonomy meets HTTP. errors.Is walks the whole chain, so
//
//	fmt.Errorf("service/auth: inserting user: %w", apperror.DuplicateUsername("bob"))
//
// still maps to 409.
//
// Causes (driver errors, token parse failures) are never sent to clients;
// only AppError.Message is.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		for _, m := range errorMappings {
			if errors.Is(err, m.target) {
				if m.status == http.StatusServiceUnavailable {
					w.Header().Set("Retry-After", "1")
				}
				writeJSON(w, m.status, ErrorResponse{
					Error:   m.errorType,
					Message: appErr.Message,
					Field:   appErr.Field,
				})
				return
			}
		}
	}

	// Unknown error: the raw message might contain SQL or file paths.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// decodeJSON reads a single JSON object from the request body into dst.
// Unknown fields and trailing data are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperror.ValidationFailed("", fmt.Sprintf("request body must not exceed %d bytes", maxBodyBytes))
		}
		return apperror.ValidationFailed("", "request body must be a valid JSON object")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperror.ValidationFailed("", "request body must contain a single JSON object")
	}
	return nil
}
