package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/YongminGwon/omok-server/internal/apperror"
	"github.com/YongminGwon/omok-server/internal/auth"
	"github.com/YongminGwon/omok-server/internal/model"
	"github.com/YongminGwon/omok-server/internal/service"
)

// AccountService is the part of service.AuthService the handler calls.
// Tests substitute a fake.
type AccountService interface {
	Register(ctx context.Context, username, password string) (*model.User, error)
	Login(ctx context.Context, username, password string) (*service.Session, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
}

// AuthHandler serves registration, login and the caller's own profile.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister → create an account
//   - HandleLogin    → exchange credentials for a session token
//   - HandleMe       → return the authenticated caller's profile
//
// The handler only decodes, delegates and encodes. Every rule lives in the
// service.
type AuthHandler struct {
	accounts AccountService
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(accounts AccountService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, logger: logger}
}

// HandleRegister creates a new account.
//
// HTTP: POST /api/users/register
// REQUEST BODY: {"username": "bob", "password": "pw123"}
// RESPONSE: 200 {"id": 1, "username": "bob"}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.accounts.Register(r.Context(), creds.Username, creds.Password)
	if err != nil {
		h.logFailure("register failed", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user.View())
}

// HandleLogin verifies credentials and returns a session.
//
// HTTP: POST /api/users/login
// RESPONSE: 200 {"token": "...", "expiresAt": "...", "user": {...}}
//
// Unknown user and wrong password both produce the same 401 body.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		writeError(w, err)
		return
	}

	session, err := h.accounts.Login(r.Context(), creds.Username, creds.Password)
	if err != nil {
		h.logFailure("login failed", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// HandleMe returns the currently authenticated user's profile.
//
// HTTP: GET /api/users/me
// Auth: Required (RequireAuth middleware sets the Identity in context)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.TokenInvalid(nil))
		return
	}

	user, err := h.accounts.GetUser(r.Context(), id.UserID)
	if err != nil {
		// A valid token for a user that no longer exists.
		h.logger.Warn("HandleMe: user lookup failed",
			slog.Int64("userID", id.UserID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user.View())
}

// logFailure logs infrastructure failures at Error and expected rejections
// at Debug; the service already logged the business event.
func (h *AuthHandler) logFailure(msg string, err error) {
	if errors.Is(err, apperror.ErrStoreUnavailable) || !isDomainError(err) {
		h.logger.Error(msg, slog.String("error", err.Error()))
		return
	}
	h.logger.Debug(msg, slog.String("error", err.Error()))
}

func isDomainError(err error) bool {
	var appErr *apperror.AppError
	return errors.As(err, &appErr)
}
