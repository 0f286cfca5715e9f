// Package service holds the authentication and match history business logic.
//
// AuthService is the business logic layer for authentication. It sits between
// the HTTP handlers and the repository/auth utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (store)
//	                   ↘ PasswordHasher, TokenService
//
// KEY RESPONSIBILITIES:
//   - Register: validate, reject taken usernames, hash, insert
//   - Login: verify the password and issue a session token
//   - Authenticate: turn a bearer token back into an Identity
//
// The service holds no mutable state. Username uniqueness under concurrency
// is the store's job; the service only translates the store's answer.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/YongminGwon/omok-server/internal/apperror"
	"github.com/YongminGwon/omok-server/internal/auth"
	"github.com/YongminGwon/omok-server/internal/metrics"
	"github.com/YongminGwon/omok-server/internal/model"
	"github.com/YongminGwon/omok-server/internal/repository"
)

// dummyPassword is hashed once at construction. Login verifies against that
// hash when the username is unknown, so an unknown user costs the same
// hasher work as a wrong password.
const dummyPassword = "omok-dummy-password-for-timing"

// AuthService handles the authentication business logic.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository  → read/write user records
//   - tokens     *auth.TokenService         → issue/validate session tokens
//   - passwords  auth.PasswordHasher        → bcrypt or argon2id
//   - logger     *slog.Logger               → structured logging
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords auth.PasswordHasher
	validate  *validator.Validate
	hashSlots *auth.HashLimiter // nil means unbounded
	dummyHash string
	opts      options
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
// It fails only if the hasher cannot produce the timing dummy hash.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords auth.PasswordHasher,
	logger *slog.Logger,
	opts ...Option,
) (*AuthService, error) {
	dummy, err := passwords.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("service/auth: preparing dummy hash: %w", err)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		validate:  newValidator(),
		dummyHash: dummy,
		opts:      o,
		logger:    logger,
	}
	if o.hashLimit > 0 {
		if s.hashSlots, err = auth.NewHashLimiter(o.hashLimit); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Session is the result of a successful login.
type Session struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	User      model.UserView `json:"user"`
}

// Register creates a new account.
//
// FLOW:
//  1. Validate input. Nothing touches the store if this fails.
//  2. Look the username up. Taken → ErrDuplicateUsername, no state change.
//  3. Hash the password and insert. The insert can still lose a race with a
//     concurrent registration; the store's unique constraint turns that into
//     ErrDuplicateUsername too.
//
// Success means the store acknowledged the insert.
func (s *AuthService) Register(ctx context.Context, username, password string) (*model.User, error) {
	creds, err := normalizeCredentials(s.validate, username, password)
	if err != nil {
		metrics.RecordRegistration(metrics.OutcomeInvalid)
		return nil, err
	}

	// Fast path: skip the expensive hash when the name is obviously taken.
	_, err = withReadRetry(ctx, s.opts.retry, func(ctx context.Context) (*model.User, error) {
		return s.users.FindByUsername(ctx, creds.Username)
	})
	switch {
	case err == nil:
		metrics.RecordRegistration(metrics.OutcomeDuplicate)
		return nil, apperror.DuplicateUsername(creds.Username)
	case !errors.Is(err, apperror.ErrNotFound):
		metrics.RecordRegistration(metrics.OutcomeError)
		return nil, fmt.Errorf("service/auth: checking username: %w", err)
	}

	var (
		hash    string
		hashErr error
	)
	if err := s.withHashSlot(ctx, func() {
		start := time.Now()
		hash, hashErr = s.passwords.Hash(creds.Password)
		metrics.ObservePasswordHash(start)
	}); err != nil {
		metrics.RecordRegistration(metrics.OutcomeError)
		return nil, err
	}
	if err := hashErr; err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			metrics.RecordRegistration(metrics.OutcomeInvalid)
			return nil, apperror.ValidationFailed("password", fmt.Sprintf("password must be at most %d bytes", auth.MaxPasswordBytes))
		}
		metrics.RecordRegistration(metrics.OutcomeError)
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	// Not retried: a timed-out insert may have committed.
	user, err := s.users.Insert(ctx, creds.Username, hash)
	if err != nil {
		if errors.Is(err, apperror.ErrDuplicateUsername) {
			metrics.RecordRegistration(metrics.OutcomeDuplicate)
			return nil, apperror.DuplicateUsername(creds.Username)
		}
		metrics.RecordRegistration(metrics.OutcomeError)
		return nil, fmt.Errorf("service/auth: inserting user: %w", err)
	}

	metrics.RecordRegistration(metrics.OutcomeSuccess)
	s.logger.Info("user registered",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Login verifies credentials and issues a session token.
//
// An unknown username and a wrong password return the same
// apperror.ErrInvalidCredentials, and both cost one hash verification.
func (s *AuthService) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		metrics.RecordLogin(metrics.OutcomeInvalid)
		return nil, apperror.InvalidCredentials()
	}

	user, err := withReadRetry(ctx, s.opts.retry, func(ctx context.Context) (*model.User, error) {
		return s.users.FindByUsername(ctx, username)
	})
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			metrics.RecordLogin(metrics.OutcomeError)
			return nil, fmt.Errorf("service/auth: looking up user: %w", err)
		}
		if _, err := s.verify(ctx, password, s.dummyHash); err != nil {
			metrics.RecordLogin(metrics.OutcomeError)
			return nil, err
		}
		return nil, s.loginFailed()
	}

	ok, err := s.verify(ctx, password, user.PasswordHash)
	if err != nil {
		metrics.RecordLogin(metrics.OutcomeError)
		return nil, err
	}
	if !ok {
		return nil, s.loginFailed()
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		metrics.RecordLogin(metrics.OutcomeError)
		return nil, fmt.Errorf("service/auth: issuing token for user %d: %w", user.ID, err)
	}

	metrics.RecordLogin(metrics.OutcomeSuccess)
	s.logger.Info("user logged in", slog.Int64("userID", user.ID))

	return &Session{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user.View(),
	}, nil
}

func (s *AuthService) verify(ctx context.Context, password, hash string) (bool, error) {
	var ok bool
	err := s.withHashSlot(ctx, func() {
		start := time.Now()
		ok = s.passwords.Verify(password, hash)
		metrics.ObservePasswordHash(start)
	})
	return ok, err
}

// withHashSlot runs fn once a hash slot is free. The only error is the
// context ending while waiting; fn's own results travel by closure.
func (s *AuthService) withHashSlot(ctx context.Context, fn func()) error {
	if s.hashSlots == nil {
		fn()
		return nil
	}
	release, err := s.hashSlots.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("service/auth: waiting for hash slot: %w", err)
	}
	defer release()
	fn()
	return nil
}

// loginFailed logs without the username: the attempted name may be a
// password typed into the wrong field.
func (s *AuthService) loginFailed() error {
	metrics.RecordLogin(metrics.OutcomeInvalid)
	s.logger.Info("login failed")
	return apperror.InvalidCredentials()
}

// Authenticate validates a bearer token. It satisfies auth.ValidatorFunc so
// the middleware can use it directly.
func (s *AuthService) Authenticate(token string) (auth.Identity, error) {
	id, err := s.tokens.Validate(token)
	if err != nil {
		metrics.RecordTokenRejected()
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Cause != nil {
			s.logger.Debug("token rejected", slog.String("reason", appErr.Cause.Error()))
		}
		return auth.Identity{}, err
	}
	return id, nil
}

// GetUser loads a user by id. Returns apperror.ErrNotFound if absent.
func (s *AuthService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := withReadRetry(ctx, s.opts.retry, func(ctx context.Context) (*model.User, error) {
		return s.users.GetByID(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("service/auth: getting user %d: %w", id, err)
	}
	return user, nil
}
