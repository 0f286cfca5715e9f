// Package auth provides password hashing, session token issuance and
// validation, and the HTTP middleware that authenticates API requests.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. Player registers with POST /api/users/register (username + password)
// 2. Player logs in with POST /api/users/login → server verifies the password
//    hash and issues a signed session token
// 3. On subsequent API calls the client sends "Authorization: Bearer <token>"
// 4. Middleware validates the token and puts the Identity in the request context
//
// WHY JWT?
// JWT (JSON Web Token) is stateless: the server doesn't need to store session
// data. All the information needed (user id, username, expiry) is inside the
// signed token. The signature ensures nobody can tamper with it without the secret key.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + token type → {"alg":"HS256","typ":"JWT"}
//	- Payload: claims → {"sub":"42","name":"bob","exp":1234567890,"jti":"..."}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
//
// There is no server-side session table, so a token cannot be revoked
// before it expires.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"

	"github.com/YongminGwon/omok-server/internal/apperror"
	"github.com/YongminGwon/omok-server/internal/clock"
)

const (
	// MinSecretLength is the shortest accepted signing secret.
	MinSecretLength = 16

	DefaultTokenTTL = time.Hour
	DefaultIssuer   = "omok-server"
)

// Identity is what a valid token proves about its bearer.
type Identity struct {
	UserID   int64
	Username string
}

// TokenConfig configures a TokenService. Zero TTL and empty Issuer fall
// back to the defaults; a nil Clock means the system clock.
type TokenConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
	Clock  clock.Clock
}

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret key used to sign and verify tokens. The secret is
// set once at construction and only read afterwards, so a single TokenService
// is shared by every request goroutine.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	clock  clock.Clock
}

// NewTokenService creates a TokenService from cfg.
// The secret should be at least 32 bytes of random data in production.
// Example: OMOK_AUTH_JWTSECRET=$(openssl rand -hex 32)
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", MinSecretLength)
	}
	if cfg.TTL < 0 {
		return nil, errors.New("auth: token TTL must not be negative")
	}
	ts := &TokenService{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		clock:  cfg.Clock,
	}
	if ts.ttl == 0 {
		ts.ttl = DefaultTokenTTL
	}
	if ts.issuer == "" {
		ts.issuer = DefaultIssuer
	}
	if ts.clock == nil {
		ts.clock = clock.RealClock{}
	}
	return ts, nil
}

// TTL is the lifetime of every issued token.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// claims is the JWT payload. "sub" carries the numeric user id as a decimal
// string (RFC 7519 requires a string), "name" carries the username.
type claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Issue creates and signs a token for the given user that expires TTL after
// the clock's current time. It returns the token and its expiry.
//
// Signing algorithm: HS256 (HMAC-SHA256)
// - Symmetric: same key for signing and verifying
// - Fast and simple, good for single-server deployments
func (s *TokenService) Issue(userID int64, username string) (string, time.Time, error) {
	now := s.clock.Now()
	expiresAt := now.Add(s.ttl)

	c := claims{
		Name: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    s.issuer,
			// jti makes two tokens issued in the same second distinguishable
			ID: xid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: signing token: %w", err)
	}

	// NumericDate truncates to whole seconds; report what the token says.
	return signed, c.ExpiresAt.Time, nil
}

// Validate parses and verifies a token string.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired according to the injected clock (now < exp)
//   - Issuer matches (prevents tokens from other apps)
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
//   - Signature segment is canonical base64url (no ignored padding bits)
//
// Every failure returns an error wrapping
// apperror.ErrTokenInvalid; the underlying reason is kept as the cause.
func (s *TokenService) Validate(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.clock.Now),
		// reject signatures whose unused trailing bits differ
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		return Identity{}, apperror.TokenInvalid(err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, apperror.TokenInvalid(errors.New("auth: invalid token claims"))
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return Identity{}, apperror.TokenInvalid(fmt.Errorf("auth: bad subject %q", c.Subject))
	}
	if c.Name == "" {
		return Identity{}, apperror.TokenInvalid(errors.New("auth: token has no username"))
	}

	return Identity{UserID: userID, Username: c.Name}, nil
}
