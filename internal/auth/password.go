// Password hashing utilities.
//
// WHY BCRYPT?
// bcrypt is a password hashing function specifically designed to be slow.
// That slowness is a security feature: it makes brute-force attacks expensive.
//
// bcrypt automatically:
//   - Generates a random salt (so two players with the same password get different hashes)
//   - Embeds the salt in the output hash (no separate salt column needed)
//   - Controls the work factor via "cost" (higher = slower = harder to crack)
//
// Hash format (the full output of bcrypt.GenerateFromPassword):
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (12 rounds → 2^12 = 4096 iterations)
//	 version
//
// argon2id is available as an alternative (see argon2.go). Both satisfy
// PasswordHasher and the choice is made once at startup from config.

package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the bcrypt input limit. Longer inputs are rejected
// rather than silently truncated.
const MaxPasswordBytes = 72

// defaultCost is the bcrypt work factor.
//
// COST TUNING RULE OF THUMB:
// Set cost so that hashing takes ~200–300ms on your production hardware.
// Too low → easy to crack. Too high → login is sluggish under load.
const defaultCost = 12

// Hasher names accepted by NewHasher (config key auth.hasher).
const (
	HasherBcrypt   = "bcrypt"
	HasherArgon2id = "argon2id"
)

var (
	ErrPasswordTooLong = errors.New("auth: password must be 72 bytes or fewer")
	ErrEmptyPassword   = errors.New("auth: password cannot be empty")
)

// PasswordHasher hashes and verifies passwords.
//
// Verify never returns an error: a malformed or foreign hash is simply a
// mismatch. Implementations are stateless and safe for concurrent use.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// NewHasher builds the PasswordHasher named by config.
// bcryptCost is ignored for argon2id; zero means the default cost.
func NewHasher(name string, bcryptCost int) (PasswordHasher, error) {
	switch name {
	case "", HasherBcrypt:
		if bcryptCost == 0 {
			return NewPasswordService(), nil
		}
		if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
			return nil, fmt.Errorf("auth: bcrypt cost %d out of range [%d,%d]", bcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
		}
		return &PasswordService{cost: bcryptCost}, nil
	case HasherArgon2id:
		return NewArgon2idHasher(), nil
	default:
		return nil, fmt.Errorf("auth: unknown password hasher %q", name)
	}
}

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct (not free functions) so that the cost can be injected
// in tests; using a lower cost (e.g. 4) makes tests run much faster
// without compromising the logic being tested.
type PasswordService struct {
	cost int
}

var _ PasswordHasher = (*PasswordService)(nil)

// NewPasswordService creates a PasswordService with the default cost (12).
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with the given cost.
// Tests in other packages pass bcrypt.MinCost (4) to avoid ~250ms per hash.
//
// Do NOT use in production: cost 4 is far too weak.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt.
//
// The output is a self-contained string like:
//
//	$2a$12$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy
//
// Store this string directly in the database. It includes the salt and
// cost; bcrypt.CompareHashAndPassword knows how to decode it.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify reports whether plaintext matches a stored bcrypt hash.
//
// TIMING SAFETY:
// bcrypt.CompareHashAndPassword uses a constant-time comparison internally,
// so an attacker can't tell from response time how close a guess was.
func (p *PasswordService) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
