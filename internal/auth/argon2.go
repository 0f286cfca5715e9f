package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// Argon2Params are the argon2id cost parameters written into each hash.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

// DefaultArgon2Params are the OWASP-recommended settings.
var DefaultArgon2Params = Argon2Params{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	SaltLen: 16,
	KeyLen:  32,
}

// Upper bounds accepted when parsing a stored hash.
const (
	maxArgon2Memory = 1 << 20 // KiB, 1 GiB
	maxArgon2Time   = 10
)

// Argon2idHasher implements PasswordHasher using argon2id with PHC-format
// output: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
type Argon2idHasher struct {
	params Argon2Params
}

var _ PasswordHasher = (*Argon2idHasher)(nil)

func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{params: DefaultArgon2Params}
}

// NewArgon2idHasherWithParams is used by tests to keep memory use low.
func NewArgon2idHasherWithParams(p Argon2Params) *Argon2idHasher {
	return &Argon2idHasher{params: p}
}

func (h *Argon2idHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the key with the parameters stored in hash.
// Anything that does not parse as an argon2id PHC string is a mismatch.
func (h *Argon2idHasher) Verify(plaintext, hash string) bool {
	parsed, err := parseArgon2Hash(hash)
	if err != nil {
		return false
	}
	computed := argon2.IDKey([]byte(plaintext), parsed.salt, parsed.time, parsed.memory, parsed.threads, uint32(len(parsed.key)))
	return subtle.ConstantTimeCompare(computed, parsed.key) == 1
}

type argon2Hash struct {
	memory, time uint32
	threads      uint8
	salt, key    []byte
}

func parseArgon2Hash(encoded string) (*argon2Hash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("invalid argon2id hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if version != argon2.Version {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("unsupported argon2 version %d", version)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	// threads must fit in uint8; zero values make argon2.IDKey panic
	if threads == 0 || threads > 255 || time == 0 || memory == 0 {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("invalid argon2 parameters m=%d t=%d p=%d", memory, time, threads)
	}
	// a stored hash must not be able to demand unbounded memory or CPU
	if memory > maxArgon2Memory || time > maxArgon2Time {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("invalid argon2 parameters m=%d t=%d p=%d", memory, time, threads)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if len(key) == 0 || len(key) > 1<<10 {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("invalid key length %d", len(key))
	}

	return &argon2Hash{memory: memory, time: time, threads: uint8(threads), salt: salt, key: key}, nil
}
