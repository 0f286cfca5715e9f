// Package config loads server settings through koanf.
//
// Sources are layered, later ones winning:
//
//	built-in defaults → YAML file → OMOK_* environment → command-line flags
//
// Environment keys are matched case-insensitively against the known keys,
// so OMOK_AUTH_JWTSECRET sets auth.jwtSecret and OMOK_STORE_SQLITEPATH sets
// store.sqlitePath.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/YongminGwon/omok-server/internal/auth"
)

// EnvPrefix is stripped from environment variable names before matching.
const EnvPrefix = "OMOK_"

// Store drivers accepted by store.driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type Config struct {
	HTTP  HTTPConfig  `koanf:"http"`
	Log   LogConfig   `koanf:"log"`
	Store StoreConfig `koanf:"store"`
	Auth  AuthConfig  `koanf:"auth"`
	Retry RetryConfig `koanf:"retry"`
}

type HTTPConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"readTimeout"`
	WriteTimeout    time.Duration `koanf:"writeTimeout"`
	ShutdownTimeout time.Duration `koanf:"shutdownTimeout"`
}

type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // text or json
}

type StoreConfig struct {
	Driver      string `koanf:"driver"`
	SQLitePath  string `koanf:"sqlitePath"`
	PostgresURL string `koanf:"postgresURL"`
	RedisURL    string `koanf:"redisURL"`
}

type AuthConfig struct {
	JWTSecret  string        `koanf:"jwtSecret"`
	TokenTTL   time.Duration `koanf:"tokenTTL"`
	Issuer     string        `koanf:"issuer"`
	Hasher     string        `koanf:"hasher"`
	BcryptCost int           `koanf:"bcryptCost"`

	// MaxConcurrentHashes caps simultaneous hash/verify calls; 0 means
	// one per CPU.
	MaxConcurrentHashes int `koanf:"maxConcurrentHashes"`
}

type RetryConfig struct {
	Attempts  uint64        `koanf:"attempts"`
	BaseDelay time.Duration `koanf:"baseDelay"`
}

// defaults seeds koanf before any other source is read. Every key that
// may be set from the environment must appear here.
var defaults = map[string]any{
	"http.port":                8080,
	"http.readTimeout":         "15s",
	"http.writeTimeout":        "15s",
	"http.shutdownTimeout":     "10s",
	"log.level":                "info",
	"log.format":               "text",
	"store.driver":             DriverSQLite,
	"store.sqlitePath":         "data/omok.db",
	"store.postgresURL":        "",
	"store.redisURL":           "",
	"auth.jwtSecret":           "",
	"auth.tokenTTL":            auth.DefaultTokenTTL.String(),
	"auth.issuer":              auth.DefaultIssuer,
	"auth.hasher":              auth.HasherBcrypt,
	"auth.bcryptCost":          0,
	"auth.maxConcurrentHashes": 0,
	"retry.attempts":           2,
	"retry.baseDelay":          "50ms",
}

// flagKeys maps command-line flag names to config keys. Flags not listed
// here (like --config) are not config values.
var flagKeys = map[string]string{
	"port":         "http.port",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"store":        "store.driver",
	"sqlite-path":  "store.sqlitePath",
	"postgres-url": "store.postgresURL",
	"redis-url":    "store.redisURL",
	"hasher":       "auth.hasher",
}

// Options selects the sources Load reads. The zero value loads defaults
// and the process environment only.
type Options struct {
	File    string         // optional YAML file; must exist if set
	Flags   *pflag.FlagSet // optional; only flags named in flagKeys are read
	Environ func() []string
}

// Load reads and validates a Config.
func Load(opts Options) (*Config, error) {
	cfg, err := Read(opts)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read layers the sources without validating the result. Commands that
// need only part of the config (migrate) use it directly.
func Read(opts Options) (*Config, error) {
	k := koanf.New(".")

	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("config: setting default %s: %w", key, err)
		}
	}

	if opts.File != "" {
		if err := k.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", opts.File, err)
		}
	}

	known := k.Keys()
	environ := opts.Environ
	if environ == nil {
		environ = os.Environ
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, val string) (string, any) {
			return canonicalEnvKey(strings.TrimPrefix(key, EnvPrefix), known), val
		},
		EnvironFunc: environ,
	}), nil); err != nil {
		return nil, fmt.Errorf("config: reading environment: %w", err)
	}

	if opts.Flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("config: reading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	return &cfg, nil
}

// canonicalEnvKey turns AUTH_JWTSECRET into auth.jwtSecret by matching
// against known keys with separators and case ignored. Unknown variables
// keep a lower-cased dotted name and are ignored on unmarshal.
func canonicalEnvKey(raw string, known []string) string {
	needle := normalizeKey(raw)
	for _, key := range known {
		if normalizeKey(key) == needle {
			return key
		}
	}
	return strings.ToLower(strings.ReplaceAll(raw, "_", "."))
}

func normalizeKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if r == '_' || r == '.' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Validate checks values that koanf cannot type-check.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port %d out of range", c.HTTP.Port))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("store.sqlitePath is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.Store.PostgresURL == "" {
			errs = append(errs, errors.New("store.postgresURL is required for the postgres driver"))
		}
	case DriverRedis:
		if c.Store.RedisURL == "" {
			errs = append(errs, errors.New("store.redisURL is required for the redis driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver must be sqlite, postgres or redis, got %q", c.Store.Driver))
	}

	if len(c.Auth.JWTSecret) < auth.MinSecretLength {
		errs = append(errs, fmt.Errorf("auth.jwtSecret must be at least %d characters", auth.MinSecretLength))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.tokenTTL must be positive"))
	}
	if _, err := auth.NewHasher(c.Auth.Hasher, c.Auth.BcryptCost); err != nil {
		errs = append(errs, err)
	}
	if c.Auth.MaxConcurrentHashes < 0 {
		errs = append(errs, errors.New("auth.maxConcurrentHashes must not be negative"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}

// SlogLevel parses log.level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// RegisterFlags adds the overridable flags to fs. Their defaults are only
// used for help output: an unchanged flag never overrides the file or env.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Int("port", 8080, "HTTP listen port")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("log-format", "text", "log format (text or json)")
	fs.String("store", DriverSQLite, "storage backend (sqlite, postgres, redis)")
	fs.String("sqlite-path", "data/omok.db", "sqlite database file")
	fs.String("postgres-url", "", "postgres connection URL")
	fs.String("redis-url", "", "redis connection URL")
	fs.String("hasher", auth.HasherBcrypt, "password hasher (bcrypt or argon2id)")
}
