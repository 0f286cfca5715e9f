package redis

// Config holds Redis connection settings.
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379/0)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int
}

// DefaultConfig returns sensible defaults for Redis configuration.
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379/0",
		PoolSize:     10,
		MinIdleConns: 2,
	}
}
