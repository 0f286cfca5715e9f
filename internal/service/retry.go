package service

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/YongminGwon/omok-server/internal/apperror"
)

// RetryConfig bounds the retries of idempotent store reads.
//
// Only reads are retried, and only when the store reports
// apperror.ErrStoreUnavailable. Writes (Insert, InsertMatch) are never
// retried: a write that timed out may still have committed.
type RetryConfig struct {
	Attempts  uint64        // retries after the first try; 0 disables
	BaseDelay time.Duration // first backoff, doubled each retry
}

// DefaultRetryConfig is used when a service is built without WithRetry.
var DefaultRetryConfig = RetryConfig{Attempts: 2, BaseDelay: 50 * time.Millisecond}

// Option configures a service.
type Option func(*options)

type options struct {
	retry     RetryConfig
	hashLimit int
}

func defaultOptions() options {
	return options{retry: DefaultRetryConfig}
}

// WithRetry overrides the read retry policy.
func WithRetry(cfg RetryConfig) Option {
	return func(o *options) { o.retry = cfg }
}

// WithHashConcurrency caps concurrent password hash and verify calls in
// an AuthService. Zero or less means no cap.
func WithHashConcurrency(n int) Option {
	return func(o *options) { o.hashLimit = n }
}

// withReadRetry runs read, retrying transient store failures with
// exponential backoff. Any other error ends the loop at once.
func withReadRetry[T any](ctx context.Context, cfg RetryConfig, read func(context.Context) (T, error)) (T, error) {
	var result T
	if cfg.Attempts == 0 {
		return read(ctx)
	}

	base := cfg.BaseDelay
	if base <= 0 {
		base = time.Millisecond
	}
	backoff := retry.WithMaxRetries(cfg.Attempts, retry.NewExponential(base))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		v, err := read(ctx)
		if err != nil {
			if apperror.IsRetryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		result = v
		return nil
	})
	return result, err
}
