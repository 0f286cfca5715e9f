package auth

import (
	"context"
	"fmt"
)

// HashLimiter bounds how many password hashes run at once.
//
// A bcrypt hash at the default cost keeps one core busy for a few hundred
// milliseconds. Without a bound, a burst of logins queues that work on every
// core at once and starves request handling. Callers past the limit wait for
// a free slot or for their context to end.
//
// The slots are a buffered channel: sending takes a slot, receiving frees it.
type HashLimiter struct {
	slots chan struct{}
}

// NewHashLimiter allows n concurrent hashes. n must be positive.
func NewHashLimiter(n int) (*HashLimiter, error) {
	if n <= 0 {
		return nil, fmt.Errorf("auth: hash concurrency must be positive, got %d", n)
	}
	return &HashLimiter{slots: make(chan struct{}, n)}, nil
}

// Acquire blocks until a slot is free or ctx is done. The returned release
// must be called exactly once.
func (l *HashLimiter) Acquire(ctx context.Context) (release func(), err error) {
	select {
	case l.slots <- struct{}{}:
		return func() { <-l.slots }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// InUse reports how many slots are taken.
func (l *HashLimiter) InUse() int {
	return len(l.slots)
}
