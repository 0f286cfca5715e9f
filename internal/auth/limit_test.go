package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewHashLimiter_RejectsNonPositive(t *testing.T) {
	for _, n := range []int{0, -1} {
		if _, err := NewHashLimiter(n); err == nil {
			t.Errorf("NewHashLimiter(%d) error = nil, want error", n)
		}
	}
}

func TestHashLimiter_BoundsConcurrency(t *testing.T) {
	l, err := NewHashLimiter(2)
	if err != nil {
		t.Fatal(err)
	}

	var (
		wg      sync.WaitGroup
		running atomic.Int32
		peak    atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background())
			if err != nil {
				t.Errorf("Acquire() error = %v", err)
				return
			}
			defer release()

			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
		}()
	}
	wg.Wait()

	if got := peak.Load(); got > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", got)
	}
	if l.InUse() != 0 {
		t.Errorf("InUse() = %d after all releases, want 0", l.InUse())
	}
}

func TestHashLimiter_AcquireHonoursContext(t *testing.T) {
	l, err := NewHashLimiter(1)
	if err != nil {
		t.Fatal(err)
	}
	release, err := l.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := l.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Acquire() on a full limiter error = %v, want DeadlineExceeded", err)
	}
}
