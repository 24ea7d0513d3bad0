package security

import (
	"errors"
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{InvokesPerMin: 2})

	if err := rl.Allow(BucketInvoke); err != nil {
		t.Fatalf("first allow: %v", err)
	}
	if err := rl.Allow(BucketInvoke); err != nil {
		t.Fatalf("second allow: %v", err)
	}
	if err := rl.Allow(BucketInvoke); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestRateLimiterWindowEviction(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{InvokesPerMin: 1})

	current := time.Now()
	rl.now = func() time.Time { return current }

	if err := rl.Allow(BucketInvoke); err != nil {
		t.Fatalf("allow: %v", err)
	}
	if err := rl.Allow(BucketInvoke); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	// Advance past the window; the old event must be evicted.
	current = current.Add(61 * time.Second)
	if err := rl.Allow(BucketInvoke); err != nil {
		t.Fatalf("allow after window: %v", err)
	}
}

func TestRateLimiterUnknownBucket(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{})
	for range 100 {
		if err := rl.Allow("unknown"); err != nil {
			t.Fatalf("unknown bucket should be unlimited: %v", err)
		}
	}
}
