package security

import (
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned when a request exceeds the rate limit.
var ErrRateLimited = errors.New("rate limit exceeded")

// Rate limit bucket names.
const (
	BucketInvoke = "invoke"
	BucketAuth   = "auth"
)

// RateLimitConfig holds configurable per-minute limits. Zero values are
// replaced with defaults.
type RateLimitConfig struct {
	InvokesPerMin int `yaml:"invokes_per_min"`
	AuthPerMin    int `yaml:"auth_per_min"`
}

func rateLimitConfigDefaults() RateLimitConfig {
	return RateLimitConfig{
		InvokesPerMin: 300,
		AuthPerMin:    60,
	}
}

// RateLimiter implements sliding-window rate limiting. Each bucket tracks
// timestamps of recent events within a one-minute window.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	window time.Duration
	limit  int
	events []time.Time
}

// NewRateLimiter creates a rate limiter with the given config.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	defaults := rateLimitConfigDefaults()
	if cfg.InvokesPerMin <= 0 {
		cfg.InvokesPerMin = defaults.InvokesPerMin
	}
	if cfg.AuthPerMin <= 0 {
		cfg.AuthPerMin = defaults.AuthPerMin
	}

	return &RateLimiter{
		now: time.Now,
		buckets: map[string]*bucket{
			BucketInvoke: {window: time.Minute, limit: cfg.InvokesPerMin},
			BucketAuth:   {window: time.Minute, limit: cfg.AuthPerMin},
		},
	}
}

// Allow checks whether an event of the given kind is allowed.
// Unknown kinds are unlimited.
func (rl *RateLimiter) Allow(kind string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[kind]
	if !ok {
		return nil
	}

	now := rl.now()
	b.evict(now)

	if len(b.events) >= b.limit {
		return ErrRateLimited
	}
	b.events = append(b.events, now)
	return nil
}

// evict removes events outside the sliding window. Events are appended in
// chronological order, so the scan stops at the first event inside it.
func (b *bucket) evict(now time.Time) {
	cutoff := now.Add(-b.window)
	i := 0
	for i < len(b.events) && b.events[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		b.events = b.events[i:]
	}
}
