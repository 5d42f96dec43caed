package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenBucket is an in-memory per-key token bucket: burst tokens that
// replenish continuously over rate. Idle keys are pruned on the next
// Allow call, so there is no background goroutine to stop.
type TokenBucket struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    time.Duration
	burst   int
	now     func() time.Time
}

type bucket struct {
	tokens   int
	lastSeen time.Time
}

// TokenBucketOption configures a TokenBucket.
type TokenBucketOption func(*TokenBucket)

// WithClock fixes the time source, for tests.
func WithClock(now func() time.Time) TokenBucketOption {
	return func(tb *TokenBucket) { tb.now = now }
}

// NewTokenBucket allows burst requests per key, refilling at burst
// tokens per rate. Non-positive arguments fall back to one request per
// minute.
func NewTokenBucket(rate time.Duration, burst int, opts ...TokenBucketOption) *TokenBucket {
	if rate <= 0 {
		rate = time.Minute
	}
	if burst <= 0 {
		burst = 1
	}
	tb := &TokenBucket{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(tb)
	}
	return tb
}

// Allow consumes one token for key when available.
func (tb *TokenBucket) Allow(_ context.Context, key string) (*Decision, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	tb.prune(now)

	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{tokens: tb.burst, lastSeen: now}
		tb.buckets[key] = b
	} else {
		elapsed := now.Sub(b.lastSeen)
		refill := int(float64(tb.burst) * elapsed.Seconds() / tb.rate.Seconds())
		if refill > 0 {
			b.tokens = min(tb.burst, b.tokens+refill)
			b.lastSeen = now
		}
	}

	d := &Decision{
		Limit:   tb.burst,
		ResetAt: b.lastSeen.Add(tb.rate),
	}
	if b.tokens > 0 {
		b.tokens--
		d.Remaining = b.tokens
		d.Allowed = true
	}
	return d, nil
}

// prune drops keys idle for two full windows. Caller holds the lock.
func (tb *TokenBucket) prune(now time.Time) {
	for key, b := range tb.buckets {
		if now.Sub(b.lastSeen) > 2*tb.rate {
			delete(tb.buckets, key)
		}
	}
}
