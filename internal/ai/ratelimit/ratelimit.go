// Package ratelimit bounds how often the suggestion client may call the
// model API. The in-memory token bucket covers a single developer
// machine; the Redis sliding window is for shared environments like CI
// where several runs hit the same quota.
package ratelimit

import (
	"context"
	"time"
)

// Limiter decides whether one more request is allowed for a key.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Decision, error)
}

// Decision is the outcome of one Allow call.
type Decision struct {
	// Limit is the maximum number of requests per window.
	Limit int
	// Remaining is how many requests are left in the current window.
	Remaining int
	// ResetAt is when the window replenishes.
	ResetAt time.Time
	// Allowed reports whether this request may proceed.
	Allowed bool
}
