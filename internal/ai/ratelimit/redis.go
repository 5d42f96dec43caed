package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "at3:ratelimit:"

// slidingWindow trims entries older than the window, then admits and
// records the request only while the count is under the limit. Runs as
// a Lua script so check-and-add is atomic across concurrent callers.
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, 0, window_start)
	local current = redis.call('ZCARD', key)
	if current < limit then
		redis.call('ZADD', key, now, now)
		redis.call('EXPIRE', key, ttl)
		return {1, current + 1}
	end
	return {0, current}
`)

// RedisLimiter is a sliding-window limiter backed by a shared Redis, so
// concurrent CI runs count against one quota.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// RedisOption configures a RedisLimiter.
type RedisOption func(*RedisLimiter)

// WithPrefix namespaces the Redis keys.
func WithPrefix(prefix string) RedisOption {
	return func(r *RedisLimiter) { r.prefix = prefix }
}

// NewRedisLimiter allows limit requests per window per key.
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration, opts ...RedisOption) (*RedisLimiter, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if limit <= 0 {
		return nil, errors.New("limit must be greater than 0")
	}
	if window <= 0 {
		return nil, errors.New("window must be greater than 0")
	}
	r := &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Allow records the request unless the window is already full.
func (r *RedisLimiter) Allow(ctx context.Context, key string) (*Decision, error) {
	now := time.Now()
	windowStart := now.Add(-r.window)

	result, err := slidingWindow.Run(ctx, r.client, []string{r.prefix + key},
		now.UnixNano(),
		windowStart.UnixNano(),
		r.limit,
		int(r.window.Seconds()),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return nil, errors.New("unexpected rate limit script result")
	}
	allowed, ok := values[0].(int64)
	if !ok {
		return nil, errors.New("unexpected rate limit script result")
	}
	count, ok := values[1].(int64)
	if !ok {
		return nil, errors.New("unexpected rate limit script result")
	}

	remaining := r.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return &Decision{
		Limit:     r.limit,
		Remaining: remaining,
		ResetAt:   now.Add(r.window),
		Allowed:   allowed == 1,
	}, nil
}

// Reset clears the window for key.
func (r *RedisLimiter) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

// Count reports how many requests the current window holds.
func (r *RedisLimiter) Count(ctx context.Context, key string) (int, error) {
	redisKey := r.prefix + key
	windowStart := time.Now().Add(-r.window)

	pipe := r.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	card := pipe.ZCard(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("rate limit count failed: %w", err)
	}
	return int(card.Val()), nil
}
