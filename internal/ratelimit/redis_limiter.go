package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vyrodovalexey/edgegw/internal/observability"
)

var (
	_ Limiter   = (*RedisLimiter)(nil)
	_ io.Closer = (*RedisLimiter)(nil)
)

// ErrRedisUnavailable indicates Redis could not answer an admission check.
var ErrRedisUnavailable = errors.New("redis is unavailable")

// incrementWithExpiryScript is the Lua script for atomic increment with expiry.
// KEYS[1] = key
// ARGV[1] = delta
// ARGV[2] = expiration in seconds
// Returns the new count and the remaining TTL in milliseconds.
var incrementWithExpiryScript = redis.NewScript(`
	local current = redis.call('INCRBY', KEYS[1], ARGV[1])
	if current == tonumber(ARGV[1]) then
		redis.call('EXPIRE', KEYS[1], ARGV[2])
	end
	return {current, redis.call('PTTL', KEYS[1])}
`)

// RedisLimiter is a fixed-window counter shared by every gateway replica.
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
	limit  Limit
	logger observability.Logger
	owned  bool
}

// RedisLimiterOption is a functional option for RedisLimiter.
type RedisLimiterOption func(*RedisLimiter)

// WithRedisPrefix sets the key prefix.
func WithRedisPrefix(prefix string) RedisLimiterOption {
	return func(l *RedisLimiter) {
		l.prefix = prefix
	}
}

// WithRedisLogger sets the logger.
func WithRedisLogger(logger observability.Logger) RedisLimiterOption {
	return func(l *RedisLimiter) {
		l.logger = logger
	}
}

// NewRedisLimiter creates a limiter on an existing client. The caller keeps
// ownership of the client.
func NewRedisLimiter(client redis.UniversalClient, limit Limit, opts ...RedisLimiterOption) *RedisLimiter {
	l := &RedisLimiter{
		client: client,
		limit:  limit,
		logger: observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// DialRedisLimiter connects to Redis, verifies the connection and returns a
// limiter that closes the client on Close.
func DialRedisLimiter(
	ctx context.Context,
	opts *redis.Options,
	limit Limit,
	limiterOpts ...RedisLimiterOption,
) (*RedisLimiter, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", ErrRedisUnavailable, opts.Addr, err)
	}

	l := NewRedisLimiter(client, limit, limiterOpts...)
	l.owned = true
	return l, nil
}

// Allow implements Limiter.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error before redis increment: %w", err)
	}

	windowSeconds := int64(math.Ceil(l.limit.Window.Seconds()))
	if windowSeconds < 1 {
		windowSeconds = 1
	}

	vals, err := incrementWithExpiryScript.Run(ctx, l.client, []string{l.prefix + key}, 1, windowSeconds).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}
	if len(vals) != 2 {
		return nil, fmt.Errorf("%w: unexpected script reply %v", ErrRedisUnavailable, vals)
	}

	count, ttl := vals[0], time.Duration(vals[1])*time.Millisecond
	if ttl < 0 {
		ttl = time.Duration(windowSeconds) * time.Second
	}

	res := &Result{Limit: l.limit.Requests}
	if count > int64(l.limit.Requests) {
		res.RetryAfter = ttl
		l.logger.Debug("redis rate limit exceeded",
			observability.String("key", key),
			observability.Int64("count", count),
		)
		return res, nil
	}

	res.Allowed = true
	res.Remaining = l.limit.Requests - int(count)
	return res, nil
}

// Ping checks that the store is reachable.
func (l *RedisLimiter) Ping(ctx context.Context) error {
	if err := l.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}
	return nil
}

// Close releases the client when the limiter created it.
func (l *RedisLimiter) Close() error {
	if !l.owned {
		return nil
	}
	return l.client.Close()
}
