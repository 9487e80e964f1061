package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vyrodovalexey/edgegw/internal/config"
	"github.com/vyrodovalexey/edgegw/internal/observability"
)

// LimiterCloser is a Limiter holding resources that must be released.
type LimiterCloser interface {
	Limiter
	Close() error
}

// NewFromConfig builds the limiter selected by cfg. A disabled config yields
// a NoopLimiter.
func NewFromConfig(ctx context.Context, cfg config.RateLimitConfig, logger observability.Logger) (LimiterCloser, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}

	if !cfg.Enabled {
		return noopCloser{NewNoopLimiter()}, nil
	}

	limit := Limit{
		Requests: cfg.Requests,
		Window:   cfg.Window.Duration(),
		Burst:    cfg.Burst,
	}

	switch cfg.Backend {
	case config.RateLimitBackendLocal, "":
		logger.Info("using local rate limiter",
			observability.Int("requests", limit.Requests),
			observability.Duration("window", limit.Window),
		)
		return NewLocalLimiter(limit), nil

	case config.RateLimitBackendRedis:
		if cfg.Redis == nil {
			return nil, fmt.Errorf("redis backend selected without redis settings")
		}
		logger.Info("using redis rate limiter",
			observability.String("address", cfg.Redis.Address),
			observability.Int("requests", limit.Requests),
			observability.Duration("window", limit.Window),
		)
		limiter, err := DialRedisLimiter(ctx,
			&redis.Options{
				Addr:     cfg.Redis.Address,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			},
			limit,
			WithRedisPrefix(cfg.Redis.Prefix),
			WithRedisLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		return limiter, nil

	default:
		return nil, fmt.Errorf("unknown rate limit backend %q", cfg.Backend)
	}
}

type noopCloser struct {
	*NoopLimiter
}

func (noopCloser) Close() error { return nil }
