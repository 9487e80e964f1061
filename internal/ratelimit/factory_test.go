package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/edgegw/internal/config"
)

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)

	tests := []struct {
		name     string
		cfg      config.RateLimitConfig
		wantType any
		wantErr  bool
	}{
		{
			name:     "disabled",
			cfg:      config.RateLimitConfig{},
			wantType: noopCloser{},
		},
		{
			name: "local",
			cfg: config.RateLimitConfig{
				Enabled:  true,
				Backend:  config.RateLimitBackendLocal,
				Requests: 10,
				Window:   config.Duration(time.Second),
			},
			wantType: &LocalLimiter{},
		},
		{
			name: "redis",
			cfg: config.RateLimitConfig{
				Enabled:  true,
				Backend:  config.RateLimitBackendRedis,
				Requests: 10,
				Window:   config.Duration(time.Second),
				Redis:    &config.RedisConfig{Address: mr.Addr(), Prefix: "edge:"},
			},
			wantType: &RedisLimiter{},
		},
		{
			name: "redis without settings",
			cfg: config.RateLimitConfig{
				Enabled: true,
				Backend: config.RateLimitBackendRedis,
			},
			wantErr: true,
		},
		{
			name: "unknown backend",
			cfg: config.RateLimitConfig{
				Enabled: true,
				Backend: "memcached",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			limiter, err := NewFromConfig(context.Background(), tt.cfg, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { _ = limiter.Close() })

			assert.IsType(t, tt.wantType, limiter)

			res, err := limiter.Allow(context.Background(), "k")
			require.NoError(t, err)
			assert.True(t, res.Allowed)
		})
	}
}
