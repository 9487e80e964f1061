package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLocalLimiter_Allow(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	limiter := newLocalLimiter(Limit{Requests: 5, Window: time.Second}, clock.Now)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		res, err := limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d should be allowed", i+1)
	}

	res, err := limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 5, res.Limit)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, res.RetryAfter, 200*time.Millisecond)

	// Other keys have their own bucket.
	res, err = limiter.Allow(ctx, "user-2")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	// One token refills every 200ms.
	clock.Advance(200 * time.Millisecond)
	res, err = limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestLocalLimiter_Burst(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	limiter := newLocalLimiter(Limit{Requests: 100, Window: time.Minute, Burst: 2}, clock.Now)
	ctx := context.Background()

	res, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)

	res, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
}

func TestLocalLimiter_CancelledContext(t *testing.T) {
	t.Parallel()

	limiter := newLocalLimiter(Limit{Requests: 1, Window: time.Second}, time.Now)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := limiter.Allow(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalLimiter_Cleanup(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	limiter := newLocalLimiter(Limit{Requests: 1, Window: time.Second}, clock.Now)
	ctx := context.Background()

	_, err := limiter.Allow(ctx, "old")
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = limiter.Allow(ctx, "fresh")
	require.NoError(t, err)
	require.Equal(t, 2, limiter.Size())

	limiter.Cleanup(30 * time.Second)
	assert.Equal(t, 1, limiter.Size())
}

func TestLocalLimiter_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	limiter := NewLocalLimiter(Limit{Requests: 1, Window: time.Second})
	assert.NoError(t, limiter.Close())
	assert.NoError(t, limiter.Close())
}

func TestLocalLimiter_ConcurrentKeys(t *testing.T) {
	t.Parallel()

	limiter := newLocalLimiter(Limit{Requests: 10, Window: time.Hour}, time.Now)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := limiter.Allow(ctx, "shared")
			if err == nil && res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, allowed)
}

func TestNoopLimiter(t *testing.T) {
	t.Parallel()

	res, err := NewNoopLimiter().Allow(context.Background(), "any")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
