package ratelimit

import (
	"context"
	"io"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Local limiter cleanup defaults.
const (
	// DefaultClientTTL is how long an idle key keeps its bucket.
	DefaultClientTTL = 10 * time.Minute

	// DefaultCleanupInterval is how often idle buckets are swept.
	DefaultCleanupInterval = time.Minute
)

var (
	_ Limiter   = (*LocalLimiter)(nil)
	_ io.Closer = (*LocalLimiter)(nil)
)

// clientEntry holds a rate limiter and its last access time for TTL-based cleanup.
type clientEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// LocalLimiter is an in-process token bucket per key. Buckets refill at
// Requests per Window and hold up to Burst tokens.
type LocalLimiter struct {
	limit     Limit
	every     rate.Limit
	clients   map[string]*clientEntry
	mu        sync.Mutex
	clientTTL time.Duration
	now       func() time.Time

	stopCh    chan struct{}
	closeOnce sync.Once
}

// NewLocalLimiter creates a local limiter and starts its cleanup loop.
// Call Close to stop it.
func NewLocalLimiter(limit Limit) *LocalLimiter {
	l := newLocalLimiter(limit, time.Now)
	go l.cleanupLoop(DefaultCleanupInterval)
	return l
}

func newLocalLimiter(limit Limit, now func() time.Time) *LocalLimiter {
	every := rate.Inf
	if limit.Requests > 0 && limit.Window > 0 {
		every = rate.Every(limit.Window / time.Duration(limit.Requests))
	}
	return &LocalLimiter{
		limit:     limit,
		every:     every,
		clients:   make(map[string]*clientEntry),
		clientTTL: DefaultClientTTL,
		now:       now,
		stopCh:    make(chan struct{}),
	}
}

// Allow implements Limiter.
func (l *LocalLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := l.now()
	limiter := l.bucket(key, now)

	res := &Result{Limit: l.limit.Requests}

	reservation := limiter.ReserveN(now, 1)
	if !reservation.OK() {
		res.RetryAfter = l.limit.Window
		return res, nil
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		res.RetryAfter = delay
		return res, nil
	}

	res.Allowed = true
	if remaining := int(limiter.TokensAt(now)); remaining > 0 {
		res.Remaining = remaining
	}
	return res, nil
}

// bucket returns the limiter for key, creating it on first use.
func (l *LocalLimiter) bucket(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.clients[key]
	if !ok {
		entry = &clientEntry{limiter: rate.NewLimiter(l.every, l.limit.burst())}
		l.clients[key] = entry
	}
	entry.lastAccess = now
	return entry.limiter
}

// Cleanup removes buckets idle for longer than ttl.
func (l *LocalLimiter) Cleanup(ttl time.Duration) {
	cutoff := l.now().Add(-ttl)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, entry := range l.clients {
		if entry.lastAccess.Before(cutoff) {
			delete(l.clients, key)
		}
	}
}

// Size returns the number of tracked keys.
func (l *LocalLimiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *LocalLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Cleanup(l.clientTTL)
		case <-l.stopCh:
			return
		}
	}
}

// Close stops the cleanup loop. Safe to call multiple times.
func (l *LocalLimiter) Close() error {
	l.closeOnce.Do(func() { close(l.stopCh) })
	return nil
}
