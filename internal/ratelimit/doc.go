// Package ratelimit resolves rate limit keys and decides admission.
//
// Keys come from a KeyResolver. The HybridResolver is the one the gateway
// uses: authenticated callers are keyed by user id, everyone else by
// "anonymous:" plus their network origin.
//
//	key := ratelimit.MustResolve(ratelimit.NewHybridResolver(), r)
//
// Limiters:
//   - LocalLimiter: in-process token bucket per key (golang.org/x/time/rate)
//   - RedisLimiter: fixed window counter shared across replicas (go-redis)
//   - NoopLimiter: admits everything
package ratelimit
