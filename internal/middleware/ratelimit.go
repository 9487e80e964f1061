package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/vyrodovalexey/edgegw/internal/headers"
	"github.com/vyrodovalexey/edgegw/internal/observability"
	"github.com/vyrodovalexey/edgegw/internal/pipeline"
	"github.com/vyrodovalexey/edgegw/internal/ratelimit"
	"github.com/vyrodovalexey/edgegw/internal/util"
)

// Admission decisions recorded in metrics.
const (
	decisionAllowed  = "allowed"
	decisionDenied   = "denied"
	decisionFailOpen = "fail_open"
)

// RateLimit resolves the rate limit key of each request and, when a limiter
// is configured, asks it for admission.
type RateLimit struct {
	resolver ratelimit.KeyResolver
	limiter  ratelimit.Limiter
	logger   observability.Logger
	metrics  *observability.Metrics
}

// NewRateLimit creates the admission stage. A nil resolver means the hybrid
// resolver; a nil limiter only resolves and stores the key.
func NewRateLimit(
	resolver ratelimit.KeyResolver,
	limiter ratelimit.Limiter,
	logger observability.Logger,
	metrics *observability.Metrics,
) *RateLimit {
	if resolver == nil {
		resolver = ratelimit.NewHybridResolver()
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &RateLimit{resolver: resolver, limiter: limiter, logger: logger, metrics: metrics}
}

// Name implements pipeline.Stage.
func (s *RateLimit) Name() string { return stageRateLimit }

// Order implements pipeline.Stage.
func (s *RateLimit) Order() int { return pipeline.OrderRateLimit }

// Handle stores the key in the request context and rejects with 429 when
// the limiter denies it. Limiter errors let the request through.
func (s *RateLimit) Handle(w http.ResponseWriter, r *http.Request, next http.Handler) {
	key := ratelimit.MustResolve(s.resolver, r)
	r = r.WithContext(ratelimit.ContextWithKey(r.Context(), key))

	if s.limiter == nil {
		next.ServeHTTP(w, r)
		return
	}

	res, err := s.limiter.Allow(r.Context(), key)
	if err != nil {
		s.logger.WithContext(r.Context()).Warn("rate limiter unavailable, admitting request",
			observability.String("key", key),
			observability.Error(err),
		)
		s.metrics.RecordRateLimitDecision(decisionFailOpen)
		next.ServeHTTP(w, r)
		return
	}

	if !res.Allowed {
		s.logger.WithContext(r.Context()).Debug("rate limit exceeded",
			observability.String("key", key),
			observability.String("path", r.URL.Path),
			observability.Duration("retry_after", res.RetryAfter),
		)
		s.metrics.RecordRateLimitDecision(decisionDenied)
		s.metrics.RecordRejection(stageRateLimit, "limit_exceeded")

		w.Header().Set(headers.RetryAfter, retryAfterSeconds(res.RetryAfter))
		util.WriteJSONError(w, http.StatusTooManyRequests, ErrRateLimitExceeded)
		return
	}

	s.metrics.RecordRateLimitDecision(decisionAllowed)
	next.ServeHTTP(w, r)
}

// retryAfterSeconds renders d as whole seconds, rounding up, never below 1.
func retryAfterSeconds(d time.Duration) string {
	secs := int64(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
