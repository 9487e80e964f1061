// Package middleware provides the edge pipeline stages.
//
// # Stages
//
//   - TraceContext: assigns or propagates X-Trace-Id
//   - Observability: request logging, metrics and tracing around the chain
//   - CORS: static cross-origin policy, answers preflights
//   - Idempotency: body fingerprint in X-Request-Id, body restored downstream
//   - RateLimit: hybrid rate limit key and admission
//
// Each stage implements pipeline.Stage. Recovery is a plain middleware that
// wraps the whole executor.
//
// # Usage
//
//	exec := pipeline.New(proxy,
//	    middleware.NewTraceContext(),
//	    middleware.NewObservability(logger, metrics, tracer),
//	    middleware.NewCORS(cfg.CORS),
//	    auth.NewStage(authenticator, logger, metrics),
//	    middleware.NewIdempotency(cfg.Idempotency, logger, metrics),
//	    middleware.NewRateLimit(nil, limiter, logger, metrics),
//	)
//	handler := middleware.Recovery(logger, metrics)(exec)
package middleware
