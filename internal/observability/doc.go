// Package observability provides logging, metrics, and tracing
// functionality for the edge gateway.
//
// Structured logging is built on zap, metrics on a private Prometheus
// registry, and tracing on OpenTelemetry with OTLP gRPC export.
//
// # Logging
//
//	logger, err := observability.NewLogger(observability.DefaultLogConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
// The gateway trace id travels in the request context. A logger obtained
// through WithContext carries it as the trace_id field:
//
//	ctx = observability.ContextWithTraceID(ctx, traceID)
//	logger.WithContext(ctx).Info("forwarding")
//
// # Metrics
//
//	metrics := observability.NewMetrics("edge")
//	mux.Handle("/metrics", metrics.Handler())
//
// # Tracing
//
//	tracer, err := observability.NewTracer(cfg)
//	defer tracer.Shutdown(ctx)
package observability
