package middleware

import (
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/edgegw/internal/headers"
	"github.com/vyrodovalexey/edgegw/internal/observability"
	"github.com/vyrodovalexey/edgegw/internal/pipeline"
	"github.com/vyrodovalexey/edgegw/internal/util"
)

// Completion signals reported by the observability stage.
const (
	SignalComplete = "complete"
	SignalCancel   = "cancel"
	SignalError    = "error"
)

// spanName is the name of the server span opened per request.
const spanName = "edge.request"

// Observability logs, measures and traces each request around the rest of
// the chain.
type Observability struct {
	logger  observability.Logger
	metrics *observability.Metrics
	tracer  *observability.Tracer
}

// NewObservability creates the observability stage. Any argument may be nil.
func NewObservability(
	logger observability.Logger,
	metrics *observability.Metrics,
	tracer *observability.Tracer,
) *Observability {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Observability{logger: logger, metrics: metrics, tracer: tracer}
}

// Name implements pipeline.Stage.
func (s *Observability) Name() string { return stageObservability }

// Order implements pipeline.Stage.
func (s *Observability) Order() int { return pipeline.OrderObservability }

// Handle logs "request started", runs the rest of the chain and, on every
// exit path, logs "request completed" with the completion signal. A panic
// from an inner stage is recorded with the error signal and re-raised.
func (s *Observability) Handle(w http.ResponseWriter, r *http.Request, next http.Handler) {
	start := time.Now()

	traceID := observability.TraceIDFromContext(r.Context())
	if traceID == "" {
		traceID = r.Header.Get(headers.TraceID)
	}

	ctx, span := s.tracer.StartSpan(r.Context(), spanName,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("url.path", r.URL.Path),
			attribute.String("edge.trace_id", traceID),
		),
	)
	ctx = observability.ContextWithSpan(ctx, span)
	r = r.WithContext(ctx)

	rw := util.NewStatusCapturingResponseWriter(w)

	s.safely(func() {
		s.metrics.IncActiveRequests()
		s.logger.Info("request started",
			observability.String("method", r.Method),
			observability.String("path", r.URL.Path),
			observability.String("query", r.URL.RawQuery),
			observability.String("trace_id", traceID),
		)
	})

	signal := SignalComplete
	defer func() {
		rec := recover()
		if rec != nil {
			signal = SignalError
		} else if ctx.Err() != nil {
			signal = SignalCancel
		}

		s.safely(func() {
			s.complete(r, rw.StatusCode, signal, time.Since(start), traceID, span, rec)
		})

		if rec != nil {
			panic(rec)
		}
	}()

	next.ServeHTTP(rw, r)
}

func (s *Observability) complete(
	r *http.Request,
	status int,
	signal string,
	duration time.Duration,
	traceID string,
	span trace.Span,
	rec any,
) {
	defer span.End()

	s.metrics.DecActiveRequests()
	s.metrics.RecordRequest(r.Method, status, signal, duration)

	span.SetAttributes(
		attribute.Int("http.response.status_code", status),
		attribute.String("edge.signal", signal),
	)
	switch {
	case rec != nil:
		span.SetStatus(codes.Error, fmt.Sprint(rec))
	case status >= http.StatusInternalServerError:
		span.SetStatus(codes.Error, http.StatusText(status))
	}

	fields := []observability.Field{
		observability.String("signal", signal),
		observability.String("method", r.Method),
		observability.String("path", r.URL.Path),
		observability.Int("status", status),
		observability.Duration("duration", duration),
		observability.String("trace_id", traceID),
	}
	if rec != nil {
		fields = append(fields, observability.Any("panic", rec))
		s.logger.Error("request completed", fields...)
		return
	}
	s.logger.Info("request completed", fields...)
}

// safely runs a logging or metrics call; a failing sink never affects the
// request.
func (s *Observability) safely(fn func()) {
	defer func() { _ = recover() }()
	fn()
}
