package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/vyrodovalexey/edgegw/internal/headers"
	"github.com/vyrodovalexey/edgegw/internal/observability"
	"github.com/vyrodovalexey/edgegw/internal/pipeline"
)

// TraceContext guarantees that every request carries a trace id.
type TraceContext struct {
	generate func() string
}

// NewTraceContext returns a trace context stage generating random UUIDs.
func NewTraceContext() *TraceContext {
	return TraceContextWithGenerator(func() string { return uuid.New().String() })
}

// TraceContextWithGenerator returns a trace context stage that uses a custom
// ID generator for requests arriving without one.
func TraceContextWithGenerator(generator func() string) *TraceContext {
	if generator == nil {
		generator = func() string { return uuid.New().String() }
	}
	return &TraceContext{generate: generator}
}

// Name implements pipeline.Stage.
func (s *TraceContext) Name() string { return stageTraceContext }

// Order implements pipeline.Stage.
func (s *TraceContext) Order() int { return pipeline.OrderTraceContext }

// Handle uses the inbound X-Trace-Id when it is not blank and generates one
// otherwise. The id is written to the request header for downstream stages
// and the backend, echoed on the response, and bound to the request context.
func (s *TraceContext) Handle(w http.ResponseWriter, r *http.Request, next http.Handler) {
	traceID := r.Header.Get(headers.TraceID)
	if strings.TrimSpace(traceID) == "" {
		traceID = s.generate()
	}

	r.Header.Set(headers.TraceID, traceID)
	w.Header().Set(headers.TraceID, traceID)

	ctx := observability.ContextWithTraceID(r.Context(), traceID)
	next.ServeHTTP(w, r.WithContext(ctx))
}
