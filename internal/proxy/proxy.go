package proxy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/vyrodovalexey/edgegw/internal/auth"
	"github.com/vyrodovalexey/edgegw/internal/headers"
	"github.com/vyrodovalexey/edgegw/internal/observability"
	"github.com/vyrodovalexey/edgegw/internal/ratelimit"
	"github.com/vyrodovalexey/edgegw/internal/util"
)

const (
	errBadGateway     = `{"error":"bad gateway","message":"failed to proxy request"}`
	errGatewayTimeout = `{"error":"gateway timeout","message":"upstream did not respond in time"}`
)

// ReverseProxy forwards requests that passed the pipeline to a single
// upstream.
type ReverseProxy struct {
	target        *url.URL
	logger        observability.Logger
	metrics       *observability.Metrics
	transport     http.RoundTripper
	flushInterval time.Duration
	proxy         *httputil.ReverseProxy
}

// ProxyOption is a functional option for configuring the proxy.
type ProxyOption func(*ReverseProxy)

// WithProxyLogger sets the logger for the proxy.
func WithProxyLogger(logger observability.Logger) ProxyOption {
	return func(p *ReverseProxy) {
		p.logger = logger
	}
}

// WithProxyMetrics sets the metrics used to count upstream failures.
func WithProxyMetrics(metrics *observability.Metrics) ProxyOption {
	return func(p *ReverseProxy) {
		p.metrics = metrics
	}
}

// WithTransport sets the base transport. It is wrapped for tracing.
func WithTransport(transport http.RoundTripper) ProxyOption {
	return func(p *ReverseProxy) {
		p.transport = transport
	}
}

// WithFlushInterval sets the flush interval for streaming responses.
func WithFlushInterval(interval time.Duration) ProxyOption {
	return func(p *ReverseProxy) {
		p.flushInterval = interval
	}
}

// NewReverseProxy creates a proxy to upstream.
func NewReverseProxy(upstream string, opts ...ProxyOption) (*ReverseProxy, error) {
	if err := util.ValidateURL(upstream); err != nil {
		return nil, &ProxyError{Op: "init", Target: upstream, Cause: errors.Join(ErrInvalidTargetURL, err)}
	}
	target, err := url.Parse(upstream)
	if err != nil {
		return nil, &ProxyError{Op: "init", Target: upstream, Cause: errors.Join(ErrInvalidTargetURL, err)}
	}

	p := &ReverseProxy{
		target:        target,
		logger:        observability.NopLogger(),
		transport:     http.DefaultTransport,
		flushInterval: -1, // Immediate flush
	}
	for _, opt := range opts {
		opt(p)
	}

	p.proxy = &httputil.ReverseProxy{
		Rewrite:        p.rewrite,
		ModifyResponse: stripCORSHeaders,
		Transport:      otelhttp.NewTransport(p.transport),
		FlushInterval:  p.flushInterval,
		ErrorHandler:   p.errorHandler,
	}
	return p, nil
}

// ServeHTTP implements http.Handler.
func (p *ReverseProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.proxy.ServeHTTP(w, r)
}

// rewrite points the outbound request at the upstream and extends the
// forwarding chain with the client address.
func (p *ReverseProxy) rewrite(pr *httputil.ProxyRequest) {
	pr.SetURL(p.target)
	pr.Out.Header[headers.XForwardedFor] = pr.In.Header[headers.XForwardedFor]
	pr.SetXForwarded()
}

// stripCORSHeaders drops the upstream's CORS headers. The CORS stage has
// already written the policy onto the response, and httputil.ReverseProxy
// would append the upstream values next to it.
func stripCORSHeaders(resp *http.Response) error {
	for name := range resp.Header {
		if strings.HasPrefix(name, headers.AccessControlPrefix) {
			resp.Header.Del(name)
		}
	}
	return nil
}

func (p *ReverseProxy) errorHandler(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		p.logger.WithContext(ctx).Debug("client went away during proxying",
			observability.String("path", r.URL.Path),
		)
		return
	}

	status, body, reason := http.StatusBadGateway, errBadGateway, "upstream_unavailable"
	if errors.Is(err, context.DeadlineExceeded) {
		status, body, reason = http.StatusGatewayTimeout, errGatewayTimeout, "upstream_timeout"
	}

	fields := []observability.Field{
		observability.String("path", r.URL.Path),
		observability.String("method", r.Method),
		observability.String("target", p.target.String()),
		observability.String("rate_key", ratelimit.KeyFromContext(ctx)),
		observability.Error(err),
	}
	if principal, ok := auth.PrincipalFromContext(ctx); ok && !principal.Anonymous {
		fields = append(fields, observability.String("user_id", principal.UserID))
	}
	p.logger.WithContext(ctx).Error("proxy error", fields...)
	p.metrics.RecordRejection("proxy", reason)

	util.WriteJSONError(w, status, body)
}
