package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/vyrodovalexey/edgegw/internal/auth"
	"github.com/vyrodovalexey/edgegw/internal/auth/jwt"
	"github.com/vyrodovalexey/edgegw/internal/config"
	"github.com/vyrodovalexey/edgegw/internal/health"
	"github.com/vyrodovalexey/edgegw/internal/middleware"
	"github.com/vyrodovalexey/edgegw/internal/observability"
	"github.com/vyrodovalexey/edgegw/internal/pipeline"
	"github.com/vyrodovalexey/edgegw/internal/proxy"
	"github.com/vyrodovalexey/edgegw/internal/ratelimit"
	"github.com/vyrodovalexey/edgegw/internal/vault"
)

// metricsNamespace prefixes every exported metric.
const metricsNamespace = "edgegw"

// application holds all application components.
type application struct {
	config        *config.GatewayConfig
	logger        observability.Logger
	metrics       *observability.Metrics
	tracer        *observability.Tracer
	limiter       ratelimit.LimiterCloser
	healthChecker *health.Checker
	executor      *pipeline.Executor
	handler       http.Handler
	server        *http.Server
	adminServer   *http.Server
}

// newApplication wires the pipeline for cfg. Key material and the limiter
// store are contacted here, so a misconfigured gateway fails at startup.
func newApplication(ctx context.Context, cfg *config.GatewayConfig, logger observability.Logger) (*application, error) {
	app := &application{
		config:        cfg,
		logger:        logger,
		metrics:       observability.NewMetrics(metricsNamespace),
		healthChecker: health.NewChecker(version),
	}
	app.metrics.SetBuildInfo(version, gitCommit, buildTime)

	tracer, err := observability.NewTracer(observability.TracerConfig{
		ServiceName:  cfg.Tracing.ServiceName,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SamplingRate: cfg.Tracing.SamplingRate,
		Enabled:      cfg.Tracing.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing tracer: %w", err)
	}
	app.tracer = tracer

	verifier, err := newVerifier(ctx, cfg, logger)
	if err != nil {
		app.close(ctx)
		return nil, err
	}

	limiter, err := ratelimit.NewFromConfig(ctx, cfg.RateLimit, logger)
	if err != nil {
		app.close(ctx)
		return nil, fmt.Errorf("initializing rate limiter: %w", err)
	}
	app.limiter = limiter
	if pinger, ok := limiter.(interface{ Ping(context.Context) error }); ok {
		app.healthChecker.RegisterCheck("ratelimit_store", health.ErrorCheck(false, pinger.Ping))
	}

	dispatcher, err := newDispatcher(cfg, logger, app.metrics)
	if err != nil {
		app.close(ctx)
		return nil, err
	}

	app.executor = buildPipeline(cfg, dispatcher, verifier, limiter, logger, app.metrics, tracer)
	app.handler = middleware.Recovery(logger, app.metrics)(app.executor)

	logger.Info("pipeline assembled", observability.Strings("stages", app.executor.Stages()))
	return app, nil
}

// newVerifier builds the credential verifier, reading the HMAC secret from
// Vault when configured.
func newVerifier(ctx context.Context, cfg *config.GatewayConfig, logger observability.Logger) (jwt.Verifier, error) {
	var secrets jwt.SecretReader
	if v := cfg.Auth.JWT.Vault; v != nil {
		client, err := vault.NewClient(*v, logger)
		if err != nil {
			return nil, fmt.Errorf("initializing vault client: %w", err)
		}
		secrets = client
		logger.Info("reading JWT secret from vault",
			observability.String("mount", v.Mount),
			observability.String("path", v.Path),
		)
	}

	verifier, err := jwt.NewVerifierFromConfig(ctx, cfg.Auth.JWT, secrets, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing credential verifier: %w", err)
	}
	return verifier, nil
}

// newDispatcher returns the routing collaborator run after the last stage.
// Without an upstream every surviving request gets 404.
func newDispatcher(cfg *config.GatewayConfig, logger observability.Logger, metrics *observability.Metrics) (http.Handler, error) {
	if cfg.Upstream == "" {
		logger.Warn("no upstream configured, requests that pass the pipeline get 404")
		return http.NotFoundHandler(), nil
	}

	p, err := proxy.NewReverseProxy(cfg.Upstream,
		proxy.WithProxyLogger(logger),
		proxy.WithProxyMetrics(metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing proxy: %w", err)
	}
	return p, nil
}

// buildPipeline registers every stage. Authentication is registered before
// idempotency because both share a tier and the fingerprint needs the user.
func buildPipeline(
	cfg *config.GatewayConfig,
	dispatcher http.Handler,
	verifier jwt.Verifier,
	limiter ratelimit.Limiter,
	logger observability.Logger,
	metrics *observability.Metrics,
	tracer *observability.Tracer,
) *pipeline.Executor {
	authenticator := auth.NewAuthenticator(verifier, cfg.Auth, logger)

	var admission ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		admission = limiter
	}

	return pipeline.New(dispatcher,
		middleware.NewTraceContext(),
		middleware.NewObservability(logger, metrics, tracer),
		middleware.NewCORS(cfg.CORS),
		auth.NewStage(authenticator, logger, metrics),
		middleware.NewIdempotency(cfg.Idempotency, logger, metrics),
		middleware.NewRateLimit(ratelimit.NewHybridResolver(), admission, logger, metrics),
	)
}

// newServer creates the public listener.
func newServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
