package config

import (
	"fmt"
	"strings"

	"github.com/vyrodovalexey/edgegw/internal/util"
)

// ValidationError represents a single configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Validate checks a configuration that already had defaults applied.
func Validate(cfg *GatewayConfig) error {
	var errs ValidationErrors
	add := func(path, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if cfg.Upstream != "" {
		if err := util.ValidateURL(cfg.Upstream); err != nil {
			add("upstream", "%v", err)
		}
	}

	switch cfg.Logging.Format {
	case "json", "console":
	default:
		add("logging.format", "must be json or console, got %q", cfg.Logging.Format)
	}

	if cfg.Tracing.SamplingRate < 0 || cfg.Tracing.SamplingRate > 1 {
		add("tracing.samplingRate", "must be within [0, 1]")
	}

	if cfg.CORS.MaxAge < 0 {
		add("cors.maxAge", "must not be negative")
	}
	for i, m := range cfg.CORS.AllowMethods {
		if err := util.ValidateHTTPMethod(m); err != nil {
			add(fmt.Sprintf("cors.allowMethods[%d]", i), "%v", err)
		}
	}

	validateJWT(&cfg.Auth.JWT, add)

	for i, m := range cfg.Idempotency.Methods {
		if err := util.ValidateHTTPMethod(m); err != nil {
			add(fmt.Sprintf("idempotency.methods[%d]", i), "%v", err)
		}
	}
	if cfg.Idempotency.BodyLimit() < 0 {
		add("idempotency.maxBodyBytes", "must not be negative")
	}

	validateRateLimit(&cfg.RateLimit, add)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateJWT(jwt *JWTConfig, add func(path, format string, args ...interface{})) {
	sources := 0
	if jwt.Secret != "" {
		sources++
	}
	if jwt.JWKSURL != "" {
		sources++
		if err := util.ValidateURL(jwt.JWKSURL); err != nil {
			add("auth.jwt.jwksUrl", "%v", err)
		}
	}
	if jwt.Vault != nil {
		sources++
		if jwt.Vault.Address == "" {
			add("auth.jwt.vault.address", "is required")
		} else if err := util.ValidateURL(jwt.Vault.Address); err != nil {
			add("auth.jwt.vault.address", "%v", err)
		}
		if jwt.Vault.Path == "" {
			add("auth.jwt.vault.path", "is required")
		}
	}

	switch {
	case sources == 0:
		add("auth.jwt", "one of secret, jwksUrl or vault is required")
	case sources > 1:
		add("auth.jwt", "secret, jwksUrl and vault are mutually exclusive")
	}

	if !strings.HasPrefix(jwt.Algorithm, "HS") && jwt.JWKSURL == "" {
		add("auth.jwt.algorithm", "%s needs a jwksUrl key source", jwt.Algorithm)
	}
}

func validateRateLimit(rl *RateLimitConfig, add func(path, format string, args ...interface{})) {
	if !rl.Enabled {
		return
	}
	if rl.Requests <= 0 {
		add("rateLimit.requests", "must be positive")
	}
	if rl.Window <= 0 {
		add("rateLimit.window", "must be positive")
	}
	switch rl.Backend {
	case RateLimitBackendLocal:
	case RateLimitBackendRedis:
		if rl.Redis == nil || rl.Redis.Address == "" {
			add("rateLimit.redis.address", "is required for the redis backend")
		}
	default:
		add("rateLimit.backend", "must be local or redis, got %q", rl.Backend)
	}
}
