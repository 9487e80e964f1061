package config

import "time"

// Default values applied by ApplyDefaults.
const (
	DefaultListenAddress      = ":8080"
	DefaultAdminAddress       = ":9090"
	DefaultServiceName        = "edgegw"
	DefaultJWTAlgorithm       = "HS256"
	DefaultUserIDClaim        = "id"
	DefaultJWKSRefresh        = 15 * time.Minute
	DefaultMaxBodyBytes int64 = 10 << 20
	DefaultCORSMaxAge         = 3600
	DefaultShutdownTimeout    = 30 * time.Second
	DefaultRateLimitRequests  = 100
	DefaultRateLimitWindow    = time.Minute
	DefaultRedisPrefix        = "edgegw:ratelimit:"
	DefaultVaultMount         = "secret"
	DefaultVaultSecretKey     = "secret"
)

// Rate limiter backends.
const (
	RateLimitBackendLocal = "local"
	RateLimitBackendRedis = "redis"
)

// GatewayConfig is the root configuration of the edge gateway.
type GatewayConfig struct {
	Listen          string            `yaml:"listen"`
	Upstream        string            `yaml:"upstream"`
	ShutdownTimeout Duration          `yaml:"shutdownTimeout,omitempty"`
	Logging         LoggingConfig     `yaml:"logging"`
	Admin           AdminConfig       `yaml:"admin"`
	Tracing         TracingConfig     `yaml:"tracing"`
	CORS            CORSConfig        `yaml:"cors"`
	Auth            AuthConfig        `yaml:"auth"`
	Idempotency     IdempotencyConfig `yaml:"idempotency"`
	RateLimit       RateLimitConfig   `yaml:"rateLimit"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output,omitempty"`
}

// AdminConfig configures the admin listener serving health and metrics.
type AdminConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// TracingConfig configures OpenTelemetry.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ServiceName  string  `yaml:"serviceName,omitempty"`
	OTLPEndpoint string  `yaml:"otlpEndpoint,omitempty"`
	SamplingRate float64 `yaml:"samplingRate,omitempty"`
}

// CORSConfig is the static cross-origin policy.
type CORSConfig struct {
	AllowOrigins     []string `yaml:"allowOrigins,omitempty"`
	AllowMethods     []string `yaml:"allowMethods,omitempty"`
	AllowHeaders     []string `yaml:"allowHeaders,omitempty"`
	ExposeHeaders    []string `yaml:"exposeHeaders,omitempty"`
	AllowCredentials *bool    `yaml:"allowCredentials,omitempty"`
	MaxAge           int      `yaml:"maxAge,omitempty"`
}

// Credentials reports whether Access-Control-Allow-Credentials is sent.
func (c CORSConfig) Credentials() bool {
	return c.AllowCredentials != nil && *c.AllowCredentials
}

// AuthConfig configures bearer authentication.
type AuthConfig struct {
	SkipPaths   []string  `yaml:"skipPaths,omitempty"`
	UserIDClaim string    `yaml:"userIdClaim,omitempty"`
	JWT         JWTConfig `yaml:"jwt"`
}

// JWTConfig configures credential verification key material.
type JWTConfig struct {
	Algorithm   string       `yaml:"algorithm,omitempty"`
	Secret      string       `yaml:"secret,omitempty"`
	JWKSURL     string       `yaml:"jwksUrl,omitempty"`
	JWKSRefresh Duration     `yaml:"jwksRefresh,omitempty"`
	Issuer      string       `yaml:"issuer,omitempty"`
	Audience    string       `yaml:"audience,omitempty"`
	ClockSkew   Duration     `yaml:"clockSkew,omitempty"`
	Vault       *VaultConfig `yaml:"vault,omitempty"`
}

// VaultConfig locates an HMAC secret in a Vault KV v2 mount.
type VaultConfig struct {
	Address string `yaml:"address"`
	Token   string `yaml:"token"`
	Mount   string `yaml:"mount,omitempty"`
	Path    string `yaml:"path"`
	Key     string `yaml:"key,omitempty"`
}

// IdempotencyConfig configures request fingerprinting.
type IdempotencyConfig struct {
	Methods      []string `yaml:"methods,omitempty"`
	MaxBodyBytes *int64   `yaml:"maxBodyBytes,omitempty"`
}

// BodyLimit returns the effective buffering cap; 0 disables it.
func (c IdempotencyConfig) BodyLimit() int64 {
	if c.MaxBodyBytes == nil {
		return DefaultMaxBodyBytes
	}
	return *c.MaxBodyBytes
}

// RateLimitConfig configures the admission stage.
type RateLimitConfig struct {
	Enabled  bool         `yaml:"enabled"`
	Backend  string       `yaml:"backend,omitempty"`
	Requests int          `yaml:"requests,omitempty"`
	Window   Duration     `yaml:"window,omitempty"`
	Burst    int          `yaml:"burst,omitempty"`
	Redis    *RedisConfig `yaml:"redis,omitempty"`
}

// RedisConfig configures the shared limiter store.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *GatewayConfig {
	cfg := &GatewayConfig{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields. CORS defaults follow the policy the
// gateway has always served.
func (c *GatewayConfig) ApplyDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListenAddress
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = Duration(DefaultShutdownTimeout)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Admin.Listen == "" {
		c.Admin.Listen = DefaultAdminAddress
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = DefaultServiceName
	}

	c.CORS.ApplyDefaults()

	if c.Auth.UserIDClaim == "" {
		c.Auth.UserIDClaim = DefaultUserIDClaim
	}
	if c.Auth.JWT.Algorithm == "" {
		c.Auth.JWT.Algorithm = DefaultJWTAlgorithm
	}
	if c.Auth.JWT.JWKSRefresh == 0 {
		c.Auth.JWT.JWKSRefresh = Duration(DefaultJWKSRefresh)
	}
	if v := c.Auth.JWT.Vault; v != nil {
		if v.Mount == "" {
			v.Mount = DefaultVaultMount
		}
		if v.Key == "" {
			v.Key = DefaultVaultSecretKey
		}
	}

	if len(c.Idempotency.Methods) == 0 {
		c.Idempotency.Methods = []string{"POST"}
	}

	if c.RateLimit.Backend == "" {
		c.RateLimit.Backend = RateLimitBackendLocal
	}
	if c.RateLimit.Requests == 0 {
		c.RateLimit.Requests = DefaultRateLimitRequests
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = Duration(DefaultRateLimitWindow)
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = c.RateLimit.Requests
	}
	if r := c.RateLimit.Redis; r != nil && r.Prefix == "" {
		r.Prefix = DefaultRedisPrefix
	}
}

// ApplyDefaults fills unset policy fields with the gateway defaults.
func (c *CORSConfig) ApplyDefaults() {
	if len(c.AllowOrigins) == 0 {
		c.AllowOrigins = []string{"*"}
	}
	if len(c.AllowMethods) == 0 {
		c.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(c.AllowHeaders) == 0 {
		c.AllowHeaders = []string{"Content-Type", "Authorization", "X-Requested-With"}
	}
	if len(c.ExposeHeaders) == 0 {
		c.ExposeHeaders = []string{"Content-Disposition"}
	}
	if c.AllowCredentials == nil {
		allow := true
		c.AllowCredentials = &allow
	}
	if c.MaxAge == 0 {
		c.MaxAge = DefaultCORSMaxAge
	}
}
