package jwt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	jwtx "github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/vyrodovalexey/edgegw/internal/config"
	"github.com/vyrodovalexey/edgegw/internal/observability"
)

// Verifier checks a compact bearer token and returns its claims.
type Verifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// SecretReader fetches a single string secret, such as from Vault KV v2.
type SecretReader interface {
	ReadString(ctx context.Context, mount, path, key string) (string, error)
}

// Option configures claim validation.
type Option func(*verifier)

// WithIssuer requires the iss claim to equal issuer.
func WithIssuer(issuer string) Option {
	return func(v *verifier) {
		v.issuer = issuer
	}
}

// WithAudience requires audience to be present in the aud claim.
func WithAudience(audience string) Option {
	return func(v *verifier) {
		v.audience = audience
	}
}

// WithClockSkew tolerates skew when checking exp, nbf and iat.
func WithClockSkew(skew time.Duration) Option {
	return func(v *verifier) {
		v.skew = skew
	}
}

// WithClock overrides the time source used for validation.
func WithClock(now func() time.Time) Option {
	return func(v *verifier) {
		v.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(v *verifier) {
		v.logger = logger
	}
}

type verifier struct {
	key      jwtx.ParseOption
	issuer   string
	audience string
	skew     time.Duration
	now      func() time.Time
	logger   observability.Logger
}

// NewHMACVerifier verifies tokens signed with a shared secret using one of
// HS256, HS384 or HS512.
func NewHMACVerifier(algorithm string, secret []byte, opts ...Option) (Verifier, error) {
	if algorithm == "" {
		algorithm = AlgHS256
	}
	switch algorithm {
	case AlgHS256, AlgHS384, AlgHS512:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, algorithm)
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: empty secret", ErrInvalidKey)
	}

	key := make([]byte, len(secret))
	copy(key, secret)
	return newVerifier(jwtx.WithKey(jwa.SignatureAlgorithm(algorithm), key), opts), nil
}

// NewJWKSVerifier verifies tokens against the key set served at url. The
// set is fetched once before returning and refreshed in the background
// every refresh interval until ctx is canceled.
func NewJWKSVerifier(ctx context.Context, url string, refresh time.Duration, opts ...Option) (Verifier, error) {
	cache := jwk.NewCache(ctx)

	var regOpts []jwk.RegisterOption
	if refresh > 0 {
		regOpts = append(regOpts,
			jwk.WithMinRefreshInterval(refresh),
			jwk.WithRefreshInterval(refresh),
		)
	}
	if err := cache.Register(url, regOpts...); err != nil {
		return nil, fmt.Errorf("registering JWKS %s: %w", url, err)
	}
	if _, err := cache.Refresh(ctx, url); err != nil {
		return nil, fmt.Errorf("%w: fetching JWKS %s: %w", ErrInvalidKey, url, err)
	}

	set := jwk.NewCachedSet(cache, url)
	keyOpt := jwtx.WithKeySet(set,
		jws.WithInferAlgorithmFromKey(true),
		jws.WithRequireKid(false),
	)
	return newVerifier(keyOpt, opts), nil
}

// NewVerifierFromConfig builds the verifier for the configured key source.
// A Vault-sourced secret is read once through secrets.
func NewVerifierFromConfig(
	ctx context.Context,
	cfg config.JWTConfig,
	secrets SecretReader,
	logger observability.Logger,
) (Verifier, error) {
	opts := []Option{
		WithIssuer(cfg.Issuer),
		WithAudience(cfg.Audience),
		WithClockSkew(cfg.ClockSkew.Duration()),
		WithLogger(logger),
	}

	switch {
	case cfg.JWKSURL != "":
		return NewJWKSVerifier(ctx, cfg.JWKSURL, cfg.JWKSRefresh.Duration(), opts...)

	case cfg.Vault != nil:
		if secrets == nil {
			return nil, fmt.Errorf("%w: no secret reader for vault key source", ErrInvalidKey)
		}
		secret, err := secrets.ReadString(ctx, cfg.Vault.Mount, cfg.Vault.Path, cfg.Vault.Key)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
		}
		return NewHMACVerifier(cfg.Algorithm, []byte(secret), opts...)

	default:
		return NewHMACVerifier(cfg.Algorithm, []byte(cfg.Secret), opts...)
	}
}

func newVerifier(key jwtx.ParseOption, opts []Option) *verifier {
	v := &verifier{key: key, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = observability.NopLogger()
	}
	return v
}

// Verify implements Verifier.
func (v *verifier) Verify(ctx context.Context, token string) (Claims, error) {
	if token == "" || strings.Count(token, ".") != 2 {
		return nil, ErrTokenMalformed
	}

	parseOpts := []jwtx.ParseOption{
		v.key,
		jwtx.WithValidate(true),
		jwtx.WithAcceptableSkew(v.skew),
		jwtx.WithClock(jwtx.ClockFunc(v.now)),
	}
	if v.issuer != "" {
		parseOpts = append(parseOpts, jwtx.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		parseOpts = append(parseOpts, jwtx.WithAudience(v.audience))
	}

	tok, err := jwtx.ParseString(token, parseOpts...)
	if err != nil {
		v.logger.Debug("token verification failed", observability.Error(err))
		return nil, classify(err)
	}

	claims, err := tok.AsMap(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return Claims(claims), nil
}
