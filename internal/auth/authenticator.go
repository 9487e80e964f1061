package auth

import (
	"net/http"
	"strings"

	"github.com/vyrodovalexey/edgegw/internal/auth/jwt"
	"github.com/vyrodovalexey/edgegw/internal/config"
	"github.com/vyrodovalexey/edgegw/internal/headers"
	"github.com/vyrodovalexey/edgegw/internal/observability"
)

// Authenticator resolves the principal of a request from its bearer
// credential.
type Authenticator struct {
	verifier    jwt.Verifier
	userIDClaim string
	skipPaths   []string
	logger      observability.Logger
}

// NewAuthenticator creates an authenticator backed by verifier.
func NewAuthenticator(verifier jwt.Verifier, cfg config.AuthConfig, logger observability.Logger) *Authenticator {
	if logger == nil {
		logger = observability.NopLogger()
	}
	claim := cfg.UserIDClaim
	if claim == "" {
		claim = config.DefaultUserIDClaim
	}
	return &Authenticator{
		verifier:    verifier,
		userIDClaim: claim,
		skipPaths:   cfg.SkipPaths,
		logger:      logger,
	}
}

// Authenticate verifies the bearer token of r. Public paths yield the
// anonymous principal without looking at credentials.
func (a *Authenticator) Authenticate(r *http.Request) (*Principal, error) {
	if a.ShouldSkipPath(r.URL.Path) {
		return AnonymousPrincipal(), nil
	}

	authz := r.Header.Get(headers.Authorization)
	if !strings.HasPrefix(authz, headers.BearerScheme) {
		return nil, missing()
	}

	token := authz[len(headers.BearerScheme):]
	if token == "" {
		return nil, invalid(jwt.ErrTokenMalformed)
	}

	claims, err := a.verifier.Verify(r.Context(), token)
	if err != nil {
		return nil, invalid(err)
	}

	userID, err := jwt.ExtractUserID(claims, a.userIDClaim)
	if err != nil {
		return nil, invalid(err)
	}

	return &Principal{UserID: userID, Claims: claims}, nil
}

// ShouldSkipPath reports whether path is public. A trailing "*" matches
// any suffix.
func (a *Authenticator) ShouldSkipPath(path string) bool {
	for _, pattern := range a.skipPaths {
		if matchPath(pattern, path) {
			return true
		}
	}
	return false
}

func matchPath(pattern, path string) bool {
	if pattern == path {
		return true
	}
	if pattern != "" && pattern[len(pattern)-1] == '*' {
		return strings.HasPrefix(path, pattern[:len(pattern)-1])
	}
	return false
}
