package auth

import "context"

// Principal is the caller identity established by authentication.
// It is read-only once stored in the request context.
type Principal struct {
	// UserID is the rendered user id claim; empty for anonymous callers.
	UserID string

	// Claims holds the verified token claims.
	Claims map[string]any

	// Anonymous marks a request admitted on a public path without a
	// credential.
	Anonymous bool
}

var anonymous = &Principal{Anonymous: true}

// AnonymousPrincipal returns the shared marker for unauthenticated requests
// on public paths.
func AnonymousPrincipal() *Principal {
	return anonymous
}

type principalKey struct{}

// ContextWithPrincipal stores p in ctx.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by the authentication
// stage. Stages after authentication and the dispatcher read it from here.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
