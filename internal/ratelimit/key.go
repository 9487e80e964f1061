package ratelimit

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/vyrodovalexey/edgegw/internal/headers"
)

// ErrUnresolvedRateKey is the panic value of MustResolve when a resolver
// that must always produce a key produced none.
var ErrUnresolvedRateKey = errors.New("rate limit key could not be resolved")

// AnonymousPrefix prefixes the network origin of unauthenticated callers in
// hybrid keys, so they never collide with user ids.
const AnonymousPrefix = "anonymous:"

// KeyResolver derives a rate limit key from a request. ok is false when no
// key can be derived.
type KeyResolver interface {
	Resolve(r *http.Request) (key string, ok bool)
}

// KeyResolverFunc adapts a function into a KeyResolver.
type KeyResolverFunc func(r *http.Request) (string, bool)

// Resolve implements KeyResolver.
func (f KeyResolverFunc) Resolve(r *http.Request) (string, bool) {
	return f(r)
}

// NetworkOriginResolver keys by client address: the first X-Forwarded-For
// hop, or the host part of RemoteAddr when the header is absent, empty or
// "unknown".
type NetworkOriginResolver struct{}

// Resolve implements KeyResolver.
func (NetworkOriginResolver) Resolve(r *http.Request) (string, bool) {
	origin := NetworkOrigin(r)
	return origin, origin != ""
}

// PrincipalResolver keys by authenticated user id.
type PrincipalResolver struct{}

// Resolve implements KeyResolver.
func (PrincipalResolver) Resolve(r *http.Request) (string, bool) {
	userID := r.Header.Get(headers.UserID)
	return userID, userID != ""
}

// HybridResolver keys authenticated callers by user id and everyone else by
// "anonymous:" plus the network origin. It always yields a non-empty key.
type HybridResolver struct {
	Principal KeyResolver
	Origin    KeyResolver
}

// NewHybridResolver returns a HybridResolver over the default principal and
// network origin resolvers.
func NewHybridResolver() *HybridResolver {
	return &HybridResolver{
		Principal: PrincipalResolver{},
		Origin:    NetworkOriginResolver{},
	}
}

// Resolve implements KeyResolver.
func (h *HybridResolver) Resolve(r *http.Request) (string, bool) {
	if key, ok := h.principal().Resolve(r); ok && key != "" {
		return key, true
	}
	origin, _ := h.origin().Resolve(r)
	return AnonymousPrefix + origin, true
}

func (h *HybridResolver) principal() KeyResolver {
	if h == nil || h.Principal == nil {
		return PrincipalResolver{}
	}
	return h.Principal
}

func (h *HybridResolver) origin() KeyResolver {
	if h == nil || h.Origin == nil {
		return NetworkOriginResolver{}
	}
	return h.Origin
}

// MustResolve resolves a key and panics with ErrUnresolvedRateKey when the
// resolver yields nothing.
func MustResolve(resolver KeyResolver, r *http.Request) string {
	key, ok := resolver.Resolve(r)
	if !ok || key == "" {
		panic(ErrUnresolvedRateKey)
	}
	return key
}

// NetworkOrigin extracts the client address from the request.
func NetworkOrigin(r *http.Request) string {
	xff := strings.TrimSpace(r.Header.Get(headers.XForwardedFor))
	if xff != "" && !strings.EqualFold(xff, "unknown") {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	return remoteHost(r.RemoteAddr)
}

// remoteHost strips the port and IPv6 brackets from a RemoteAddr.
func remoteHost(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return strings.TrimSuffix(strings.TrimPrefix(addr, "["), "]")
}

type keyCtxKey struct{}

// ContextWithKey adds the resolved rate limit key to the context.
func ContextWithKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, keyCtxKey{}, key)
}

// KeyFromContext extracts the rate limit key from context. The dispatcher
// reads it to attribute upstream failures to a client.
func KeyFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(keyCtxKey{}).(string); ok {
		return v
	}
	return ""
}
