package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/vyrodovalexey/edgegw/internal/config"
	"github.com/vyrodovalexey/edgegw/internal/headers"
	"github.com/vyrodovalexey/edgegw/internal/pipeline"
)

// corsHeaders holds pre-computed CORS header values.
type corsHeaders struct {
	allowOrigins     map[string]bool
	wildcardPatterns []string // Patterns like "*.example.com"
	allowAnyOrigin   bool
	allowMethods     string
	allowHeaders     string
	exposeHeaders    string
	maxAge           string
	allowCredentials bool
}

// newCORSHeaders creates pre-computed CORS headers from config.
func newCORSHeaders(cfg config.CORSConfig) *corsHeaders {
	h := &corsHeaders{
		allowOrigins:     make(map[string]bool),
		allowMethods:     strings.Join(cfg.AllowMethods, ", "),
		allowHeaders:     strings.Join(cfg.AllowHeaders, ", "),
		exposeHeaders:    strings.Join(cfg.ExposeHeaders, ", "),
		maxAge:           strconv.Itoa(cfg.MaxAge),
		allowCredentials: cfg.Credentials(),
	}

	for _, origin := range cfg.AllowOrigins {
		switch {
		case origin == "*":
			h.allowAnyOrigin = true
		case strings.HasPrefix(origin, "*."):
			h.wildcardPatterns = append(h.wildcardPatterns, origin)
		default:
			h.allowOrigins[origin] = true
		}
	}

	return h
}

// allowOrigin returns the Access-Control-Allow-Origin value for a request
// origin and whether the value depends on it.
func (h *corsHeaders) allowOrigin(origin string) (value string, echoed bool) {
	if h.allowAnyOrigin {
		return "*", false
	}
	if origin == "" {
		return "", false
	}
	if h.allowOrigins[origin] {
		return origin, true
	}
	for _, pattern := range h.wildcardPatterns {
		if matchWildcardOrigin(origin, pattern) {
			return origin, true
		}
	}
	return "", false
}

// matchWildcardOrigin checks if an origin matches a wildcard pattern.
// Pattern format: "*.example.com" matches "sub.example.com", "api.example.com", etc.
func matchWildcardOrigin(origin, pattern string) bool {
	if !strings.HasPrefix(pattern, "*.") {
		return false
	}

	suffix := pattern[1:]

	host := origin
	if idx := strings.Index(host, "://"); idx != -1 {
		host = host[idx+3:]
	}
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}

	// At least one label must precede the suffix.
	return len(host) > len(suffix) && strings.HasSuffix(host, suffix)
}

// CORS attaches a static cross-origin policy to every response and answers
// preflight requests itself.
type CORS struct {
	headers *corsHeaders
}

// NewCORS creates the CORS stage. Unset fields of cfg fall back to the
// gateway defaults.
func NewCORS(cfg config.CORSConfig) *CORS {
	cfg.ApplyDefaults()
	return &CORS{headers: newCORSHeaders(cfg)}
}

// Name implements pipeline.Stage.
func (s *CORS) Name() string { return stageCORS }

// Order implements pipeline.Stage.
func (s *CORS) Order() int { return pipeline.OrderCORS }

// Handle answers OPTIONS with 200 and the preflight headers without calling
// next. Any other request gets the simple-request headers and always
// continues down the chain.
func (s *CORS) Handle(w http.ResponseWriter, r *http.Request, next http.Handler) {
	h := s.headers
	out := w.Header()

	if origin, echoed := h.allowOrigin(r.Header.Get(headers.Origin)); origin != "" {
		out.Set(headers.AccessControlAllowOrigin, origin)
		if echoed {
			out.Add(headers.Vary, headers.Origin)
		}
	}
	out.Set(headers.AccessControlAllowMethods, h.allowMethods)
	out.Set(headers.AccessControlAllowHeaders, h.allowHeaders)
	if h.allowCredentials {
		out.Set(headers.AccessControlAllowCredentials, "true")
	}

	if pipeline.IsPreflight(r) {
		out.Set(headers.AccessControlMaxAge, h.maxAge)
		w.WriteHeader(http.StatusOK)
		return
	}

	if h.exposeHeaders != "" {
		out.Set(headers.AccessControlExposeHeaders, h.exposeHeaders)
	}
	next.ServeHTTP(w, r)
}
