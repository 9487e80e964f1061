// Package headers names the HTTP headers the edge pipeline reads and writes.
//
// Every stage refers to headers through these constants so the vocabulary is
// defined once. Lookups go through http.Header, which canonicalises names, so
// "x-trace-id" and "X-Trace-Id" address the same entry.
package headers

// Correlation and identity headers.
const (
	// TraceID carries the correlation id for a request. Set by the trace
	// context stage when the client did not send one.
	TraceID = "X-Trace-Id"

	// UserID carries the authenticated user id to downstream stages and
	// the backend. Client-supplied values are stripped by authentication.
	UserID = "X-User-Id"

	// RequestFingerprint carries the idempotency fingerprint of a request.
	RequestFingerprint = "X-Request-Id"

	// XForwardedFor lists the client and proxy addresses, client first.
	XForwardedFor = "X-Forwarded-For"
)

// Standard headers.
const (
	Authorization   = "Authorization"
	WWWAuthenticate = "WWW-Authenticate"
	ContentType     = "Content-Type"
	RetryAfter      = "Retry-After"
	Origin          = "Origin"
	Vary            = "Vary"
)

// CORS response headers.
const (
	// AccessControlPrefix is shared by every CORS response header.
	AccessControlPrefix = "Access-Control-"

	AccessControlAllowOrigin      = "Access-Control-Allow-Origin"
	AccessControlAllowMethods     = "Access-Control-Allow-Methods"
	AccessControlAllowHeaders     = "Access-Control-Allow-Headers"
	AccessControlExposeHeaders    = "Access-Control-Expose-Headers"
	AccessControlAllowCredentials = "Access-Control-Allow-Credentials"
	AccessControlMaxAge           = "Access-Control-Max-Age"
)

// BearerScheme is the Authorization scheme prefix, including the separating
// space. Matching is case-sensitive.
const BearerScheme = "Bearer "
