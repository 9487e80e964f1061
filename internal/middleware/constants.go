package middleware

// Content type constants.
const (
	// ContentTypeJSON is the JSON content type.
	ContentTypeJSON = "application/json"
)

// Stage names, used as metric labels and in logs.
const (
	stageTraceContext  = "trace_context"
	stageObservability = "observability"
	stageCORS          = "cors"
	stageIdempotency   = "idempotency"
	stageRateLimit     = "ratelimit"
)

// Error response constants.
const (
	// ErrRateLimitExceeded is the error message for rate limit exceeded.
	ErrRateLimitExceeded = `{"error":"rate limit exceeded"}`

	// ErrInternalServerError is the error message for internal server error.
	ErrInternalServerError = `{"error":"internal server error"}`

	// ErrRequestEntityTooLarge is the error message for request body too large.
	ErrRequestEntityTooLarge = `{"error":"request entity too large"}`

	// ErrRequestBodyUnreadable is the error message for a body that could
	// not be drained.
	ErrRequestBodyUnreadable = `{"error":"failed to read request body"}`
)
