package proxy

import (
	"errors"
	"fmt"
)

// Sentinel errors for proxy operations.
var (
	// ErrInvalidTargetURL indicates that the upstream URL is invalid.
	ErrInvalidTargetURL = errors.New("invalid target URL")

	// ErrUpstreamTimeout indicates that the upstream request timed out.
	ErrUpstreamTimeout = errors.New("upstream request timed out")

	// ErrUpstreamUnavailable indicates that the upstream is unavailable.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// ProxyError represents a proxy-related error with details.
type ProxyError struct {
	Op     string // Operation that failed
	Target string // Target URL if applicable
	Cause  error  // Underlying error
}

// Error implements the error interface.
func (e *ProxyError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("proxy error [%s] target=%s: %v", e.Op, e.Target, e.Cause)
	}
	return fmt.Sprintf("proxy error [%s]: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ProxyError) Unwrap() error {
	return e.Cause
}
