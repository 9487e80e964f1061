// Package proxy dispatches requests that survived the edge pipeline to the
// configured upstream.
//
// Headers set by earlier stages (X-Trace-Id, X-User-Id, X-Request-Id) are
// forwarded as they are. The client address is appended to X-Forwarded-For
// and the outbound call is traced with otelhttp so the upstream span joins
// the edge.request span. Access-Control-* headers from the upstream are
// dropped; the CORS stage owns that policy.
package proxy
