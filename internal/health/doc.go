// Package health serves the liveness and readiness probes of the admin
// listener.
//
// Readiness aggregates registered checks (for example the shared rate
// limit store) and reports draining once shutdown has begun.
package health
