// Package auth implements the bearer authentication stage.
//
// The stage verifies the Authorization header through a jwt.Verifier,
// stores the resulting Principal in the request context and forwards the
// user id to later stages and the backend in X-User-Id. Any X-User-Id sent
// by the client is discarded first. Requests without a valid credential end
// with 401 and a WWW-Authenticate: Bearer challenge. OPTIONS requests pass
// through untouched.
package auth
