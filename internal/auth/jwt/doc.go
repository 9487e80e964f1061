// Package jwt verifies bearer tokens for the authentication stage.
//
// Three key sources are supported: a static HMAC secret, a JWKS endpoint
// kept fresh by a jwk.Cache, and an HMAC secret read from Vault at startup.
//
//	verifier, err := jwt.NewVerifierFromConfig(ctx, cfg.Auth.JWT, vaultClient, logger)
//	claims, err := verifier.Verify(ctx, token)
//	userID, err := jwt.ExtractUserID(claims, "id")
package jwt
