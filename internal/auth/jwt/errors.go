package jwt

import (
	"errors"

	jwtx "github.com/lestrrat-go/jwx/v2/jwt"
)

// HMAC signing algorithms accepted for shared-secret verification.
const (
	AlgHS256 = "HS256"
	AlgHS384 = "HS384"
	AlgHS512 = "HS512"
)

// Sentinel errors for token verification.
var (
	// ErrTokenMalformed indicates that the token is not a compact JWS.
	ErrTokenMalformed = errors.New("token is malformed")

	// ErrTokenExpired indicates that the token has expired.
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenNotYetValid indicates that the token is not yet valid.
	ErrTokenNotYetValid = errors.New("token is not yet valid")

	// ErrTokenInvalidIssuer indicates that the token issuer is invalid.
	ErrTokenInvalidIssuer = errors.New("token issuer is invalid")

	// ErrTokenInvalidAudience indicates that the token audience is invalid.
	ErrTokenInvalidAudience = errors.New("token audience is invalid")

	// ErrTokenInvalidClaim indicates that a claim value is invalid.
	ErrTokenInvalidClaim = errors.New("claim value is invalid")

	// ErrTokenMissingClaim indicates that a required claim is missing.
	ErrTokenMissingClaim = errors.New("required claim is missing")

	// ErrTokenInvalid indicates a token that failed signature verification
	// or could not be parsed.
	ErrTokenInvalid = errors.New("token is invalid")

	// ErrUnsupportedAlgorithm indicates that the signing algorithm is not supported.
	ErrUnsupportedAlgorithm = errors.New("signing algorithm is not supported")

	// ErrInvalidKey indicates missing or unusable key material.
	ErrInvalidKey = errors.New("signing key is invalid")
)

// classify maps a jwx parse error onto the package sentinels. The original
// error stays in the chain.
func classify(err error) error {
	var kind error
	switch {
	case errors.Is(err, jwtx.ErrTokenExpired()):
		kind = ErrTokenExpired
	case errors.Is(err, jwtx.ErrTokenNotYetValid()):
		kind = ErrTokenNotYetValid
	case errors.Is(err, jwtx.ErrInvalidIssuer()):
		kind = ErrTokenInvalidIssuer
	case errors.Is(err, jwtx.ErrInvalidAudience()):
		kind = ErrTokenInvalidAudience
	case jwtx.IsValidationError(err):
		kind = ErrTokenInvalidClaim
	default:
		kind = ErrTokenInvalid
	}
	return &verifyError{kind: kind, cause: err}
}

type verifyError struct {
	kind  error
	cause error
}

func (e *verifyError) Error() string {
	return e.kind.Error() + ": " + e.cause.Error()
}

func (e *verifyError) Unwrap() []error {
	return []error{e.kind, e.cause}
}
