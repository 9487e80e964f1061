package jwt

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Claims holds the verified payload of a token. Registered time claims are
// time.Time values, aud is a []string and JSON numbers are float64.
type Claims map[string]any

// Subject returns the sub claim.
func (c Claims) Subject() string {
	s, _ := c["sub"].(string)
	return s
}

// ExtractUserID renders the named claim as a string, falling back to sub
// when the claim is missing or empty. Integral numbers are rendered
// without a decimal point or exponent.
func ExtractUserID(c Claims, claim string) (string, error) {
	if claim != "" {
		if v, ok := c[claim]; ok && v != nil {
			id, err := renderClaim(v)
			if err != nil {
				return "", fmt.Errorf("%w: %s: %w", ErrTokenInvalidClaim, claim, err)
			}
			if id != "" {
				return id, nil
			}
		}
	}

	if sub := c.Subject(); sub != "" {
		return sub, nil
	}
	return "", fmt.Errorf("%w: %s", ErrTokenMissingClaim, claim)
}

func renderClaim(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case float64:
		if math.IsInf(val, 0) || math.IsNaN(val) {
			return "", fmt.Errorf("unsupported number %v", val)
		}
		if val == math.Trunc(val) && math.Abs(val) < 1<<63 {
			return strconv.FormatInt(int64(val), 10), nil
		}
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case json.Number:
		return val.String(), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		return "", fmt.Errorf("unsupported type %T", v)
	}
}
