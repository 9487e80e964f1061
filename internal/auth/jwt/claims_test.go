package jwt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractUserID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		claims  Claims
		claim   string
		want    string
		wantErr error
	}{
		{name: "string claim", claims: Claims{"id": "user123"}, claim: "id", want: "user123"},
		{name: "integral number", claims: Claims{"id": float64(12345)}, claim: "id", want: "12345"},
		{name: "large integral number", claims: Claims{"id": float64(1e15)}, claim: "id", want: "1000000000000000"},
		{name: "fractional number", claims: Claims{"id": 1.5}, claim: "id", want: "1.5"},
		{name: "json number", claims: Claims{"id": json.Number("42")}, claim: "id", want: "42"},
		{name: "bool", claims: Claims{"id": true}, claim: "id", want: "true"},
		{name: "falls back to sub", claims: Claims{"sub": "subject"}, claim: "id", want: "subject"},
		{name: "empty claim falls back to sub", claims: Claims{"id": "", "sub": "subject"}, claim: "id", want: "subject"},
		{name: "custom claim", claims: Claims{"uid": "u-1", "sub": "subject"}, claim: "uid", want: "u-1"},
		{name: "missing", claims: Claims{}, claim: "id", wantErr: ErrTokenMissingClaim},
		{name: "unsupported type", claims: Claims{"id": []any{"a"}, "sub": "s"}, claim: "id", wantErr: ErrTokenInvalidClaim},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ExtractUserID(tt.claims, tt.claim)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
