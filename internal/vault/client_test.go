package vault

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/edgegw/internal/config"
)

// newVaultServer serves KV v2 reads from secrets keyed by request path.
func newVaultServer(t *testing.T, token string, secrets map[string]interface{}) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Vault-Token") != token {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"errors":["permission denied"]}`))
			return
		}

		data, ok := secrets[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"data":     data,
				"metadata": map[string]interface{}{"version": 1},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_ReadString(t *testing.T) {
	t.Parallel()

	srv := newVaultServer(t, "root", map[string]interface{}{
		"/v1/secret/data/edgegw/jwt": map[string]interface{}{"secret": "s3cr3t", "count": 3},
		"/v1/kv/data/other":          map[string]interface{}{"secret": "other"},
		"/v1/secret/data/deleted":    nil,
	})

	client, err := NewClient(config.VaultConfig{Address: srv.URL, Token: "root"}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		name    string
		mount   string
		path    string
		key     string
		want    string
		wantErr error
	}{
		{name: "secret", mount: "secret", path: "edgegw/jwt", key: "secret", want: "s3cr3t"},
		{name: "default mount", path: "/edgegw/jwt", key: "secret", want: "s3cr3t"},
		{name: "custom mount", mount: "kv/", path: "other", key: "secret", want: "other"},
		{name: "missing key", mount: "secret", path: "edgegw/jwt", key: "nope", wantErr: ErrInvalidSecret},
		{name: "non-string value", mount: "secret", path: "edgegw/jwt", key: "count", wantErr: ErrInvalidSecret},
		{name: "missing secret", mount: "secret", path: "absent", key: "secret", wantErr: ErrSecretNotFound},
		{name: "deleted secret", mount: "secret", path: "deleted", key: "secret", wantErr: ErrSecretNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := client.ReadString(ctx, tt.mount, tt.path, tt.key)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_PermissionDenied(t *testing.T) {
	t.Parallel()

	srv := newVaultServer(t, "root", map[string]interface{}{})
	client, err := NewClient(config.VaultConfig{Address: srv.URL, Token: "wrong"}, nil)
	require.NoError(t, err)

	_, err = client.ReadKV2(context.Background(), "secret", "edgegw/jwt")
	require.Error(t, err)

	var vaultErr *VaultError
	require.ErrorAs(t, err, &vaultErr)
	assert.Equal(t, "kv_read", vaultErr.Op)
	assert.Equal(t, "secret/data/edgegw/jwt", vaultErr.Path)
}

func TestNewClient_RequiresAddress(t *testing.T) {
	t.Parallel()

	_, err := NewClient(config.VaultConfig{}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestVaultError(t *testing.T) {
	t.Parallel()

	err := NewVaultError("kv_read", "secret/data/x", ErrSecretNotFound)
	assert.Equal(t, "vault kv_read on path secret/data/x: vault: secret not found", err.Error())
	assert.ErrorIs(t, err, ErrSecretNotFound)

	err = NewVaultError("init", "", ErrInvalidConfig)
	assert.Equal(t, "vault init: vault: invalid configuration", err.Error())
}
