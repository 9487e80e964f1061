package vault

import (
	"context"
	"fmt"
	"strings"

	vaultapi "github.com/hashicorp/vault/api"

	"github.com/vyrodovalexey/edgegw/internal/config"
	"github.com/vyrodovalexey/edgegw/internal/observability"
)

// Client reads secrets from a Vault KV v2 mount using token authentication.
type Client struct {
	api    *vaultapi.Client
	logger observability.Logger
}

// NewClient creates a Vault client for cfg.Address authenticated with
// cfg.Token.
func NewClient(cfg config.VaultConfig, logger observability.Logger) (*Client, error) {
	if cfg.Address == "" {
		return nil, NewVaultError("init", "", fmt.Errorf("%w: address is required", ErrInvalidConfig))
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	apiConfig := vaultapi.DefaultConfig()
	apiConfig.Address = cfg.Address

	api, err := vaultapi.NewClient(apiConfig)
	if err != nil {
		return nil, NewVaultError("init", "", err)
	}
	if cfg.Token != "" {
		api.SetToken(cfg.Token)
	}

	return &Client{
		api:    api,
		logger: logger.With(observability.String("component", "vault")),
	}, nil
}

// ReadKV2 returns the data of the latest version of mount/path.
func (c *Client) ReadKV2(ctx context.Context, mount, path string) (map[string]interface{}, error) {
	fullPath := dataPath(mount, path)
	c.logger.Debug("reading KV v2 secret", observability.String("path", fullPath))

	secret, err := c.api.Logical().ReadWithContext(ctx, fullPath)
	if err != nil {
		return nil, NewVaultError("kv_read", fullPath, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, NewVaultError("kv_read", fullPath, ErrSecretNotFound)
	}

	// KV v2 wraps data in a "data" key; deleted versions have data: null.
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok || data == nil {
		return nil, NewVaultError("kv_read", fullPath, ErrSecretNotFound)
	}
	return data, nil
}

// ReadString returns a single non-empty string value of a KV v2 secret.
func (c *Client) ReadString(ctx context.Context, mount, path, key string) (string, error) {
	data, err := c.ReadKV2(ctx, mount, path)
	if err != nil {
		return "", err
	}

	value, ok := data[key].(string)
	if !ok || value == "" {
		return "", NewVaultError("kv_read", dataPath(mount, path),
			fmt.Errorf("%w: key %q missing or not a string", ErrInvalidSecret, key))
	}
	return value, nil
}

func dataPath(mount, path string) string {
	if mount == "" {
		mount = config.DefaultVaultMount
	}
	return strings.Trim(mount, "/") + "/data/" + strings.TrimPrefix(path, "/")
}
