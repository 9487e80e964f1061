// Package vault reads key material from a HashiCorp Vault KV v2 mount.
//
//	client, err := vault.NewClient(cfg.Auth.JWT.Vault, logger)
//	secret, err := client.ReadString(ctx, "secret", "edgegw/jwt", "secret")
package vault
