package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/vault-client-go"
	"github.com/hashicorp/vault-client-go/schema"
)

// VaultSecretsProvider pulls the Skyflow and Databricks credentials from a
// HashiCorp Vault KV-v2 mount, so deployments don't have to put tokens in
// the environment. AppRole is the only supported auth method.
type VaultSecretsProvider struct {
	client     *vault.Client
	mountPath  string
	secretPath string
}

func NewVaultSecretsProvider(addr, caCertPath, mountPath, secretPath string) (*VaultSecretsProvider, error) {
	opts := []vault.ClientOption{
		vault.WithAddress(addr),
		vault.WithRequestTimeout(30 * time.Second),
	}
	if caCertPath != "" {
		tls := vault.TLSConfiguration{}
		tls.ServerCertificate.FromFile = caCertPath
		opts = append(opts, vault.WithTLS(tls))
	}

	client, err := vault.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("vault client: %w", err)
	}
	return &VaultSecretsProvider{
		client:     client,
		mountPath:  mountPath,
		secretPath: secretPath,
	}, nil
}

// Login authenticates via AppRole and installs the returned token on the
// client.
func (v *VaultSecretsProvider) Login(ctx context.Context, roleID, secretID string) error {
	resp, err := v.client.Auth.AppRoleLogin(
		ctx,
		schema.AppRoleLoginRequest{
			RoleId:   roleID,
			SecretId: secretID,
		},
		vault.WithMountPath("approle"),
	)
	if err != nil {
		return fmt.Errorf("vault login failed: %w", err)
	}
	if err := v.client.SetToken(resp.Auth.ClientToken); err != nil {
		return fmt.Errorf("vault token: %w", err)
	}
	return nil
}

// Credentials reads the secret material as a flat string map. Values that
// are not strings are skipped.
func (v *VaultSecretsProvider) Credentials(ctx context.Context) (map[string]string, error) {
	secret, err := v.client.Secrets.KvV2Read(
		ctx,
		v.secretPath,
		vault.WithMountPath(v.mountPath),
	)
	if err != nil {
		return nil, fmt.Errorf("vault read %s/%s: %w", v.mountPath, v.secretPath, err)
	}

	creds := make(map[string]string, len(secret.Data.Data))
	for key, value := range secret.Data.Data {
		if s, ok := value.(string); ok {
			creds[key] = s
		}
	}
	return creds, nil
}
