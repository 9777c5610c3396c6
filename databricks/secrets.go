package databricks

import (
	"context"
	"net/http"
	"net/url"
)

// CreateSecretScope is a no-op success when the scope already exists.
func (c *Client) CreateSecretScope(ctx context.Context, scope string) error {
	exists, err := c.SecretScopeExists(ctx, scope)
	if err != nil {
		return err
	}
	if exists {
		c.logger.Infof("secret scope %s already exists", scope)
		return nil
	}
	err = c.retry.Do(ctx, "create secret scope "+scope, func() error {
		return c.do(ctx, http.MethodPost, "/api/2.0/secrets/scopes/create", nil, map[string]string{
			"scope":                    scope,
			"scope_backend_type":       "DATABRICKS",
			"initial_manage_principal": "users",
		}, nil)
	})
	if err != nil {
		return err
	}
	c.logger.Infof("created secret scope %s", scope)
	return nil
}

// PutSecret writes one string secret into a scope, overwriting any previous
// value under the same key.
func (c *Client) PutSecret(ctx context.Context, scope, key, value string) error {
	err := c.retry.Do(ctx, "put secret "+scope+"/"+key, func() error {
		return c.do(ctx, http.MethodPost, "/api/2.0/secrets/put", nil, map[string]string{
			"scope":        scope,
			"key":          key,
			"string_value": value,
		}, nil)
	})
	if err != nil {
		return err
	}
	c.logger.Infof("set secret %s/%s", scope, key)
	return nil
}

// DeleteSecretScope removes the scope and every secret in it, treating
// absence as success.
func (c *Client) DeleteSecretScope(ctx context.Context, scope string) error {
	exists, err := c.SecretScopeExists(ctx, scope)
	if err != nil {
		return err
	}
	if !exists {
		c.logger.Infof("secret scope %s doesn't exist", scope)
		return nil
	}
	err = c.retry.Do(ctx, "delete secret scope "+scope, func() error {
		return c.do(ctx, http.MethodPost, "/api/2.0/secrets/scopes/delete", nil, map[string]string{
			"scope": scope,
		}, nil)
	})
	if err != nil {
		return err
	}
	c.logger.Infof("deleted secret scope %s", scope)
	return nil
}

// SecretScopeExists probes the scope by listing its secrets; the API answers
// RESOURCE_DOES_NOT_EXIST for an absent scope.
func (c *Client) SecretScopeExists(ctx context.Context, scope string) (bool, error) {
	return Exists(func() error {
		return c.do(ctx, http.MethodGet, "/api/2.0/secrets/list", url.Values{"scope": {scope}}, nil, nil)
	})
}

// ListSecretKeys returns the secret keys in a scope, or nothing when the
// scope is unreadable.
func (c *Client) ListSecretKeys(ctx context.Context, scope string) []string {
	var resp struct {
		Secrets []struct {
			Key string `json:"key"`
		} `json:"secrets"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/2.0/secrets/list", url.Values{"scope": {scope}}, nil, &resp); err != nil {
		return nil
	}
	keys := make([]string, 0, len(resp.Secrets))
	for _, s := range resp.Secrets {
		keys = append(keys, s.Key)
	}
	return keys
}
