package databricks

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

const (
	catalogsPath    = "/api/2.1/unity-catalog/catalogs"
	schemasPath     = "/api/2.1/unity-catalog/schemas"
	connectionsPath = "/api/2.1/unity-catalog/connections"
)

// CreateCatalog is a no-op success when the catalog already exists.
func (c *Client) CreateCatalog(ctx context.Context, name, comment string) error {
	exists, err := c.CatalogExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		c.logger.Infof("catalog %s already exists", name)
		return nil
	}
	if comment == "" {
		comment = fmt.Sprintf("Skyflow integration catalog - %s", name)
	}
	err = c.retry.Do(ctx, "create catalog "+name, func() error {
		return c.do(ctx, http.MethodPost, catalogsPath, nil, map[string]string{
			"name":    name,
			"comment": comment,
		}, nil)
	})
	if err != nil {
		return err
	}
	c.logger.Infof("created catalog %s", name)
	return nil
}

// DropCatalog force-deletes the catalog and everything under it. Missing
// catalogs count as success.
func (c *Client) DropCatalog(ctx context.Context, name string) error {
	exists, err := c.CatalogExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		c.logger.Infof("catalog %s doesn't exist", name)
		return nil
	}
	err = c.retry.Do(ctx, "drop catalog "+name, func() error {
		return c.do(ctx, http.MethodDelete, catalogsPath+"/"+name, url.Values{"force": {"true"}}, nil, nil)
	})
	if err != nil {
		return err
	}
	c.logger.Infof("dropped catalog %s", name)
	return nil
}

func (c *Client) CatalogExists(ctx context.Context, name string) (bool, error) {
	return Exists(func() error {
		return c.do(ctx, http.MethodGet, catalogsPath+"/"+name, nil, nil, nil)
	})
}

// CreateSchema creates a schema inside a catalog, no-op when present.
func (c *Client) CreateSchema(ctx context.Context, catalog, schema string) error {
	fullName := catalog + "." + schema
	exists, err := c.SchemaExists(ctx, catalog, schema)
	if err != nil {
		return err
	}
	if exists {
		c.logger.Infof("schema %s already exists", fullName)
		return nil
	}
	err = c.retry.Do(ctx, "create schema "+fullName, func() error {
		return c.do(ctx, http.MethodPost, schemasPath, nil, map[string]string{
			"name":         schema,
			"catalog_name": catalog,
		}, nil)
	})
	if err != nil {
		return err
	}
	c.logger.Infof("created schema %s", fullName)
	return nil
}

func (c *Client) SchemaExists(ctx context.Context, catalog, schema string) (bool, error) {
	return Exists(func() error {
		return c.do(ctx, http.MethodGet, schemasPath+"/"+catalog+"."+schema, nil, nil, nil)
	})
}

// CreateHTTPConnection registers the Skyflow vault endpoint as a Unity
// Catalog HTTP connection, with the bearer token resolved from a secret.
func (c *Client) CreateHTTPConnection(ctx context.Context, name, host, basePath, secretScope, secretKey string) error {
	exists, err := c.ConnectionExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		c.logger.Infof("connection %s already exists", name)
		return nil
	}
	err = c.retry.Do(ctx, "create connection "+name, func() error {
		return c.do(ctx, http.MethodPost, connectionsPath, nil, map[string]any{
			"name":            name,
			"connection_type": "HTTP",
			"options": map[string]string{
				"host":      host,
				"port":      "443",
				"base_path": basePath,
			},
			"properties": map[string]string{
				"bearer_token": fmt.Sprintf("secret('%s', '%s')", secretScope, secretKey),
			},
		}, nil)
	})
	if err != nil {
		return err
	}
	c.logger.Infof("created HTTP connection %s", name)
	return nil
}

// DropConnection deletes the connection, treating absence as success.
func (c *Client) DropConnection(ctx context.Context, name string) error {
	exists, err := c.ConnectionExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		c.logger.Infof("connection %s doesn't exist", name)
		return nil
	}
	err = c.retry.Do(ctx, "drop connection "+name, func() error {
		return c.do(ctx, http.MethodDelete, connectionsPath+"/"+name, nil, nil, nil)
	})
	if err != nil {
		return err
	}
	c.logger.Infof("dropped connection %s", name)
	return nil
}

func (c *Client) ConnectionExists(ctx context.Context, name string) (bool, error) {
	return Exists(func() error {
		return c.do(ctx, http.MethodGet, connectionsPath+"/"+name, nil, nil, nil)
	})
}
