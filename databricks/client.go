package databricks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Config carries everything needed to talk to one workspace. Either Token
// (PAT) or ClientID/ClientSecret (OAuth M2M service principal) must be set.
type Config struct {
	Host         string
	Token        string
	ClientID     string
	ClientSecret string
	WarehouseID  string

	// HTTPClient overrides the authenticated client, used by tests.
	HTTPClient *http.Client
}

// Client is the authenticated handle for workspace resource operations.
// Every mutating call goes through the retry wrapper; existence probes go
// through the Exists guard.
type Client struct {
	host        string
	warehouseID string
	httpClient  *http.Client
	retry       *Retry
	logger      *logrus.Logger
}

func NewClient(cfg Config) (*Client, error) {
	host := strings.TrimSuffix(cfg.Host, "/")
	if host == "" {
		return nil, fmt.Errorf("databricks host is required")
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		switch {
		case cfg.ClientID != "":
			oauthCfg := &clientcredentials.Config{
				ClientID:     cfg.ClientID,
				ClientSecret: cfg.ClientSecret,
				TokenURL:     host + "/oidc/v1/token",
				Scopes:       []string{"all-apis"},
			}
			httpClient = oauthCfg.Client(context.Background())
		case cfg.Token != "":
			src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
			httpClient = oauth2.NewClient(context.Background(), src)
		default:
			return nil, fmt.Errorf("databricks credentials are required: set a PAT or an OAuth client id/secret")
		}
		httpClient.Timeout = 2 * time.Minute
	}

	return &Client{
		host:        host,
		warehouseID: cfg.WarehouseID,
		httpClient:  httpClient,
		retry:       NewRetry(logger),
		logger:      logger,
	}, nil
}

// Host returns the workspace base URL, used to build user-facing links.
func (c *Client) Host() string { return c.host }

// Retry exposes the client's retry wrapper so callers can reuse its polling.
func (c *Client) Retry() *Retry { return c.retry }

// Me verifies the configured credentials by fetching the caller's identity.
func (c *Client) Me(ctx context.Context) error {
	var me struct {
		UserName string `json:"userName"`
	}
	err := c.retry.Do(ctx, "get current user", func() error {
		return c.do(ctx, http.MethodGet, "/api/2.0/preview/scim/v2/Me", nil, nil, &me)
	})
	if err != nil {
		return err
	}
	c.logger.WithField("user", me.UserName).Info("authenticated to workspace")
	return nil
}

// do performs one API call. Failures come back as *APIError when the server
// answered, so the retry wrapper and existence guard can classify them.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.host + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request for %s: %w", path, err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response from %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if jsonErr := json.Unmarshal(data, apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response from %s: %w", path, err)
		}
	}
	return nil
}
