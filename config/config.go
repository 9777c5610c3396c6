package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Databricks holds workspace connection settings. Either a PAT or an OAuth
// service principal must be configured.
type Databricks struct {
	Host         string
	Token        string
	ClientID     string
	ClientSecret string
	HTTPPath     string
	WarehouseID  string
}

// Skyflow holds the vault the integration tokenizes against.
type Skyflow struct {
	VaultURL    string
	VaultID     string
	PATToken    string
	Table       string
	TableColumn string
	BatchSize   int
}

// Groups maps workspace groups to detokenization behavior.
type Groups struct {
	PlainText string
	Masked    string
	Redacted  string
}

type Config struct {
	Databricks Databricks
	Skyflow    Skyflow
	Groups     Groups
}

// Load reads configuration from the environment, after loading the optional
// env file (.env.local by default) the way the deploy scripts expect.
func Load(envFile string, logger *logrus.Logger) *Config {
	if envFile == "" {
		envFile = ".env.local"
	}
	if err := godotenv.Load(envFile); err != nil {
		logger.Warnf("%s not found, using environment variables only", envFile)
	} else {
		logger.Infof("loaded configuration from %s", envFile)
	}

	host := os.Getenv("DATABRICKS_SERVER_HOSTNAME")
	if host != "" && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}

	httpPath := os.Getenv("DATABRICKS_HTTP_PATH")
	warehouseID := ""
	if idx := strings.Index(httpPath, "/warehouses/"); idx >= 0 {
		warehouseID = httpPath[idx+len("/warehouses/"):]
	}

	batchSize := 25
	if raw := os.Getenv("SKYFLOW_BATCH_SIZE"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			batchSize = n
		}
	}

	return &Config{
		Databricks: Databricks{
			Host:         host,
			Token:        os.Getenv("DATABRICKS_PAT_TOKEN"),
			ClientID:     os.Getenv("DATABRICKS_CLIENT_ID"),
			ClientSecret: os.Getenv("DATABRICKS_CLIENT_SECRET"),
			HTTPPath:     httpPath,
			WarehouseID:  warehouseID,
		},
		Skyflow: Skyflow{
			VaultURL:    os.Getenv("SKYFLOW_VAULT_URL"),
			VaultID:     os.Getenv("SKYFLOW_VAULT_ID"),
			PATToken:    os.Getenv("SKYFLOW_PAT_TOKEN"),
			Table:       os.Getenv("SKYFLOW_TABLE"),
			TableColumn: getEnv("SKYFLOW_TABLE_COLUMN", "pii_values"),
			BatchSize:   batchSize,
		},
		Groups: Groups{
			PlainText: getEnv("PLAIN_TEXT_GROUPS", "auditor"),
			Masked:    getEnv("MASKED_GROUPS", "customer_service"),
			Redacted:  getEnv("REDACTED_GROUPS", "marketing"),
		},
	}
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	required := map[string]bool{
		"databricks_host":   c.Databricks.Host != "",
		"databricks_auth":   c.Databricks.Token != "" || c.Databricks.ClientID != "",
		"warehouse_id":      c.Databricks.WarehouseID != "",
		"skyflow_vault_url": c.Skyflow.VaultURL != "",
		"skyflow_vault_id":  c.Skyflow.VaultID != "",
		"skyflow_pat_token": c.Skyflow.PATToken != "",
		"skyflow_table":     c.Skyflow.Table != "",
	}
	var missing []string
	for name, ok := range required {
		if !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Substitutions builds the flat replacement map applied to SQL, notebook and
// dashboard templates.
func (c *Config) Substitutions(prefix string) map[string]string {
	return map[string]string{
		"PREFIX":            prefix,
		"SKYFLOW_VAULT_URL": strings.TrimPrefix(strings.TrimPrefix(c.Skyflow.VaultURL, "https://"), "http://"),
		"SKYFLOW_VAULT_ID":  c.Skyflow.VaultID,
		"SKYFLOW_TABLE":     c.Skyflow.Table,
		"PLAIN_TEXT_GROUPS": c.Groups.PlainText,
		"MASKED_GROUPS":     c.Groups.Masked,
		"REDACTED_GROUPS":   c.Groups.Redacted,
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}
