package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABRICKS_SERVER_HOSTNAME", "dbc-123.cloud.databricks.com")
	t.Setenv("DATABRICKS_PAT_TOKEN", "dapi123")
	t.Setenv("DATABRICKS_HTTP_PATH", "/sql/1.0/warehouses/abc999")
	t.Setenv("SKYFLOW_VAULT_URL", "https://vault.skyflowapis.com")
	t.Setenv("SKYFLOW_VAULT_ID", "v123")
	t.Setenv("SKYFLOW_PAT_TOKEN", "sky123")
	t.Setenv("SKYFLOW_TABLE", "persons")
}

func TestLoadDerivesHostAndWarehouse(t *testing.T) {
	setBaseEnv(t)
	cfg := Load("does-not-exist.env", quietLogger())

	assert.Equal(t, "https://dbc-123.cloud.databricks.com", cfg.Databricks.Host)
	assert.Equal(t, "abc999", cfg.Databricks.WarehouseID)
	assert.Equal(t, "pii_values", cfg.Skyflow.TableColumn)
	assert.Equal(t, 25, cfg.Skyflow.BatchSize)
	assert.Equal(t, "auditor", cfg.Groups.PlainText)
	require.NoError(t, cfg.Validate())
}

func TestLoadReadsEnvFile(t *testing.T) {
	setBaseEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env.local")
	require.NoError(t, os.WriteFile(envFile, []byte("SKYFLOW_BATCH_SIZE=100\n"), 0o644))

	cfg := Load(envFile, quietLogger())
	assert.Equal(t, 100, cfg.Skyflow.BatchSize)
}

func TestValidateListsEveryMissingSetting(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "databricks_host")
	assert.Contains(t, err.Error(), "skyflow_vault_id")
	assert.Contains(t, err.Error(), "warehouse_id")
}

func TestValidateAcceptsOAuthInsteadOfPAT(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DATABRICKS_PAT_TOKEN", "")
	t.Setenv("DATABRICKS_CLIENT_ID", "svc-id")
	t.Setenv("DATABRICKS_CLIENT_SECRET", "svc-secret")

	cfg := Load("does-not-exist.env", quietLogger())
	require.NoError(t, cfg.Validate())
}

func TestSubstitutionsStripVaultScheme(t *testing.T) {
	setBaseEnv(t)
	cfg := Load("does-not-exist.env", quietLogger())

	subs := cfg.Substitutions("demo")
	assert.Equal(t, "demo", subs["PREFIX"])
	assert.Equal(t, "vault.skyflowapis.com", subs["SKYFLOW_VAULT_URL"])
	assert.Equal(t, "persons", subs["SKYFLOW_TABLE"])
}

func TestLoadService(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.yaml")
	require.NoError(t, os.WriteFile(path, []byte("task_queue: custom-queue\njob_run_timeout_minutes: 30\n"), 0o644))

	svc, err := LoadService(path)
	require.NoError(t, err)
	assert.Equal(t, "custom-queue", svc.TaskQueue)
	assert.Equal(t, 30, svc.JobRunTimeoutMinutes)
	// Untouched fields keep their defaults.
	assert.Equal(t, ":8080", svc.ListenAddr)
	assert.Equal(t, "/Shared", svc.WorkspaceFolder)
}

func TestLoadServiceMissingFileUsesDefaults(t *testing.T) {
	svc, err := LoadService(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "skyflow-provisioner", svc.TaskQueue)
	assert.Equal(t, 15, svc.JobRunTimeoutMinutes)
}
