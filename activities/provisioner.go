package activities

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.temporal.io/sdk/activity"

	"github.com/skyflow-labs/databricks-provisioner/config"
	"github.com/skyflow-labs/databricks-provisioner/databricks"
	"github.com/skyflow-labs/databricks-provisioner/models"
	"github.com/skyflow-labs/databricks-provisioner/templates"
)

// Columns the tokenization notebook rewrites in place.
const piiColumns = "first_name,last_name,email,phone_number,address,date_of_birth"

// Provisioner carries the collaborators every pipeline step needs. All
// workflow steps run through its activity methods; the workflows themselves
// never touch the workspace.
type Provisioner struct {
	Client  *databricks.Client
	Store   *templates.Store
	Config  *config.Config
	Service *config.Service
	Logger  *logrus.Logger
}

func NewProvisioner(client *databricks.Client, store *templates.Store, cfg *config.Config, svc *config.Service) *Provisioner {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)
	return &Provisioner{Client: client, Store: store, Config: cfg, Service: svc, Logger: logger}
}

// Preflight validates configuration, template presence and workspace
// credentials before any resource is touched.
func (p *Provisioner) Preflight(ctx context.Context, prefix string) (string, error) {
	if err := p.Config.Validate(); err != nil {
		return "", err
	}
	if missing := p.Store.Missing(templates.RequiredFiles); len(missing) > 0 {
		return "", fmt.Errorf("missing required template files: %v", missing)
	}
	if err := p.Client.Me(ctx); err != nil {
		return "", fmt.Errorf("workspace authentication failed: %w", err)
	}
	return "configuration and templates validated", nil
}

// SetupCatalog creates the instance catalog and its default schema.
func (p *Provisioner) SetupCatalog(ctx context.Context, prefix string) (string, error) {
	names := models.NamesFor(prefix)
	if err := p.Client.CreateCatalog(ctx, names.Catalog, ""); err != nil {
		return "", err
	}
	if err := p.Client.CreateSchema(ctx, names.Catalog, models.DefaultSchema); err != nil {
		return "", err
	}
	return fmt.Sprintf("catalog %s with schema %s", names.Catalog, models.DefaultSchema), nil
}

// SetupSecrets provisions the shared scope and the vault credentials the
// detokenization connection and notebook read at runtime.
func (p *Provisioner) SetupSecrets(ctx context.Context, prefix string) (string, error) {
	scope := models.SecretScopeName
	if err := p.Client.CreateSecretScope(ctx, scope); err != nil {
		return "", err
	}
	secrets := map[string]string{
		"skyflow_pat_token":    p.Config.Skyflow.PATToken,
		"skyflow_vault_id":     p.Config.Skyflow.VaultID,
		"skyflow_table":        p.Config.Skyflow.Table,
		"skyflow_table_column": p.Config.Skyflow.TableColumn,
	}
	for _, key := range []string{"skyflow_pat_token", "skyflow_vault_id", "skyflow_table", "skyflow_table_column"} {
		if err := p.Client.PutSecret(ctx, scope, key, secrets[key]); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("scope %s with %d secrets", scope, len(secrets)), nil
}

// SetupConnection registers the shared Skyflow HTTP connection and installs
// the detokenization functions that call through it.
func (p *Provisioner) SetupConnection(ctx context.Context, prefix string) (string, error) {
	names := models.NamesFor(prefix)
	subs := p.Config.Substitutions(prefix)

	err := p.Client.CreateHTTPConnection(ctx, names.Connection, subs["SKYFLOW_VAULT_URL"], "/v1/vaults", names.SecretScope, "skyflow_pat_token")
	if err != nil {
		return "", err
	}

	script, err := p.Store.Render("sql/setup/setup_uc_connections_api.sql", subs)
	if err != nil {
		return "", err
	}
	if err := p.Client.ExecuteScript(ctx, script); err != nil {
		return "", fmt.Errorf("detokenization functions: %w", err)
	}
	return fmt.Sprintf("connection %s and detokenization functions", names.Connection), nil
}

// CreateSampleTable creates and seeds the demo customer table.
func (p *Provisioner) CreateSampleTable(ctx context.Context, prefix string) (string, error) {
	names := models.NamesFor(prefix)
	script, err := p.Store.Render("sql/setup/create_sample_table.sql", p.Config.Substitutions(prefix))
	if err != nil {
		return "", err
	}
	if err := p.Client.ExecuteScript(ctx, script); err != nil {
		return "", err
	}

	if !p.Client.TableExists(ctx, names.FullTable) {
		return "", fmt.Errorf("table %s not found after create", names.FullTable)
	}
	if rows := p.Client.TableRowCount(ctx, names.FullTable); rows > 0 {
		return fmt.Sprintf("table %s with %d rows", names.FullTable, rows), nil
	}
	return fmt.Sprintf("table %s created (empty)", names.FullTable), nil
}

// UploadNotebook imports the tokenization notebook under the shared folder.
func (p *Provisioner) UploadNotebook(ctx context.Context, prefix string) (string, error) {
	names := models.NamesFor(prefix)
	content, err := p.Store.Load("notebooks/notebook_tokenize_table.ipynb")
	if err != nil {
		return "", err
	}
	if err := p.Client.ImportNotebook(ctx, names.NotebookPath, content); err != nil {
		return "", err
	}
	return "notebook " + names.NotebookPath, nil
}

// VerifyFunctions checks the detokenization functions resolve. The short
// pause covers the workspace's metadata propagation after CREATE FUNCTION.
func (p *Provisioner) VerifyFunctions(ctx context.Context, prefix string) (string, error) {
	time.Sleep(5 * time.Second)
	script, err := p.Store.Render("sql/verify/verify_functions.sql", p.Config.Substitutions(prefix))
	if err != nil {
		return "", err
	}
	if err := p.Client.ExecuteScript(ctx, script); err != nil {
		return "", err
	}
	return "detokenization functions verified", nil
}

// RunTokenizationJob submits the notebook run that tokenizes the PII
// columns in place, then polls it to a terminal state.
func (p *Provisioner) RunTokenizationJob(ctx context.Context, prefix string) (string, error) {
	names := models.NamesFor(prefix)
	runName := fmt.Sprintf("tokenize_%s_%d", prefix, time.Now().Unix())

	runID, err := p.Client.SubmitNotebookRun(ctx, runName, names.NotebookPath, map[string]string{
		"table_name":  names.FullTable,
		"pii_columns": piiColumns,
		"batch_size":  fmt.Sprint(p.Config.Skyflow.BatchSize),
	})
	if err != nil {
		return "", err
	}

	err = p.Client.MonitorRun(ctx, runID, p.Service.JobRunTimeout(), func(state string) {
		activity.RecordHeartbeat(ctx, fmt.Sprintf("run %d: %s", runID, state))
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("tokenization run %d completed", runID), nil
}

// ApplyColumnMasks attaches the conditional detokenization function as a
// column mask to every tokenized column.
func (p *Provisioner) ApplyColumnMasks(ctx context.Context, prefix string) (string, error) {
	script, err := p.Store.Render("sql/setup/apply_column_masks.sql", p.Config.Substitutions(prefix))
	if err != nil {
		return "", err
	}
	if err := p.Client.ExecuteScript(ctx, script); err != nil {
		return "", err
	}
	return "column masks applied", nil
}

// CreateDashboard publishes the customer insights dashboard, reusing an
// existing one with the same name.
func (p *Provisioner) CreateDashboard(ctx context.Context, prefix string) (string, error) {
	names := models.NamesFor(prefix)
	existing, err := p.Client.FindDashboardByName(ctx, names.Dashboard)
	if err != nil {
		return "", err
	}
	if existing != "" {
		p.Logger.Infof("dashboard %s already exists", names.Dashboard)
		return p.Client.DashboardURL(existing), nil
	}

	serialized, err := p.Store.Render("dashboards/customer_insights_dashboard.lvdash.json", p.Config.Substitutions(prefix))
	if err != nil {
		return "", err
	}
	id, err := p.Client.CreateDashboard(ctx, names.Dashboard, serialized, p.Service.WorkspaceFolder)
	if err != nil {
		return "", err
	}
	return p.Client.DashboardURL(id), nil
}
