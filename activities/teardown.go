package activities

import (
	"context"
	"fmt"

	"github.com/skyflow-labs/databricks-provisioner/models"
)

// DeleteDashboard trashes the instance dashboard. A dashboard that was never
// created is reported as already gone, not as a failure.
func (p *Provisioner) DeleteDashboard(ctx context.Context, prefix string) (string, error) {
	names := models.NamesFor(prefix)
	id, err := p.Client.FindDashboardByName(ctx, names.Dashboard)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "didn't exist", nil
	}
	if err := p.Client.TrashDashboard(ctx, id); err != nil {
		return "", err
	}
	return "", nil
}

// DeleteNotebook removes the tokenization notebook from the workspace.
func (p *Provisioner) DeleteNotebook(ctx context.Context, prefix string) (string, error) {
	names := models.NamesFor(prefix)
	existed, err := p.Client.NotebookExists(ctx, names.NotebookPath)
	if err != nil {
		return "", err
	}
	if !existed {
		return "didn't exist", nil
	}
	if err := p.Client.DeleteNotebook(ctx, names.NotebookPath); err != nil {
		return "", err
	}
	return "", nil
}

// RemoveColumnMasks drops the masks from the sample table. Masks that were
// never applied make the ALTER statements fail, which is fine to ignore.
func (p *Provisioner) RemoveColumnMasks(ctx context.Context, prefix string) (string, error) {
	script, err := p.Store.Render("sql/destroy/remove_column_masks.sql", p.Config.Substitutions(prefix))
	if err != nil {
		return "", err
	}
	if err := p.Client.ExecuteScript(ctx, script); err != nil {
		p.Logger.WithError(err).Warn("column mask removal skipped")
		return "may not have been applied", nil
	}
	return "", nil
}

// DropFunctions removes the detokenization functions from the catalog.
func (p *Provisioner) DropFunctions(ctx context.Context, prefix string) (string, error) {
	script, err := p.Store.Render("sql/destroy/drop_functions.sql", p.Config.Substitutions(prefix))
	if err != nil {
		return "", err
	}
	if err := p.Client.ExecuteScript(ctx, script); err != nil {
		return "", err
	}
	return "", nil
}

// DropSampleTable removes the demo customer table.
func (p *Provisioner) DropSampleTable(ctx context.Context, prefix string) (string, error) {
	script, err := p.Store.Render("sql/destroy/drop_table.sql", p.Config.Substitutions(prefix))
	if err != nil {
		return "", err
	}
	if err := p.Client.ExecuteScript(ctx, script); err != nil {
		return "", err
	}
	return "", nil
}

// DropCatalog force-drops the instance catalog with everything in it.
func (p *Provisioner) DropCatalog(ctx context.Context, prefix string) (string, error) {
	names := models.NamesFor(prefix)
	if err := p.Client.DropCatalog(ctx, names.Catalog); err != nil {
		return "", err
	}
	return "", nil
}

// DropConnection removes the shared Skyflow connection.
func (p *Provisioner) DropConnection(ctx context.Context, prefix string) (string, error) {
	names := models.NamesFor(prefix)
	if err := p.Client.DropConnection(ctx, names.Connection); err != nil {
		return "", err
	}
	return "", nil
}

// DeleteSecretScope removes the shared secret scope and every key in it.
func (p *Provisioner) DeleteSecretScope(ctx context.Context, prefix string) (string, error) {
	names := models.NamesFor(prefix)
	if err := p.Client.DeleteSecretScope(ctx, names.SecretScope); err != nil {
		return "", err
	}
	return "", nil
}

// CatalogExists probes for the instance catalog. Probe errors collapse to
// false so teardown keeps moving.
func (p *Provisioner) CatalogExists(ctx context.Context, prefix string) (bool, error) {
	names := models.NamesFor(prefix)
	exists, err := p.Client.CatalogExists(ctx, names.Catalog)
	if err != nil {
		p.Logger.WithError(err).Warnf("catalog probe failed for %s", names.Catalog)
		return false, nil
	}
	return exists, nil
}

// ConnectionExists probes for the shared connection.
func (p *Provisioner) ConnectionExists(ctx context.Context, prefix string) (bool, error) {
	names := models.NamesFor(prefix)
	exists, err := p.Client.ConnectionExists(ctx, names.Connection)
	if err != nil {
		p.Logger.WithError(err).Warnf("connection probe failed for %s", names.Connection)
		return false, nil
	}
	return exists, nil
}

// SecretScopeExists probes for the shared secret scope.
func (p *Provisioner) SecretScopeExists(ctx context.Context, prefix string) (bool, error) {
	names := models.NamesFor(prefix)
	exists, err := p.Client.SecretScopeExists(ctx, names.SecretScope)
	if err != nil {
		p.Logger.WithError(err).Warnf("secret scope probe failed for %s", names.SecretScope)
		return false, nil
	}
	return exists, nil
}

// DashboardExists probes for the instance dashboard by display name.
func (p *Provisioner) DashboardExists(ctx context.Context, prefix string) (bool, error) {
	names := models.NamesFor(prefix)
	id, err := p.Client.FindDashboardByName(ctx, names.Dashboard)
	if err != nil {
		p.Logger.WithError(err).Warnf("dashboard probe failed for %s", names.Dashboard)
		return false, nil
	}
	return id != "", nil
}

// NotebookPresent probes for the tokenization notebook.
func (p *Provisioner) NotebookPresent(ctx context.Context, prefix string) (bool, error) {
	names := models.NamesFor(prefix)
	exists, err := p.Client.NotebookExists(ctx, names.NotebookPath)
	if err != nil {
		p.Logger.WithError(err).Warnf("notebook probe failed for %s", names.NotebookPath)
		return false, nil
	}
	return exists, nil
}

// VerifyTable checks the sample table exists and reports its row count.
func (p *Provisioner) VerifyTable(ctx context.Context, prefix string) (string, error) {
	names := models.NamesFor(prefix)
	if !p.Client.TableExists(ctx, names.FullTable) {
		return "", fmt.Errorf("table %s does not exist", names.FullTable)
	}
	if rows := p.Client.TableRowCount(ctx, names.FullTable); rows >= 0 {
		return fmt.Sprintf("table %s with %d rows", names.FullTable, rows), nil
	}
	return "table " + names.FullTable, nil
}

// VerifyFunction checks the conditional detokenization function resolves.
func (p *Provisioner) VerifyFunction(ctx context.Context, prefix string) (string, error) {
	names := models.NamesFor(prefix)
	if !p.Client.FunctionExists(ctx, names.Function) {
		return "", fmt.Errorf("function %s does not exist", names.Function)
	}
	return "function " + names.Function, nil
}
