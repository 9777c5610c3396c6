package workflows

import (
	"context"

	"go.temporal.io/sdk/workflow"

	"github.com/skyflow-labs/databricks-provisioner/activities"
	"github.com/skyflow-labs/databricks-provisioner/models"
)

// teardownStep is one deletion step. Every step runs regardless of earlier
// failures. Steps with NeedsCatalog are counted as successful without running
// when the catalog is already gone. When Verify is set, the resource is
// probed after deletion and a surviving resource marks the step failed.
type teardownStep struct {
	Name         string
	Item         func(names models.ResourceNames) string
	Run          func(ctx context.Context, prefix string) (string, error)
	Verify       func(ctx context.Context, prefix string) (bool, error)
	NeedsCatalog bool
}

func teardownSteps() []teardownStep {
	return []teardownStep{
		{
			Name:   "Dashboard",
			Item:   func(n models.ResourceNames) string { return "Dashboard: " + n.Dashboard },
			Run:    provisioner.DeleteDashboard,
			Verify: provisioner.DashboardExists,
		},
		{
			Name:   "Notebook",
			Item:   func(n models.ResourceNames) string { return "Notebook: " + n.NotebookPath },
			Run:    provisioner.DeleteNotebook,
			Verify: provisioner.NotebookPresent,
		},
		{
			Name:         "Column Masks",
			Item:         func(n models.ResourceNames) string { return "Column masks on " + n.FullTable },
			Run:          provisioner.RemoveColumnMasks,
			NeedsCatalog: true,
		},
		{
			Name:         "Functions",
			Item:         func(n models.ResourceNames) string { return "Detokenization functions in " + n.Catalog },
			Run:          provisioner.DropFunctions,
			NeedsCatalog: true,
		},
		{
			Name:         "Sample Table",
			Item:         func(n models.ResourceNames) string { return "Table: " + n.FullTable },
			Run:          provisioner.DropSampleTable,
			NeedsCatalog: true,
		},
		{
			Name:   "Catalog",
			Item:   func(n models.ResourceNames) string { return "Catalog: " + n.Catalog },
			Run:    provisioner.DropCatalog,
			Verify: provisioner.CatalogExists,
		},
		{
			Name:   "Connection",
			Item:   func(n models.ResourceNames) string { return "Connection: " + n.Connection },
			Run:    provisioner.DropConnection,
			Verify: provisioner.ConnectionExists,
		},
		{
			Name:   "Secret Scope",
			Item:   func(n models.ResourceNames) string { return "Secret scope: " + n.SecretScope },
			Run:    provisioner.DeleteSecretScope,
			Verify: provisioner.SecretScopeExists,
		},
	}
}

// DestroyStepNames lists the teardown step names in execution order.
func DestroyStepNames() []string {
	steps := teardownSteps()
	names := make([]string, len(steps))
	for i, step := range steps {
		names[i] = step.Name
	}
	return names
}

// DestroyWorkflow tears down one integration instance. Every step is
// attempted even when earlier ones fail, so a partial instance can always be
// cleaned up. The returned record lists what was removed and what survived.
func DestroyWorkflow(ctx workflow.Context, input PipelineInput) (*models.DeletionRecord, error) {
	logger := workflow.GetLogger(ctx)
	if err := models.ValidatePrefix(input.Prefix); err != nil {
		return nil, err
	}
	ctx = withDefaults(ctx)
	logger.Info("starting destroy pipeline", "prefix", input.Prefix)

	names := models.NamesFor(input.Prefix)
	record := &models.DeletionRecord{}

	for _, step := range teardownSteps() {
		item := step.Item(names)
		recordStep(ctx, input, step.Name, activities.StepStarted, "")

		if step.NeedsCatalog {
			var catalogExists bool
			if err := workflow.ExecuteActivity(ctx, provisioner.CatalogExists, input.Prefix).Get(ctx, &catalogExists); err != nil {
				logger.Warn("catalog probe failed, assuming gone", "step", step.Name, "error", err)
			}
			if !catalogExists {
				record.Success(item + " (catalog didn't exist)")
				recordStep(ctx, input, step.Name, activities.StepSkipped, "catalog didn't exist")
				continue
			}
		}

		var detail string
		if err := workflow.ExecuteActivity(ctx, step.Run, input.Prefix).Get(ctx, &detail); err != nil {
			logger.Error("teardown step failed", "step", step.Name, "error", err)
			record.Failure(item)
			recordStep(ctx, input, step.Name, activities.StepFailed, err.Error())
			continue
		}

		if step.Verify != nil {
			var stillExists bool
			if err := workflow.ExecuteActivity(ctx, step.Verify, input.Prefix).Get(ctx, &stillExists); err != nil {
				logger.Warn("post-delete probe failed", "step", step.Name, "error", err)
			}
			if stillExists {
				record.Failure(item + " (still exists)")
				recordStep(ctx, input, step.Name, activities.StepFailed, "still exists after delete")
				continue
			}
		}

		if detail != "" {
			item += " (" + detail + ")"
		}
		record.Success(item)
		recordStep(ctx, input, step.Name, activities.StepSuccess, detail)
	}

	logger.Info("destroy pipeline finished", "prefix", input.Prefix, "clean", record.Clean())
	return record, nil
}
