package workflows

import (
	"context"

	"go.temporal.io/sdk/workflow"

	"github.com/skyflow-labs/databricks-provisioner/activities"
	"github.com/skyflow-labs/databricks-provisioner/models"
)

// createStep is one provisioning step. Fatal steps stop the pipeline on
// failure; a step with Requires set is skipped unless that step succeeded.
type createStep struct {
	Name      string
	Run       func(ctx context.Context, prefix string) (string, error)
	Fatal     bool
	Requires  string
	Dashboard bool
}

func createSteps() []createStep {
	return []createStep{
		{Name: "Preflight", Run: provisioner.Preflight, Fatal: true},
		{Name: "Unity Catalog", Run: provisioner.SetupCatalog, Fatal: true},
		{Name: "Secrets", Run: provisioner.SetupSecrets, Fatal: true},
		{Name: "Connection", Run: provisioner.SetupConnection, Fatal: true},
		{Name: "Sample Table", Run: provisioner.CreateSampleTable, Fatal: true},
		{Name: "Notebook", Run: provisioner.UploadNotebook, Fatal: true},
		{Name: "Function Verification", Run: provisioner.VerifyFunctions},
		{Name: "Tokenization Job", Run: provisioner.RunTokenizationJob},
		{Name: "Column Masks", Run: provisioner.ApplyColumnMasks, Requires: "Tokenization Job"},
		{Name: "Dashboard", Run: provisioner.CreateDashboard, Dashboard: true},
	}
}

// CreateStepNames lists the provisioning step names in execution order.
func CreateStepNames() []string {
	steps := createSteps()
	names := make([]string, len(steps))
	for i, step := range steps {
		names[i] = step.Name
	}
	return names
}

// CreateWorkflow provisions one integration instance. It first tears down
// any leftovers from a previous run (best effort), then executes the
// provisioning steps in order. A fatal step failure stops the pipeline;
// the dashboard step is always attempted once the fatal steps have passed.
func CreateWorkflow(ctx workflow.Context, input PipelineInput) (*models.PipelineReport, error) {
	logger := workflow.GetLogger(ctx)
	if err := models.ValidatePrefix(input.Prefix); err != nil {
		return nil, err
	}
	ctx = withDefaults(ctx)
	logger.Info("starting create pipeline", "prefix", input.Prefix)

	// Clean slate: remove leftovers from a previous instance with the same
	// prefix. Teardown failures are logged and never block the create.
	childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
		WorkflowID: workflow.GetInfo(ctx).WorkflowExecution.ID + "-cleanup",
	})
	var leftovers models.DeletionRecord
	if err := workflow.ExecuteChildWorkflow(childCtx, DestroyWorkflow, PipelineInput{Prefix: input.Prefix}).Get(ctx, &leftovers); err != nil {
		logger.Warn("pre-create cleanup failed, continuing", "error", err)
	} else if !leftovers.Clean() {
		logger.Warn("pre-create cleanup left resources behind, continuing", "failed", leftovers.Failed)
	}

	report := &models.PipelineReport{Prefix: input.Prefix, Succeeded: true}
	outcomes := make(map[string]bool)

	for _, step := range createSteps() {
		if step.Requires != "" && !outcomes[step.Requires] {
			detail := "skipped: " + step.Requires + " did not succeed"
			logger.Info("skipping step", "step", step.Name, "reason", detail)
			report.Record(step.Name, false, detail)
			recordStep(ctx, input, step.Name, activities.StepSkipped, detail)
			continue
		}

		recordStep(ctx, input, step.Name, activities.StepStarted, "")
		var detail string
		err := workflow.ExecuteActivity(ctx, step.Run, input.Prefix).Get(ctx, &detail)
		if err != nil {
			logger.Error("step failed", "step", step.Name, "error", err)
			report.Record(step.Name, false, err.Error())
			recordStep(ctx, input, step.Name, activities.StepFailed, err.Error())
			if step.Fatal {
				report.Succeeded = false
				return report, nil
			}
			continue
		}

		outcomes[step.Name] = true
		report.Record(step.Name, true, detail)
		recordStep(ctx, input, step.Name, activities.StepSuccess, detail)
		if step.Dashboard {
			report.DashboardURL = detail
		}
	}

	logger.Info("create pipeline finished", "prefix", input.Prefix, "succeeded", report.Succeeded)
	return report, nil
}
