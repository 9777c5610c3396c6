package workflows

import (
	"go.temporal.io/sdk/workflow"

	"github.com/skyflow-labs/databricks-provisioner/models"
)

// RecreateWorkflow destroys an existing instance and provisions it again.
// The destroy phase is best effort: its failures are logged, and only the
// create phase decides the overall result.
func RecreateWorkflow(ctx workflow.Context, input PipelineInput) (*models.PipelineReport, error) {
	logger := workflow.GetLogger(ctx)
	if err := models.ValidatePrefix(input.Prefix); err != nil {
		return nil, err
	}
	logger.Info("starting recreate pipeline", "prefix", input.Prefix)

	workflowID := workflow.GetInfo(ctx).WorkflowExecution.ID
	destroyCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
		WorkflowID: workflowID + "-destroy",
	})
	var record models.DeletionRecord
	if err := workflow.ExecuteChildWorkflow(destroyCtx, DestroyWorkflow, input).Get(ctx, &record); err != nil {
		logger.Warn("destroy phase failed, continuing with create", "error", err)
	} else if !record.Clean() {
		logger.Warn("destroy phase left resources behind, continuing with create", "failed", record.Failed)
	}

	createCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
		WorkflowID: workflowID + "-create",
	})
	var report models.PipelineReport
	if err := workflow.ExecuteChildWorkflow(createCtx, CreateWorkflow, input).Get(ctx, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
