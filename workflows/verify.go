package workflows

import (
	"go.temporal.io/sdk/workflow"

	"github.com/skyflow-labs/databricks-provisioner/models"
)

// VerifyWorkflow checks that the key resources of an instance are in place:
// the sample table resolves and the conditional detokenization function
// exists. It mutates nothing.
func VerifyWorkflow(ctx workflow.Context, input PipelineInput) (*models.PipelineReport, error) {
	logger := workflow.GetLogger(ctx)
	if err := models.ValidatePrefix(input.Prefix); err != nil {
		return nil, err
	}
	ctx = withDefaults(ctx)
	logger.Info("starting verify", "prefix", input.Prefix)

	report := &models.PipelineReport{Prefix: input.Prefix, Succeeded: true}
	checks := []createStep{
		{Name: "Sample Table", Run: provisioner.VerifyTable},
		{Name: "Detokenization Function", Run: provisioner.VerifyFunction},
	}
	for _, check := range checks {
		var detail string
		if err := workflow.ExecuteActivity(ctx, check.Run, input.Prefix).Get(ctx, &detail); err != nil {
			report.Record(check.Name, false, err.Error())
			report.Succeeded = false
			continue
		}
		report.Record(check.Name, true, detail)
	}
	return report, nil
}
