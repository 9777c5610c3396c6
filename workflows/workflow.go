package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/skyflow-labs/databricks-provisioner/activities"
)

// PipelineInput identifies one pipeline run. SubmissionID is optional; when
// set, step transitions are written to the audit database.
type PipelineInput struct {
	Prefix       string `json:"prefix"`
	SubmissionID string `json:"submission_id,omitempty"`
	Submitter    string `json:"submitter,omitempty"`
}

// Activity method references for ExecuteActivity. Only the method names are
// used; the worker supplies the live receiver.
var provisioner *activities.Provisioner

// withDefaults configures activity options for pipeline steps. Remote calls
// already retry inside the workspace client, so Temporal itself runs each
// activity once.
func withDefaults(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})
}

// recordStep writes one audit-trail transition, best effort.
func recordStep(ctx workflow.Context, input PipelineInput, stepName, status, detail string) {
	if input.SubmissionID == "" {
		return
	}
	upd := activities.StepUpdate{
		SubmissionID: input.SubmissionID,
		StepName:     stepName,
		Status:       status,
		Detail:       detail,
	}
	if err := workflow.ExecuteActivity(ctx, provisioner.RecordStep, upd).Get(ctx, nil); err != nil {
		workflow.GetLogger(ctx).Warn("failed to record step transition", "step", stepName, "error", err)
	}
}
