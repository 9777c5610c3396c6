package activities

import (
	"context"

	"github.com/google/uuid"

	"github.com/skyflow-labs/databricks-provisioner/db"
)

// Step statuses written to the audit trail.
const (
	StepStarted = "STARTED"
	StepSuccess = "SUCCESS"
	StepFailed  = "FAILED"
	StepSkipped = "SKIPPED"
)

// StepUpdate is one audit-trail row change for a running pipeline.
type StepUpdate struct {
	SubmissionID string `json:"submission_id"`
	StepName     string `json:"step_name"`
	Status       string `json:"status"`
	Detail       string `json:"detail"`
}

// RecordStep writes a step transition to the audit database. The audit trail
// is observational only, so failures here are logged and never fail a
// pipeline.
func (p *Provisioner) RecordStep(ctx context.Context, upd StepUpdate) error {
	if upd.SubmissionID == "" || db.GormDB == nil {
		return nil
	}
	id, err := uuid.Parse(upd.SubmissionID)
	if err != nil {
		p.Logger.WithError(err).Warnf("bad submission id %q", upd.SubmissionID)
		return nil
	}
	if err := db.UpdateStep(ctx, id, upd.StepName, upd.Status, upd.Detail); err != nil {
		p.Logger.WithError(err).Warnf("failed to record step %s", upd.StepName)
	}
	return nil
}
