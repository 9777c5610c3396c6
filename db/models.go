package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Submission is one provisioning request: a prefix plus the mode it was
// submitted with, tied to the Temporal execution that carried it out. Rows
// are an audit trail only; pipelines never read them to decide anything.
type Submission struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Prefix      string         `json:"prefix"`
	Mode        string         `json:"mode"`
	Submitter   string         `json:"submitter"`
	WorkflowID  string         `json:"workflow_id"`
	RunID       string         `json:"run_id"`
	Status      string         `json:"status"`
	Successful  pq.StringArray `gorm:"type:text[]" json:"successful,omitempty"`
	Failed      pq.StringArray `gorm:"type:text[]" json:"failed,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`

	Steps []SubmissionStep `gorm:"foreignKey:SubmissionID" json:"steps,omitempty"`
}

// SubmissionStep tracks one pipeline step's lifecycle:
// PENDING -> STARTED -> SUCCESS | FAILED | SKIPPED.
type SubmissionStep struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SubmissionID  uuid.UUID      `gorm:"type:uuid;index" json:"submission_id"`
	StepName      string         `json:"step_name"`
	Status        string         `json:"status"`
	Detail        string         `json:"detail,omitempty"`
	Result        datatypes.JSON `json:"result,omitempty"`
	LastUpdatedAt time.Time      `json:"last_updated_at"`
}
