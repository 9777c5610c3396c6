package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"

	"github.com/skyflow-labs/databricks-provisioner/config"
	"github.com/skyflow-labs/databricks-provisioner/db"
	"github.com/skyflow-labs/databricks-provisioner/models"
	"github.com/skyflow-labs/databricks-provisioner/workflows"
)

// Handler serves the pipeline API. Requests block until the workflow
// finishes, so callers get the full report in the response; progress is
// still visible through the status endpoint while a pipeline runs.
type Handler struct {
	service *config.Service
	logger  *logrus.Logger
}

func NewHandler(svc *config.Service) *Handler {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)
	return &Handler{service: svc, logger: logger}
}

// SubmitPipeline starts a create, destroy or recreate pipeline for the
// prefix in the URL and waits for its result.
func (h *Handler) SubmitPipeline(c echo.Context, temporalClient client.Client, mode string) error {
	prefix := c.Param("prefix")
	if err := models.ValidatePrefix(prefix); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	req, err := bindRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	submissionID := uuid.New()
	input := workflows.PipelineInput{
		Prefix:    prefix,
		Submitter: req.Submitter,
	}
	if db.GormDB != nil {
		input.SubmissionID = submissionID.String()
	}

	workflowOptions := client.StartWorkflowOptions{
		ID:        prefix + "-" + mode + "-" + uuid.NewString(),
		TaskQueue: h.service.TaskQueue,
	}

	var workflowFn any
	var stepNames []string
	switch mode {
	case ModeCreate:
		workflowFn, stepNames = workflows.CreateWorkflow, workflows.CreateStepNames()
	case ModeDestroy:
		workflowFn, stepNames = workflows.DestroyWorkflow, workflows.DestroyStepNames()
	case ModeRecreate:
		workflowFn, stepNames = workflows.RecreateWorkflow, workflows.CreateStepNames()
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown pipeline mode " + mode})
	}

	we, err := temporalClient.ExecuteWorkflow(context.Background(), workflowOptions, workflowFn, input)
	if err != nil {
		h.logger.Errorf("Failed to start %s workflow for %s: %v", mode, prefix, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	h.logger.Infof("Started %s pipeline for %s. WorkflowID: %s RunID: %s", mode, prefix, we.GetID(), we.GetRunID())

	h.persistSubmission(c.Request().Context(), submissionID, prefix, mode, req.Submitter, we.GetID(), we.GetRunID(), stepNames)

	if mode == ModeDestroy {
		return h.waitForDestroy(c, we, submissionID, prefix)
	}
	return h.waitForCreate(c, we, submissionID, prefix)
}

// RunVerify checks an existing instance without changing anything. Verify
// runs are not recorded in the audit trail.
func (h *Handler) RunVerify(c echo.Context, temporalClient client.Client) error {
	prefix := c.Param("prefix")
	if err := models.ValidatePrefix(prefix); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	workflowOptions := client.StartWorkflowOptions{
		ID:        prefix + "-verify-" + uuid.NewString(),
		TaskQueue: h.service.TaskQueue,
	}
	we, err := temporalClient.ExecuteWorkflow(context.Background(), workflowOptions, workflows.VerifyWorkflow, workflows.PipelineInput{Prefix: prefix})
	if err != nil {
		h.logger.Errorf("Failed to start verify workflow for %s: %v", prefix, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	var report models.PipelineReport
	if err := we.Get(c.Request().Context(), &report); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, report)
}

// GetSubmissionStatus reports a submission's audit rows together with the
// live Temporal execution state. When Temporal is unreachable the audit
// rows are still returned.
func (h *Handler) GetSubmissionStatus(c echo.Context, temporalClient client.Client) error {
	parsedID, err := uuid.Parse(c.Param("submission_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid submission ID"})
	}
	if db.GormDB == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "audit database is not configured"})
	}

	submission, err := db.GetSubmission(c.Request().Context(), parsedID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "submission not found"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()
	resp, err := temporalClient.DescribeWorkflowExecution(ctx, submission.WorkflowID, submission.RunID)
	if err != nil {
		h.logger.Errorf("Error describing workflow [%s]: %v", submission.WorkflowID, err)
		return c.JSON(http.StatusOK, echo.Map{
			"status":          "Unknown (Temporal Unavailable)",
			"temporal_online": false,
			"submission":      submission,
		})
	}

	info := resp.WorkflowExecutionInfo
	statusStr := enumspb.WorkflowExecutionStatus_name[int32(info.Status)]
	startTime := info.GetStartTime().AsTime()
	duration := info.GetCloseTime().AsTime().Sub(startTime)
	if info.Status == enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING {
		duration = time.Since(startTime)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":     statusStr,
		"start_time": startTime,
		"duration":   duration.String(),
		"submission": submission,
	})
}

func (h *Handler) persistSubmission(ctx context.Context, submissionID uuid.UUID, prefix, mode, submitter, workflowID, runID string, stepNames []string) {
	if db.GormDB == nil {
		return
	}
	submission := db.Submission{
		ID:         submissionID,
		Prefix:     prefix,
		Mode:       mode,
		Submitter:  submitter,
		WorkflowID: workflowID,
		RunID:      runID,
		Status:     "RUNNING",
	}
	for _, name := range stepNames {
		submission.Steps = append(submission.Steps, db.SubmissionStep{
			ID:            uuid.New(),
			SubmissionID:  submissionID,
			StepName:      name,
			Status:        "PENDING",
			LastUpdatedAt: time.Now(),
		})
	}
	if err := db.CreateSubmission(ctx, &submission); err != nil {
		h.logger.Errorf("Failed to persist submission %s: %v", submissionID, err)
	}
}

func (h *Handler) waitForCreate(c echo.Context, we client.WorkflowRun, submissionID uuid.UUID, prefix string) error {
	var report models.PipelineReport
	if err := we.Get(c.Request().Context(), &report); err != nil {
		h.completeSubmission(submissionID, "FAILED", nil, nil)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	var successful, failed []string
	for _, step := range report.Steps {
		if step.Succeeded {
			successful = append(successful, step.Name)
		} else {
			failed = append(failed, step.Name)
		}
	}
	status := "COMPLETED"
	if !report.Succeeded {
		status = "FAILED"
	}
	h.completeSubmission(submissionID, status, successful, failed)

	return c.JSON(http.StatusOK, echo.Map{
		"submission_id": submissionID.String(),
		"report":        report,
	})
}

func (h *Handler) waitForDestroy(c echo.Context, we client.WorkflowRun, submissionID uuid.UUID, prefix string) error {
	var record models.DeletionRecord
	if err := we.Get(c.Request().Context(), &record); err != nil {
		h.completeSubmission(submissionID, "FAILED", nil, nil)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	status := "COMPLETED"
	if !record.Clean() {
		status = "PARTIAL"
	}
	h.completeSubmission(submissionID, status, record.Successful, record.Failed)

	return c.JSON(http.StatusOK, echo.Map{
		"submission_id": submissionID.String(),
		"prefix":        prefix,
		"clean":         record.Clean(),
		"record":        record,
	})
}

func (h *Handler) completeSubmission(submissionID uuid.UUID, status string, successful, failed []string) {
	if db.GormDB == nil {
		return
	}
	if err := db.CompleteSubmission(context.Background(), submissionID, status, successful, failed); err != nil {
		h.logger.Errorf("Failed to complete submission %s: %v", submissionID, err)
	}
}
