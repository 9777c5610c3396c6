package workflows

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/skyflow-labs/databricks-provisioner/activities"
	"github.com/skyflow-labs/databricks-provisioner/models"
)

func newCreateEnv(t *testing.T) (*testsuite.TestWorkflowEnvironment, *activities.Provisioner) {
	t.Helper()
	suite := &testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(CreateWorkflow)
	env.RegisterWorkflow(DestroyWorkflow)

	// The pre-create cleanup child runs against an empty workspace here.
	env.OnWorkflow(DestroyWorkflow, mock.Anything, mock.Anything).Return(&models.DeletionRecord{}, nil)
	return env, &activities.Provisioner{}
}

func mockStep(env *testsuite.TestWorkflowEnvironment, fn any, detail string, err error) {
	env.OnActivity(fn, mock.Anything, mock.Anything).Return(detail, err)
}

func TestCreateWorkflowHappyPath(t *testing.T) {
	env, a := newCreateEnv(t)
	mockStep(env, a.Preflight, "configuration and templates validated", nil)
	mockStep(env, a.SetupCatalog, "catalog demo_catalog with schema default", nil)
	mockStep(env, a.SetupSecrets, "scope skyflow-secrets with 4 secrets", nil)
	mockStep(env, a.SetupConnection, "connection skyflow_conn", nil)
	mockStep(env, a.CreateSampleTable, "table demo_catalog.default.demo_customer_data with 3 rows", nil)
	mockStep(env, a.UploadNotebook, "notebook /Shared/demo_tokenize_table", nil)
	mockStep(env, a.VerifyFunctions, "detokenization functions verified", nil)
	mockStep(env, a.RunTokenizationJob, "tokenization run 42 completed", nil)
	mockStep(env, a.ApplyColumnMasks, "column masks applied", nil)
	mockStep(env, a.CreateDashboard, "https://workspace/sql/dashboardsv3/d1", nil)

	env.ExecuteWorkflow(CreateWorkflow, PipelineInput{Prefix: "demo"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var report models.PipelineReport
	require.NoError(t, env.GetWorkflowResult(&report))
	assert.True(t, report.Succeeded)
	assert.Equal(t, "https://workspace/sql/dashboardsv3/d1", report.DashboardURL)
	require.Len(t, report.Steps, len(CreateStepNames()))
	for i, name := range CreateStepNames() {
		assert.Equal(t, name, report.Steps[i].Name)
		assert.True(t, report.Steps[i].Succeeded, name)
	}
}

func TestCreateWorkflowFatalStepStopsPipeline(t *testing.T) {
	env, a := newCreateEnv(t)
	mockStep(env, a.Preflight, "ok", nil)
	mockStep(env, a.SetupCatalog, "ok", nil)
	mockStep(env, a.SetupSecrets, "", errors.New("secret scope creation denied"))

	env.ExecuteWorkflow(CreateWorkflow, PipelineInput{Prefix: "demo"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var report models.PipelineReport
	require.NoError(t, env.GetWorkflowResult(&report))
	assert.False(t, report.Succeeded)
	require.Len(t, report.Steps, 3)
	assert.True(t, report.Steps[0].Succeeded)
	assert.True(t, report.Steps[1].Succeeded)
	assert.False(t, report.Steps[2].Succeeded)
	assert.Contains(t, report.Steps[2].Detail, "secret scope creation denied")
}

func TestCreateWorkflowMasksSkippedWhenTokenizationFails(t *testing.T) {
	env, a := newCreateEnv(t)
	mockStep(env, a.Preflight, "ok", nil)
	mockStep(env, a.SetupCatalog, "ok", nil)
	mockStep(env, a.SetupSecrets, "ok", nil)
	mockStep(env, a.SetupConnection, "ok", nil)
	mockStep(env, a.CreateSampleTable, "ok", nil)
	mockStep(env, a.UploadNotebook, "ok", nil)
	mockStep(env, a.VerifyFunctions, "ok", nil)
	mockStep(env, a.RunTokenizationJob, "", errors.New("run 42 failed in state TERMINATED"))
	mockStep(env, a.CreateDashboard, "https://workspace/sql/dashboardsv3/d1", nil)

	env.ExecuteWorkflow(CreateWorkflow, PipelineInput{Prefix: "demo"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var report models.PipelineReport
	require.NoError(t, env.GetWorkflowResult(&report))

	byName := map[string]models.StepOutcome{}
	for _, step := range report.Steps {
		byName[step.Name] = step
	}
	assert.False(t, byName["Tokenization Job"].Succeeded)
	assert.False(t, byName["Column Masks"].Succeeded)
	assert.Contains(t, byName["Column Masks"].Detail, "skipped")
	// The dashboard is still attempted and the pipeline is still a success:
	// masking can be re-run once tokenization is fixed.
	assert.True(t, byName["Dashboard"].Succeeded)
	assert.True(t, report.Succeeded)
	env.AssertNotCalled(t, "ApplyColumnMasks", mock.Anything, mock.Anything)
}

func TestCreateWorkflowContinuesWhenCleanupFails(t *testing.T) {
	suite := &testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(CreateWorkflow)
	env.RegisterWorkflow(DestroyWorkflow)
	env.OnWorkflow(DestroyWorkflow, mock.Anything, mock.Anything).
		Return((*models.DeletionRecord)(nil), errors.New("cleanup blew up"))

	a := &activities.Provisioner{}
	mockStep(env, a.Preflight, "ok", nil)
	mockStep(env, a.SetupCatalog, "ok", nil)
	mockStep(env, a.SetupSecrets, "ok", nil)
	mockStep(env, a.SetupConnection, "ok", nil)
	mockStep(env, a.CreateSampleTable, "ok", nil)
	mockStep(env, a.UploadNotebook, "ok", nil)
	mockStep(env, a.VerifyFunctions, "ok", nil)
	mockStep(env, a.RunTokenizationJob, "ok", nil)
	mockStep(env, a.ApplyColumnMasks, "ok", nil)
	mockStep(env, a.CreateDashboard, "url", nil)

	env.ExecuteWorkflow(CreateWorkflow, PipelineInput{Prefix: "demo"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var report models.PipelineReport
	require.NoError(t, env.GetWorkflowResult(&report))
	assert.True(t, report.Succeeded)
}

func TestCreateWorkflowRejectsInvalidPrefix(t *testing.T) {
	suite := &testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(CreateWorkflow)

	env.ExecuteWorkflow(CreateWorkflow, PipelineInput{Prefix: "Bad-Prefix"})
	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
}
