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

func newDestroyEnv(t *testing.T) (*testsuite.TestWorkflowEnvironment, *activities.Provisioner) {
	t.Helper()
	suite := &testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(DestroyWorkflow)
	return env, &activities.Provisioner{}
}

func mockProbe(env *testsuite.TestWorkflowEnvironment, fn any, exists bool) {
	env.OnActivity(fn, mock.Anything, mock.Anything).Return(exists, nil)
}

// mockLiveCatalog answers the catalog probe true for the three
// catalog-scoped steps, then false once the catalog has been dropped.
func mockLiveCatalog(env *testsuite.TestWorkflowEnvironment, a *activities.Provisioner) {
	env.OnActivity(a.CatalogExists, mock.Anything, mock.Anything).Return(true, nil).Times(3)
	env.OnActivity(a.CatalogExists, mock.Anything, mock.Anything).Return(false, nil)
}

func TestDestroyWorkflowCleanTeardown(t *testing.T) {
	env, a := newDestroyEnv(t)
	mockLiveCatalog(env, a)
	mockStep(env, a.DeleteDashboard, "", nil)
	mockStep(env, a.DeleteNotebook, "", nil)
	mockStep(env, a.RemoveColumnMasks, "", nil)
	mockStep(env, a.DropFunctions, "", nil)
	mockStep(env, a.DropSampleTable, "", nil)
	mockStep(env, a.DropCatalog, "", nil)
	mockStep(env, a.DropConnection, "", nil)
	mockStep(env, a.DeleteSecretScope, "", nil)
	mockProbe(env, a.DashboardExists, false)
	mockProbe(env, a.NotebookPresent, false)
	mockProbe(env, a.ConnectionExists, false)
	mockProbe(env, a.SecretScopeExists, false)

	env.ExecuteWorkflow(DestroyWorkflow, PipelineInput{Prefix: "demo"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var record models.DeletionRecord
	require.NoError(t, env.GetWorkflowResult(&record))
	assert.True(t, record.Clean())
	assert.Len(t, record.Successful, len(DestroyStepNames()))
	assert.Contains(t, record.Successful, "Catalog: demo_catalog")
	assert.Contains(t, record.Successful, "Secret scope: skyflow-secrets")
}

func TestDestroyWorkflowAttemptsEveryStepAfterFailure(t *testing.T) {
	env, a := newDestroyEnv(t)
	mockLiveCatalog(env, a)
	// Dashboard deletion blows up; everything after it must still run.
	env.OnActivity(a.DeleteDashboard, mock.Anything, mock.Anything).Return("", errors.New("lakeview unavailable"))
	mockStep(env, a.DeleteNotebook, "", nil)
	mockStep(env, a.RemoveColumnMasks, "", nil)
	mockStep(env, a.DropFunctions, "", nil)
	mockStep(env, a.DropSampleTable, "", nil)
	mockStep(env, a.DropCatalog, "", nil)
	mockStep(env, a.DropConnection, "", nil)
	mockStep(env, a.DeleteSecretScope, "", nil)
	mockProbe(env, a.NotebookPresent, false)
	mockProbe(env, a.ConnectionExists, false)
	mockProbe(env, a.SecretScopeExists, false)

	env.ExecuteWorkflow(DestroyWorkflow, PipelineInput{Prefix: "demo"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var record models.DeletionRecord
	require.NoError(t, env.GetWorkflowResult(&record))
	assert.False(t, record.Clean())
	assert.Contains(t, record.Failed, "Dashboard: demo_customer_insights_dashboard")
	assert.Len(t, record.Successful, len(DestroyStepNames())-1)
	env.AssertCalled(t, "DeleteSecretScope", mock.Anything, mock.Anything)
}

func TestDestroyWorkflowSkipsCatalogScopedStepsWhenCatalogGone(t *testing.T) {
	env, a := newDestroyEnv(t)
	mockStep(env, a.DeleteDashboard, "didn't exist", nil)
	mockStep(env, a.DeleteNotebook, "didn't exist", nil)
	mockStep(env, a.DropCatalog, "", nil)
	mockStep(env, a.DropConnection, "", nil)
	mockStep(env, a.DeleteSecretScope, "", nil)
	mockProbe(env, a.DashboardExists, false)
	mockProbe(env, a.NotebookPresent, false)
	mockProbe(env, a.CatalogExists, false)
	mockProbe(env, a.ConnectionExists, false)
	mockProbe(env, a.SecretScopeExists, false)

	env.ExecuteWorkflow(DestroyWorkflow, PipelineInput{Prefix: "demo"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var record models.DeletionRecord
	require.NoError(t, env.GetWorkflowResult(&record))
	assert.True(t, record.Clean())
	assert.Contains(t, record.Successful, "Column masks on demo_catalog.default.demo_customer_data (catalog didn't exist)")
	assert.Contains(t, record.Successful, "Dashboard: demo_customer_insights_dashboard (didn't exist)")
	env.AssertNotCalled(t, "RemoveColumnMasks", mock.Anything, mock.Anything)
	env.AssertNotCalled(t, "DropFunctions", mock.Anything, mock.Anything)
	env.AssertNotCalled(t, "DropSampleTable", mock.Anything, mock.Anything)
}

func TestDestroyWorkflowReportsSurvivingResource(t *testing.T) {
	env, a := newDestroyEnv(t)
	mockLiveCatalog(env, a)
	mockStep(env, a.DeleteDashboard, "", nil)
	mockStep(env, a.DeleteNotebook, "", nil)
	mockStep(env, a.RemoveColumnMasks, "", nil)
	mockStep(env, a.DropFunctions, "", nil)
	mockStep(env, a.DropSampleTable, "", nil)
	mockStep(env, a.DropCatalog, "", nil)
	mockStep(env, a.DropConnection, "", nil)
	mockStep(env, a.DeleteSecretScope, "", nil)
	mockProbe(env, a.DashboardExists, false)
	mockProbe(env, a.NotebookPresent, false)
	// The connection delete "succeeds" but the probe still finds it.
	mockProbe(env, a.ConnectionExists, true)
	mockProbe(env, a.SecretScopeExists, false)

	env.ExecuteWorkflow(DestroyWorkflow, PipelineInput{Prefix: "demo"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var record models.DeletionRecord
	require.NoError(t, env.GetWorkflowResult(&record))
	assert.False(t, record.Clean())
	assert.Contains(t, record.Failed, "Connection: skyflow_conn (still exists)")
}

func TestRecreateWorkflowIgnoresDestroyFailures(t *testing.T) {
	suite := &testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(RecreateWorkflow)
	env.RegisterWorkflow(DestroyWorkflow)
	env.RegisterWorkflow(CreateWorkflow)

	env.OnWorkflow(DestroyWorkflow, mock.Anything, mock.Anything).
		Return(&models.DeletionRecord{Failed: []string{"Catalog: demo_catalog (still exists)"}}, nil)
	env.OnWorkflow(CreateWorkflow, mock.Anything, mock.Anything).
		Return(&models.PipelineReport{Prefix: "demo", Succeeded: true}, nil)

	env.ExecuteWorkflow(RecreateWorkflow, PipelineInput{Prefix: "demo"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var report models.PipelineReport
	require.NoError(t, env.GetWorkflowResult(&report))
	assert.True(t, report.Succeeded)
}

func TestVerifyWorkflowReportsMissingFunction(t *testing.T) {
	suite := &testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(VerifyWorkflow)

	a := &activities.Provisioner{}
	mockStep(env, a.VerifyTable, "table demo_catalog.default.demo_customer_data with 3 rows", nil)
	env.OnActivity(a.VerifyFunction, mock.Anything, mock.Anything).
		Return("", errors.New("function demo_catalog.default.demo_skyflow_conditional_detokenize does not exist"))

	env.ExecuteWorkflow(VerifyWorkflow, PipelineInput{Prefix: "demo"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var report models.PipelineReport
	require.NoError(t, env.GetWorkflowResult(&report))
	assert.False(t, report.Succeeded)
	require.Len(t, report.Steps, 2)
	assert.True(t, report.Steps[0].Succeeded)
	assert.False(t, report.Steps[1].Succeeded)
}
