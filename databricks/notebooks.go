package databricks

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	runPollInterval = 30 * time.Second
	// Wall-clock bound for one tokenization run, independent of per-call
	// retry budgets.
	DefaultRunTimeout = 15 * time.Minute
)

// ImportNotebook uploads notebook content to the workspace path, overwriting
// any previous revision.
func (c *Client) ImportNotebook(ctx context.Context, workspacePath string, content []byte) error {
	err := c.retry.Do(ctx, "import notebook "+workspacePath, func() error {
		return c.do(ctx, http.MethodPost, "/api/2.0/workspace/import", nil, map[string]any{
			"path":      workspacePath,
			"content":   base64.StdEncoding.EncodeToString(content),
			"format":    "JUPYTER",
			"language":  "PYTHON",
			"overwrite": true,
		}, nil)
	})
	if err != nil {
		return err
	}
	c.logger.Infof("imported notebook %s", workspacePath)
	return nil
}

// DeleteNotebook removes a workspace object, treating absence as success.
func (c *Client) DeleteNotebook(ctx context.Context, workspacePath string) error {
	exists, err := c.NotebookExists(ctx, workspacePath)
	if err != nil {
		return err
	}
	if !exists {
		c.logger.Infof("notebook %s doesn't exist", workspacePath)
		return nil
	}
	err = c.retry.Do(ctx, "delete notebook "+workspacePath, func() error {
		return c.do(ctx, http.MethodPost, "/api/2.0/workspace/delete", nil, map[string]any{
			"path":      workspacePath,
			"recursive": true,
		}, nil)
	})
	if err != nil {
		return err
	}
	c.logger.Infof("deleted notebook %s", workspacePath)
	return nil
}

func (c *Client) NotebookExists(ctx context.Context, workspacePath string) (bool, error) {
	return Exists(func() error {
		return c.do(ctx, http.MethodGet, "/api/2.0/workspace/get-status", url.Values{"path": {workspacePath}}, nil, nil)
	})
}

type runState struct {
	State struct {
		LifeCycleState string `json:"life_cycle_state"`
		ResultState    string `json:"result_state"`
		StateMessage   string `json:"state_message"`
	} `json:"state"`
}

// SubmitNotebookRun starts a one-off serverless job run for the notebook and
// returns the run id.
func (c *Client) SubmitNotebookRun(ctx context.Context, runName, notebookPath string, parameters map[string]string) (int64, error) {
	var resp struct {
		RunID int64 `json:"run_id"`
	}
	err := c.retry.Do(ctx, "submit run "+runName, func() error {
		return c.do(ctx, http.MethodPost, "/api/2.1/jobs/runs/submit", nil, map[string]any{
			"run_name": runName,
			"tasks": []map[string]any{{
				"task_key": "tokenize_task",
				"notebook_task": map[string]any{
					"notebook_path":   notebookPath,
					"source":          "WORKSPACE",
					"base_parameters": parameters,
				},
				"timeout_seconds": 1800,
			}},
		}, &resp)
	})
	if err != nil {
		return 0, err
	}
	c.logger.Infof("started notebook run %d (%s)", resp.RunID, runName)
	return resp.RunID, nil
}

// MonitorRun polls the run until a terminal state, bounded by timeout.
// Only a TERMINATED run with result SUCCESS counts as success; failure,
// cancellation, internal errors and the poll timeout all return an error.
// onPoll, when set, receives each observed state for progress reporting.
func (c *Client) MonitorRun(ctx context.Context, runID int64, timeout time.Duration, onPoll func(state string)) error {
	if timeout <= 0 {
		timeout = DefaultRunTimeout
	}
	var last runState
	done := c.retry.WaitForCompletion(ctx, fmt.Sprintf("run %d", runID), runPollInterval, timeout, func() (bool, error) {
		var current runState
		err := c.do(ctx, http.MethodGet, "/api/2.1/jobs/runs/get", url.Values{"run_id": {fmt.Sprint(runID)}}, nil, &current)
		if err != nil {
			return false, err
		}
		last = current
		if onPoll != nil {
			onPoll(current.State.LifeCycleState)
		}
		switch current.State.LifeCycleState {
		case "TERMINATED", "INTERNAL_ERROR", "SKIPPED":
			return true, nil
		}
		return false, nil
	})
	if !done {
		return fmt.Errorf("run %d timed out after %s", runID, timeout)
	}

	state := last.State
	if state.LifeCycleState == "TERMINATED" && state.ResultState == "SUCCESS" {
		c.logger.Infof("run %d completed successfully", runID)
		return nil
	}
	msg := state.StateMessage
	if msg == "" {
		msg = fmt.Sprintf("result %s", state.ResultState)
	}
	return fmt.Errorf("run %d failed in state %s: %s", runID, state.LifeCycleState, msg)
}
