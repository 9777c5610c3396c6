package databricks

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	statementsPath   = "/api/2.0/sql/statements"
	statementTimeout = 5 * time.Minute
	statementPoll    = 5 * time.Second
)

type statementStatus struct {
	State string `json:"state"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type statementResponse struct {
	StatementID string          `json:"statement_id"`
	Status      statementStatus `json:"status"`
	Manifest    *struct {
		Schema struct {
			Columns []struct {
				Name string `json:"name"`
			} `json:"columns"`
		} `json:"schema"`
	} `json:"manifest"`
	Result *struct {
		DataArray [][]string `json:"data_array"`
	} `json:"result"`
}

func (s *statementResponse) terminal() bool {
	switch s.Status.State {
	case "SUCCEEDED", "FAILED", "CANCELED", "CLOSED":
		return true
	}
	return false
}

// RunStatement runs one SQL statement on the configured warehouse and waits
// for its terminal state, reporting only success or failure.
func (c *Client) RunStatement(ctx context.Context, statement string) error {
	_, err := c.executeStatement(ctx, statement)
	return err
}

func (c *Client) executeStatement(ctx context.Context, statement string) (*statementResponse, error) {
	var resp statementResponse
	err := c.retry.Do(ctx, "execute statement", func() error {
		return c.do(ctx, http.MethodPost, statementsPath, nil, map[string]string{
			"warehouse_id": c.warehouseID,
			"statement":    statement,
			"wait_timeout": "30s",
		}, &resp)
	})
	if err != nil {
		return nil, err
	}

	if !resp.terminal() {
		done := c.retry.WaitForCompletion(ctx, "SQL execution", statementPoll, statementTimeout, func() (bool, error) {
			var latest statementResponse
			if err := c.do(ctx, http.MethodGet, statementsPath+"/"+resp.StatementID, nil, nil, &latest); err != nil {
				return false, err
			}
			resp = latest
			return latest.terminal(), nil
		})
		if !done {
			return nil, fmt.Errorf("statement %s did not finish within %s", resp.StatementID, statementTimeout)
		}
	}

	if resp.Status.State != "SUCCEEDED" {
		msg := "unknown error"
		if resp.Status.Error != nil {
			msg = resp.Status.Error.Message
		}
		return nil, fmt.Errorf("statement finished %s: %s", resp.Status.State, msg)
	}
	return &resp, nil
}

// ExecuteScript splits an already-rendered SQL script on statement
// boundaries and executes each statement in document order. It stops at the
// first failure and reports the failing statement index.
func (c *Client) ExecuteScript(ctx context.Context, script string) error {
	statements := SplitStatements(script)
	for i, statement := range statements {
		c.logger.Infof("executing statement %d/%d", i+1, len(statements))
		if _, err := c.executeStatement(ctx, statement); err != nil {
			return fmt.Errorf("statement %d/%d failed: %w", i+1, len(statements), err)
		}
	}
	return nil
}

// SplitStatements breaks a SQL script into individual statements.
func SplitStatements(script string) []string {
	var statements []string
	for _, raw := range strings.Split(script, ";") {
		if stmt := strings.TrimSpace(raw); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}

// QueryRows runs a query and returns the rows as column-name maps.
func (c *Client) QueryRows(ctx context.Context, statement string) ([]map[string]string, error) {
	resp, err := c.executeStatement(ctx, statement)
	if err != nil {
		return nil, err
	}
	if resp.Result == nil || resp.Manifest == nil {
		return nil, nil
	}
	columns := resp.Manifest.Schema.Columns
	rows := make([]map[string]string, 0, len(resp.Result.DataArray))
	for _, raw := range resp.Result.DataArray {
		row := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(raw) {
				row[col.Name] = raw[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// TableExists probes a table with DESCRIBE; any failure collapses to false
// since a broken warehouse and a missing table read the same to callers.
func (c *Client) TableExists(ctx context.Context, fullName string) bool {
	_, err := c.executeStatement(ctx, "DESCRIBE TABLE "+fullName)
	return err == nil
}

// FunctionExists probes a SQL function with DESCRIBE FUNCTION.
func (c *Client) FunctionExists(ctx context.Context, fullName string) bool {
	_, err := c.executeStatement(ctx, "DESCRIBE FUNCTION "+fullName)
	return err == nil
}

// TableRowCount returns the row count, or -1 when the count query fails.
func (c *Client) TableRowCount(ctx context.Context, fullName string) int64 {
	rows, err := c.QueryRows(ctx, fmt.Sprintf("SELECT COUNT(*) AS count FROM %s", fullName))
	if err != nil || len(rows) == 0 {
		return -1
	}
	n, err := strconv.ParseInt(rows[0]["count"], 10, 64)
	if err != nil {
		return -1
	}
	return n
}
