package models

import (
	"fmt"
	"regexp"
)

// Shared resource names. The connection and secret scope are not prefixed:
// one Skyflow vault serves every integration instance in the workspace.
const (
	ConnectionName  = "skyflow_conn"
	SecretScopeName = "skyflow-secrets"
	DefaultSchema   = "default"
)

var prefixPattern = regexp.MustCompile(`^[a-z][a-z0-9]{1,19}$`)

// ValidatePrefix enforces the naming rule every derived resource name
// depends on. Pipelines must not run for a prefix that fails this.
func ValidatePrefix(prefix string) error {
	if !prefixPattern.MatchString(prefix) {
		return fmt.Errorf("invalid prefix %q: must be 2-20 lowercase letters/digits and start with a letter", prefix)
	}
	return nil
}

// ResourceNames holds every name derived from a prefix.
type ResourceNames struct {
	Prefix       string `json:"prefix"`
	Catalog      string `json:"catalog"`
	Table        string `json:"table"`
	FullTable    string `json:"full_table"`
	Function     string `json:"function"`
	NotebookPath string `json:"notebook_path"`
	Dashboard    string `json:"dashboard"`
	Connection   string `json:"connection"`
	SecretScope  string `json:"secret_scope"`
}

// NamesFor derives all resource names for one integration instance.
func NamesFor(prefix string) ResourceNames {
	catalog := prefix + "_catalog"
	table := prefix + "_customer_data"
	return ResourceNames{
		Prefix:       prefix,
		Catalog:      catalog,
		Table:        table,
		FullTable:    fmt.Sprintf("%s.%s.%s", catalog, DefaultSchema, table),
		Function:     fmt.Sprintf("%s.%s.%s_skyflow_conditional_detokenize", catalog, DefaultSchema, prefix),
		NotebookPath: fmt.Sprintf("/Shared/%s_tokenize_table", prefix),
		Dashboard:    prefix + "_customer_insights_dashboard",
		Connection:   ConnectionName,
		SecretScope:  SecretScopeName,
	}
}

// StepOutcome is the result of one pipeline step.
type StepOutcome struct {
	Name      string `json:"name"`
	Succeeded bool   `json:"succeeded"`
	Detail    string `json:"detail,omitempty"`
}

// PipelineReport is the ordered outcome list for one pipeline run plus the
// derived overall result.
type PipelineReport struct {
	Prefix       string        `json:"prefix"`
	Steps        []StepOutcome `json:"steps"`
	Succeeded    bool          `json:"succeeded"`
	DashboardURL string        `json:"dashboard_url,omitempty"`
}

// Record appends a step outcome in execution order.
func (r *PipelineReport) Record(name string, succeeded bool, detail string) {
	r.Steps = append(r.Steps, StepOutcome{Name: name, Succeeded: succeeded, Detail: detail})
}

// DeletionRecord tracks teardown results. An item lands in Failed when the
// delete call failed or a post-delete probe still finds the resource.
type DeletionRecord struct {
	Successful []string `json:"successful"`
	Failed     []string `json:"failed"`
}

func (d *DeletionRecord) Success(item string) {
	d.Successful = append(d.Successful, item)
}

func (d *DeletionRecord) Failure(item string) {
	d.Failed = append(d.Failed, item)
}

// Clean reports whether every teardown step succeeded and verified.
func (d *DeletionRecord) Clean() bool {
	return len(d.Failed) == 0
}
