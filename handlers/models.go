package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/labstack/echo/v4"
	"gopkg.in/yaml.v2"
)

// Pipeline modes accepted on the submit endpoints.
const (
	ModeCreate   = "create"
	ModeDestroy  = "destroy"
	ModeRecreate = "recreate"
)

// PipelineRequest is the optional submit body. The prefix comes from the
// URL; the body only carries metadata about the submission.
type PipelineRequest struct {
	Submitter string `json:"submitter" yaml:"submitter"`
}

// bindRequest decodes an optional JSON or YAML body. An empty body is valid:
// every pipeline parameter has a default.
func bindRequest(c echo.Context) (PipelineRequest, error) {
	var req PipelineRequest
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return req, fmt.Errorf("cannot read body: %w", err)
	}
	if len(body) == 0 {
		return req, nil
	}

	contentType := c.Request().Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "application/json"), contentType == "":
		err = json.Unmarshal(body, &req)
	case strings.Contains(contentType, "yaml"):
		err = yaml.Unmarshal(body, &req)
	default:
		return req, fmt.Errorf("unsupported content type %q", contentType)
	}
	if err != nil {
		return req, fmt.Errorf("invalid body: %w", err)
	}
	return req, nil
}
