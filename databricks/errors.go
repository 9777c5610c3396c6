package databricks

import (
	"errors"
	"fmt"
	"strings"
)

// APIError is a classified failure from the Databricks REST API.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("databricks: %s (%s, HTTP %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("databricks: %s (HTTP %d)", e.Message, e.Status)
}

// IsNotFound reports whether err means the requested resource does not exist.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Status == 404 {
		return true
	}
	return strings.Contains(apiErr.Code, "DOES_NOT_EXIST") || strings.Contains(apiErr.Code, "NOT_FOUND")
}

// IsTransient reports whether err is worth retrying: rate limits, server-side
// failures, and transport errors that never produced an API response.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == 429 || apiErr.Status >= 500
	}
	// No classified response means the request died on the wire.
	return true
}

// Exists runs a read probe and collapses its not-found failure into false.
// All "already exists / still exists" decisions go through here; other
// failures are returned for the call site to propagate or collapse.
func Exists(probe func() error) (bool, error) {
	err := probe()
	if err == nil {
		return true, nil
	}
	if IsNotFound(err) {
		return false, nil
	}
	return false, err
}
