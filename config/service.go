package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Service holds the deployment-level settings that don't belong in the
// environment: queue naming, listen address, template location.
type Service struct {
	TaskQueue            string `yaml:"task_queue"`
	ListenAddr           string `yaml:"listen_addr"`
	TemplateRoot         string `yaml:"template_root"`
	JobRunTimeoutMinutes int    `yaml:"job_run_timeout_minutes"`
	WorkspaceFolder      string `yaml:"workspace_folder"`
}

// LoadService reads the service YAML file; a missing file yields defaults.
func LoadService(path string) (*Service, error) {
	svc := &Service{
		TaskQueue:            "skyflow-provisioner",
		ListenAddr:           ":8080",
		TemplateRoot:         "templates",
		JobRunTimeoutMinutes: 15,
		WorkspaceFolder:      "/Shared",
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return svc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read service config: %w", err)
	}
	if err := yaml.Unmarshal(data, svc); err != nil {
		return nil, fmt.Errorf("parse service config: %w", err)
	}
	return svc, nil
}

// JobRunTimeout is the wall-clock bound for one tokenization run.
func (s *Service) JobRunTimeout() time.Duration {
	return time.Duration(s.JobRunTimeoutMinutes) * time.Minute
}
