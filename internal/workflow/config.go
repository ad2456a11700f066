package workflow

import (
	"fmt"
	"strconv"
	"time"

	"github.com/a11yflow/pdf-accessibility/internal/gcp"
)

// Config holds all environment-driven settings for the pipeline.
type Config struct {
	ProjectID      string
	OutputBucket   string
	ReportBucket   string
	CollectionName string

	InputPrefix    string
	OutputPrefix   string
	ErrorPrefix    string
	InputExtension string

	MinInputSize int64
	MaxInputSize int64

	RunTimeout   time.Duration
	WorkflowName string

	// When WorkflowID is set the trigger starts a deployed Cloud
	// Workflow execution instead of running the machine in-process.
	WorkflowID       string
	WorkflowLocation string
}

// LoadConfig reads the pipeline configuration from the environment,
// applying defaults and failing fast on missing required values.
func LoadConfig() (*Config, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	outputBucket := gcp.GetEnv("OUTPUT_BUCKET", "")
	if outputBucket == "" {
		return nil, fmt.Errorf("OUTPUT_BUCKET environment variable must be set")
	}

	cfg := &Config{
		ProjectID:        projectID,
		OutputBucket:     outputBucket,
		ReportBucket:     gcp.GetEnv("REPORT_BUCKET", outputBucket),
		CollectionName:   gcp.GetEnv("FIRESTORE_COLLECTION", "conversions"),
		InputPrefix:      gcp.GetEnv("INPUT_PREFIX", "pdfs/"),
		OutputPrefix:     gcp.GetEnv("OUTPUT_PREFIX", "htmls/"),
		ErrorPrefix:      gcp.GetEnv("ERROR_PREFIX", "errors/"),
		InputExtension:   gcp.GetEnv("INPUT_EXTENSION", ".pdf"),
		WorkflowName:     gcp.GetEnv("WORKFLOW_NAME", "pdf-accessibility-workflow"),
		WorkflowID:       gcp.GetEnv("WORKFLOW_ID", ""),
		WorkflowLocation: gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
	}

	var err error
	if cfg.MinInputSize, err = parseSize("MIN_INPUT_SIZE", 8); err != nil {
		return nil, err
	}
	if cfg.MaxInputSize, err = parseSize("MAX_INPUT_SIZE", 100<<20); err != nil {
		return nil, err
	}

	timeout := gcp.GetEnv("RUN_TIMEOUT", "30m")
	cfg.RunTimeout, err = time.ParseDuration(timeout)
	if err != nil {
		return nil, fmt.Errorf("RUN_TIMEOUT %q is not a valid duration: %w", timeout, err)
	}

	return cfg, nil
}

func parseSize(key string, fallback int64) (int64, error) {
	raw := gcp.GetEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	size, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || size < 0 {
		return 0, fmt.Errorf("%s %q is not a valid byte count", key, raw)
	}
	return size, nil
}
