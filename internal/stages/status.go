package stages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/a11yflow/pdf-accessibility/internal/gcp"
	"github.com/a11yflow/pdf-accessibility/internal/models"
)

// StatusCheckerConfig names the prefixes inspected for job progress.
type StatusCheckerConfig struct {
	OutputBucket string
	OutputPrefix string
	ReportBucket string
	ErrorPrefix  string
}

// StatusChecker infers a job's progress from the artifacts present
// under the output prefix: an HTML artifact means the conversion
// completed, an error report means it failed, anything else is still
// in progress.
type StatusChecker struct {
	store  gcp.ObjectStore
	config StatusCheckerConfig
}

// NewStatusChecker creates the status checker.
func NewStatusChecker(store gcp.ObjectStore, config StatusCheckerConfig) *StatusChecker {
	return &StatusChecker{store: store, config: config}
}

// Process reports the job's progress.
func (s *StatusChecker) Process(ctx context.Context, req *models.StatusCheckRequest) (*models.StatusCheckResponse, error) {
	logCtx := slog.With("jobId", req.JobID)
	if req.JobID == "" {
		return nil, fmt.Errorf("jobId must be provided")
	}

	jobPrefix := s.config.OutputPrefix + req.JobID + "/"
	resp := &models.StatusCheckResponse{
		JobID:          req.JobID,
		OutputLocation: "gs://" + s.config.OutputBucket + "/" + jobPrefix,
	}

	names, err := s.store.List(ctx, s.config.OutputBucket, jobPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list job output: %w", err)
	}

	var htmlFound bool
	for _, name := range names {
		relative := strings.TrimPrefix(name, jobPrefix)
		resp.FilesFound = append(resp.FilesFound, relative)
		if strings.HasSuffix(relative, ".html") {
			htmlFound = true
		}
	}

	if htmlFound {
		resp.Status = models.JobStatusCompleted
		logCtx.Info("Job completed.", "filesFound", len(resp.FilesFound))
		return resp, nil
	}

	reports, err := s.store.List(ctx, s.config.ReportBucket, s.config.ErrorPrefix+req.JobID+"/")
	if err != nil {
		return nil, fmt.Errorf("failed to list error reports: %w", err)
	}
	if len(reports) > 0 {
		resp.Status = models.JobStatusFailed
		logCtx.Info("Job failed, error report present.")
		return resp, nil
	}

	resp.Status = models.JobStatusInProgress
	logCtx.Info("Job in progress.", "filesFound", len(resp.FilesFound))
	return resp, nil
}
