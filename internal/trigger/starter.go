package trigger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/a11yflow/pdf-accessibility/internal/gcp"
	"github.com/a11yflow/pdf-accessibility/internal/models"
	"github.com/a11yflow/pdf-accessibility/internal/workflow"
)

// InProcessStarter runs the orchestrator inside the trigger's own
// invocation. The run reaching a failure terminal is not a start
// failure: the error handler has already produced the report.
type InProcessStarter struct {
	pipeline *workflow.Pipeline
}

// NewInProcessStarter wraps a pipeline as a Starter.
func NewInProcessStarter(pipeline *workflow.Pipeline) *InProcessStarter {
	return &InProcessStarter{pipeline: pipeline}
}

func (s *InProcessStarter) Start(ctx context.Context, job models.Job) error {
	result, _, err := s.pipeline.Run(ctx, job)
	if err != nil {
		return err
	}
	slog.Info("In-process run finished.", "jobId", job.JobID, "terminal", result.Terminal, "runStatus", result.RunStatus)
	return nil
}

// RemoteStarter hands the job off to a deployed Cloud Workflow, which
// invokes the stage functions over HTTP.
type RemoteStarter struct {
	executions *gcp.ExecutionStarter
}

// NewRemoteStarter wraps an execution client as a Starter.
func NewRemoteStarter(executions *gcp.ExecutionStarter) *RemoteStarter {
	return &RemoteStarter{executions: executions}
}

func (s *RemoteStarter) Start(ctx context.Context, job models.Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow argument: %w", err)
	}
	name, err := s.executions.StartExecution(ctx, payload)
	if err != nil {
		return err
	}
	slog.Info("Workflow execution started.", "jobId", job.JobID, "execution", name)
	return nil
}
