package gcp

import (
	"context"
	"fmt"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
)

// ExecutionStarter starts executions of a deployed Cloud Workflow. It
// is used when the orchestration runs as a managed workflow rather than
// in-process.
type ExecutionStarter struct {
	client   *executions.Client
	parent   string
	workflow string
}

// NewExecutionStarter creates a starter bound to one workflow.
func NewExecutionStarter(ctx context.Context, projectID, location, workflowID string) (*ExecutionStarter, error) {
	if projectID == "" || workflowID == "" {
		return nil, fmt.Errorf("projectID and workflowID must be provided")
	}
	client, err := executions.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
	}
	return &ExecutionStarter{
		client:   client,
		parent:   fmt.Sprintf("projects/%s/locations/%s/workflows/%s", projectID, location, workflowID),
		workflow: workflowID,
	}, nil
}

// StartExecution launches one workflow execution with the given JSON
// argument and returns the execution name.
func (s *ExecutionStarter) StartExecution(ctx context.Context, argument []byte) (string, error) {
	req := &executionspb.CreateExecutionRequest{
		Parent: s.parent,
		Execution: &executionspb.Execution{
			Argument: string(argument),
		},
	}
	exec, err := s.client.CreateExecution(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create workflow execution: %w", err)
	}
	return exec.GetName(), nil
}

// Close releases the underlying client.
func (s *ExecutionStarter) Close() error {
	return s.client.Close()
}
