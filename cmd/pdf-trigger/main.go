package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/a11yflow/pdf-accessibility/internal/gcp"
	"github.com/a11yflow/pdf-accessibility/internal/trigger"
	"github.com/a11yflow/pdf-accessibility/internal/workflow"
)

var (
	triggerInstance *trigger.Trigger
	once            sync.Once
	initErr         error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Register the CloudEvent function. The framework routes GCS
	// object-finalized events here.
	functions.CloudEvent("OnDocumentUploaded", onDocumentUploaded)
}

// main is required by the Go Functions Framework.
func main() {}

// newTrigger builds the trigger with its starter: a deployed Cloud
// Workflow when WORKFLOW_ID is configured, the in-process pipeline
// otherwise.
func newTrigger(ctx context.Context) (*trigger.Trigger, error) {
	cfg, err := workflow.LoadConfig()
	if err != nil {
		return nil, err
	}

	var starter trigger.Starter
	if cfg.WorkflowID != "" {
		executions, err := gcp.NewExecutionStarter(ctx, cfg.ProjectID, cfg.WorkflowLocation, cfg.WorkflowID)
		if err != nil {
			return nil, err
		}
		starter = trigger.NewRemoteStarter(executions)
		slog.Info("Trigger initialized with remote workflow starter.", "workflowId", cfg.WorkflowID)
	} else {
		pipeline, err := workflow.NewPipeline(ctx)
		if err != nil {
			return nil, err
		}
		starter = trigger.NewInProcessStarter(pipeline)
		slog.Info("Trigger initialized with in-process pipeline.")
	}

	return trigger.New(starter, trigger.Config{
		InputPrefix:    cfg.InputPrefix,
		InputExtension: cfg.InputExtension,
		MinSizeBytes:   cfg.MinInputSize,
	}), nil
}

// onDocumentUploaded is the Cloud Function entry point.
func onDocumentUploaded(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		triggerInstance, initErr = newTrigger(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during trigger initialization", "error", initErr)
		return initErr
	}

	var gcsEvent trigger.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	// The CloudEvent ID doubles as the correlation id for the run.
	return triggerInstance.HandleEvent(ctx, gcsEvent, e.ID())
}
