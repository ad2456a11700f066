package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/a11yflow/pdf-accessibility/internal/gcp"
	"github.com/a11yflow/pdf-accessibility/internal/models"
	"github.com/a11yflow/pdf-accessibility/internal/stages"
	"github.com/a11yflow/pdf-accessibility/internal/workflow"
)

var (
	handlerInstance *stages.ErrorHandler
	once            sync.Once
	initErr         error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleWorkflowError", handleWorkflowError)
}

// main is required by the Go Functions Framework.
func main() {}

func newErrorHandler(ctx context.Context) (*stages.ErrorHandler, error) {
	cfg, err := workflow.LoadConfig()
	if err != nil {
		return nil, err
	}
	store, err := gcp.NewStore(ctx)
	if err != nil {
		return nil, err
	}
	return stages.NewErrorHandler(store, stages.ErrorHandlerConfig{
		ReportBucket: cfg.ReportBucket,
		ErrorPrefix:  cfg.ErrorPrefix,
	}), nil
}

// handleWorkflowError is the HTTP handler for the error-handling
// stage. It always responds with a report, even when persistence
// fails, so the workflow's terminal transition stays reachable.
func handleWorkflowError(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		handlerInstance, initErr = newErrorHandler(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical: error handler initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var req models.StageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	report := handlerInstance.Process(r.Context(), &req)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		slog.Error("Failed to write response", "error", err, "jobId", req.JobID)
		http.Error(w, "Internal Server Error: failed to encode response", http.StatusInternalServerError)
	}
}
