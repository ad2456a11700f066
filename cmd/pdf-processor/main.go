package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/a11yflow/pdf-accessibility/internal/models"
	"github.com/a11yflow/pdf-accessibility/internal/workflow"
)

var (
	pipelineInstance *workflow.Pipeline
	once             sync.Once
	initErr          error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleProcessDocument", handleProcessDocument)
}

// main is required by the Go Functions Framework.
func main() {}

// handleProcessDocument runs the whole conversion workflow for one job
// in a single invocation. It is the combined-processor alternative to
// the individually deployed stage functions.
func handleProcessDocument(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		pipelineInstance, initErr = workflow.NewPipeline(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical: pipeline initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var job models.Job
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		slog.Warn("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}
	if job.JobID == "" || job.Bucket == "" || job.Key == "" {
		http.Error(w, "Bad Request: jobId, bucket and key are required", http.StatusBadRequest)
		return
	}

	result, state, err := pipelineInstance.Run(r.Context(), job)
	if err != nil {
		slog.Error("Run failed before reaching a terminal state", "jobId", job.JobID, "error", err)
		http.Error(w, "Internal Server Error: processing failed", http.StatusInternalServerError)
		return
	}

	resp := models.ProcessorResponse{
		JobID:         job.JobID,
		Status:        result.RunStatus,
		Terminal:      string(result.Terminal),
		InputLocation: job.InputLocation(),
		Warnings:      state.Warnings,
	}
	if state.Upload != nil {
		resp.OutputLocation = state.Upload.OutputLocation
	}
	if result.Report != nil {
		resp.Error = result.Report.ErrorMessage
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to write response", "error", err, "jobId", job.JobID)
		http.Error(w, "Internal Server Error: failed to encode response", http.StatusInternalServerError)
	}
}
