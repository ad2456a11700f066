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
	uploaderInstance *stages.Uploader
	once             sync.Once
	initErr          error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleUploadResults", handleUploadResults)
}

// main is required by the Go Functions Framework.
func main() {}

func newUploader(ctx context.Context) (*stages.Uploader, error) {
	cfg, err := workflow.LoadConfig()
	if err != nil {
		return nil, err
	}
	store, err := gcp.NewStore(ctx)
	if err != nil {
		return nil, err
	}
	return stages.NewUploader(store, stages.UploaderConfig{
		OutputBucket: cfg.OutputBucket,
		OutputPrefix: cfg.OutputPrefix,
		WorkflowName: cfg.WorkflowName,
	}), nil
}

// handleUploadResults is the HTTP handler for the upload stage.
func handleUploadResults(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		uploaderInstance, initErr = newUploader(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical: uploader initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var req models.StageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	res, err := uploaderInstance.Process(r.Context(), &req)
	if err != nil {
		http.Error(w, "Internal Server Error: processing failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("Failed to write response", "error", err, "jobId", req.JobID)
		http.Error(w, "Internal Server Error: failed to encode response", http.StatusInternalServerError)
	}
}
