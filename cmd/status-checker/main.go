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
	checkerInstance *stages.StatusChecker
	once            sync.Once
	initErr         error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleCheckStatus", handleCheckStatus)
}

// main is required by the Go Functions Framework.
func main() {}

func newStatusChecker(ctx context.Context) (*stages.StatusChecker, error) {
	cfg, err := workflow.LoadConfig()
	if err != nil {
		return nil, err
	}
	store, err := gcp.NewStore(ctx)
	if err != nil {
		return nil, err
	}
	return stages.NewStatusChecker(store, stages.StatusCheckerConfig{
		OutputBucket: cfg.OutputBucket,
		OutputPrefix: cfg.OutputPrefix,
		ReportBucket: cfg.ReportBucket,
		ErrorPrefix:  cfg.ErrorPrefix,
	}), nil
}

// handleCheckStatus is the HTTP handler for job status queries.
func handleCheckStatus(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		checkerInstance, initErr = newStatusChecker(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical: status checker initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var req models.StatusCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	res, err := checkerInstance.Process(r.Context(), &req)
	if err != nil {
		http.Error(w, "Internal Server Error: status check failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("Failed to write response", "error", err, "jobId", req.JobID)
		http.Error(w, "Internal Server Error: failed to encode response", http.StatusInternalServerError)
	}
}
