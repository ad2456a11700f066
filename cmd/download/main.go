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
)

var (
	downloaderInstance *stages.Downloader
	once               sync.Once
	initErr            error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleDownload", handleDownload)
}

// main is required by the Go Functions Framework.
func main() {}

// handleDownload is the HTTP handler for the download stage.
func handleDownload(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		var store *gcp.Store
		store, initErr = gcp.NewStore(context.Background())
		if initErr == nil {
			downloaderInstance = stages.NewDownloader(store)
		}
	})
	if initErr != nil {
		slog.Error("Critical: downloader initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var req models.StageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	res, err := downloaderInstance.Process(r.Context(), &req)
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
