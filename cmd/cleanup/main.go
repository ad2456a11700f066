package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/a11yflow/pdf-accessibility/internal/models"
	"github.com/a11yflow/pdf-accessibility/internal/stages"
)

// Cleanup is stateless and needs no cloud clients.
var cleanerInstance = stages.NewCleaner()

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleCleanup", handleCleanup)
}

// main is required by the Go Functions Framework.
func main() {}

// handleCleanup is the HTTP handler for the cleanup stage.
func handleCleanup(w http.ResponseWriter, r *http.Request) {
	var req models.StageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	res, err := cleanerInstance.Process(r.Context(), &req)
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
