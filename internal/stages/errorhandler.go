package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/a11yflow/pdf-accessibility/internal/gcp"
	"github.com/a11yflow/pdf-accessibility/internal/models"
)

// ErrorHandlerConfig holds the error handler's report destination.
type ErrorHandlerConfig struct {
	ReportBucket string
	ErrorPrefix  string // e.g. "errors/"
}

// ErrorHandler turns whatever partial job state exists plus a caught
// failure into a persisted diagnostic report. It must never itself
// fail: every internal error is swallowed after logging so the
// orchestrator's terminal transition stays reachable.
type ErrorHandler struct {
	store  gcp.ObjectStore
	config ErrorHandlerConfig
	now    func() time.Time
}

// NewErrorHandler creates the error-handling stage.
func NewErrorHandler(store gcp.ObjectStore, config ErrorHandlerConfig) *ErrorHandler {
	return &ErrorHandler{store: store, config: config, now: time.Now}
}

// nestedError is the shape a failed stage invocation may serialize its
// error as. The handler prefers these fields over the raw cause string.
type nestedError struct {
	ErrorType    string `json:"errorType"`
	ErrorMessage string `json:"errorMessage"`
}

// Process builds and persists the error report. Persistence is
// best-effort; the report is always returned so the run record can
// carry the diagnostics even when the object store is down.
func (h *ErrorHandler) Process(ctx context.Context, state *models.JobState) (report *models.ErrorReport) {
	logCtx := slog.With("jobId", state.JobID)

	defer func() {
		if r := recover(); r != nil {
			logCtx.Error("Error handler panicked, emitting fallback report.", "panic", r)
			report = h.fallbackReport(state)
		}
	}()

	report = h.buildReport(state)
	logCtx.Error("Workflow failed.", "errorType", report.ErrorType, "errorMessage", report.ErrorMessage)

	key := fmt.Sprintf("%s%s/%s.json", h.config.ErrorPrefix, report.JobID, h.now().UTC().Format("20060102-150405"))
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logCtx.Error("Failed to marshal error report.", "error", err)
		return report
	}
	if err := h.store.Write(ctx, h.config.ReportBucket, key, data, "application/json", map[string]string{
		"job-id":     report.JobID,
		"request-id": report.RequestID,
	}); err != nil {
		logCtx.Error("Failed to persist error report.", "error", err, "key", key)
		return report
	}
	logCtx.Info("Error report persisted.", "key", key)

	// Human-readable rendering is strictly best-effort.
	textKey := fmt.Sprintf("%s%s/report.txt", h.config.ErrorPrefix, report.JobID)
	if err := h.store.Write(ctx, h.config.ReportBucket, textKey, []byte(renderReport(report)), "text/plain", nil); err != nil {
		logCtx.Warn("Failed to persist readable report rendering.", "error", err, "key", textKey)
	}

	return report
}

// buildReport assembles the report from the available state. A cause
// string that parses as JSON with nested errorMessage/errorType wins
// over the raw string.
func (h *ErrorHandler) buildReport(state *models.JobState) *models.ErrorReport {
	report := &models.ErrorReport{
		Timestamp: h.now().UTC().Format(time.RFC3339),
		JobID:     state.JobID,
		RequestID: state.RequestID,
		ErrorType: "WorkflowError",
	}
	if loc := state.InputLocation(); loc != "" {
		report.InputLocation = loc
	}

	if state.Failure == nil {
		report.ErrorMessage = "workflow failed without a recorded cause"
		return report
	}

	if state.Failure.ErrorType != "" {
		report.ErrorType = state.Failure.ErrorType
	}
	report.ErrorMessage = state.Failure.Cause
	report.ErrorDetails = state.Failure.Cause
	if state.Failure.State != "" {
		report.ErrorDetails = fmt.Sprintf("state %s: %s", state.Failure.State, state.Failure.Cause)
	}

	var nested nestedError
	if err := json.Unmarshal([]byte(state.Failure.Cause), &nested); err == nil {
		if nested.ErrorMessage != "" {
			report.ErrorMessage = nested.ErrorMessage
		}
		if nested.ErrorType != "" {
			report.ErrorType = nested.ErrorType
		}
	}
	return report
}

// fallbackReport is the minimal report emitted when report assembly
// itself blows up.
func (h *ErrorHandler) fallbackReport(state *models.JobState) *models.ErrorReport {
	return &models.ErrorReport{
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		JobID:        state.JobID,
		RequestID:    state.RequestID,
		ErrorType:    "ErrorHandlerFailure",
		ErrorMessage: "error handler failed while building the report",
	}
}

// renderReport formats the report for human readers.
func renderReport(r *models.ErrorReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "PDF conversion failed\n")
	fmt.Fprintf(&b, "=====================\n\n")
	fmt.Fprintf(&b, "Job ID:        %s\n", r.JobID)
	fmt.Fprintf(&b, "Timestamp:     %s\n", r.Timestamp)
	if r.InputLocation != "" {
		fmt.Fprintf(&b, "Input:         %s\n", r.InputLocation)
	}
	if r.RequestID != "" {
		fmt.Fprintf(&b, "Request ID:    %s\n", r.RequestID)
	}
	fmt.Fprintf(&b, "Error type:    %s\n", r.ErrorType)
	fmt.Fprintf(&b, "Error message: %s\n", r.ErrorMessage)
	if r.ErrorDetails != "" && r.ErrorDetails != r.ErrorMessage {
		fmt.Fprintf(&b, "Details:       %s\n", r.ErrorDetails)
	}
	return b.String()
}
