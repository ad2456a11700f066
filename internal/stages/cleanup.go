package stages

import (
	"context"
	"log/slog"
	"os"

	"github.com/a11yflow/pdf-accessibility/internal/models"
)

// Cleaner removes the per-job working directory. Cleanup is not on the
// critical path: a failed removal degrades the run to
// COMPLETED_WITH_WARNINGS, never to a failure, and removing an
// already-absent directory is a clean COMPLETED.
type Cleaner struct{}

// NewCleaner creates the cleanup stage.
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// Process removes the working directory recorded by the download stage.
func (c *Cleaner) Process(ctx context.Context, state *models.JobState) (*models.CleanupResult, error) {
	logCtx := slog.With("jobId", state.JobID)

	if state.Download == nil || state.Download.WorkDir == "" {
		logCtx.Info("No working directory to clean up.")
		return &models.CleanupResult{Status: models.CleanupCompleted}, nil
	}

	workDir := state.Download.WorkDir
	if err := os.RemoveAll(workDir); err != nil {
		warning := "failed to remove working directory " + workDir + ": " + err.Error()
		logCtx.Warn("Cleanup failed, continuing with warning.", "workDir", workDir, "error", err)
		state.AddWarning(warning)
		return &models.CleanupResult{
			Status:  models.CleanupWithWarnings,
			Warning: warning,
		}, nil
	}

	logCtx.Info("Working directory removed.", "workDir", workDir)
	return &models.CleanupResult{
		Status:      models.CleanupCompleted,
		RemovedPath: workDir,
	}, nil
}
