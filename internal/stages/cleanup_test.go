package stages

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a11yflow/pdf-accessibility/internal/models"
)

func TestCleanerRemovesWorkingDirectory(t *testing.T) {
	workDir, err := os.MkdirTemp("", "cleanup-test-*")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(workDir, "source.pdf"), fakePDF(64), 0o644))

	state := testState("in-bucket", "pdfs/report.pdf")
	state.Download = &models.DownloadResult{WorkDir: workDir}

	result, err := NewCleaner().Process(context.Background(), state)
	require.NoError(t, err)

	assert.Equal(t, models.CleanupCompleted, result.Status)
	assert.Equal(t, workDir, result.RemovedPath)
	_, statErr := os.Stat(workDir)
	assert.True(t, os.IsNotExist(statErr), "working directory should be gone")
}

func TestCleanerCompletesWithoutWorkingDirectory(t *testing.T) {
	result, err := NewCleaner().Process(context.Background(), testState("in-bucket", "pdfs/report.pdf"))
	require.NoError(t, err)
	assert.Equal(t, models.CleanupCompleted, result.Status)
}

func TestCleanerIsIdempotent(t *testing.T) {
	// Removing an already-absent directory is a clean COMPLETED, so a
	// retried invocation cannot degrade the run.
	state := testState("in-bucket", "pdfs/report.pdf")
	state.Download = &models.DownloadResult{WorkDir: filepath.Join(t.TempDir(), "already-gone")}

	result, err := NewCleaner().Process(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, models.CleanupCompleted, result.Status)
	assert.Empty(t, state.Warnings)
}
