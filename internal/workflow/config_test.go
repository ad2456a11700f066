package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PROJECT_ID", "test-project")
	t.Setenv("OUTPUT_BUCKET", "out-bucket")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "test-project", cfg.ProjectID)
	assert.Equal(t, "out-bucket", cfg.OutputBucket)
	assert.Equal(t, "out-bucket", cfg.ReportBucket, "report bucket defaults to the output bucket")
	assert.Equal(t, "conversions", cfg.CollectionName)
	assert.Equal(t, "pdfs/", cfg.InputPrefix)
	assert.Equal(t, "htmls/", cfg.OutputPrefix)
	assert.Equal(t, "errors/", cfg.ErrorPrefix)
	assert.Equal(t, ".pdf", cfg.InputExtension)
	assert.Equal(t, int64(8), cfg.MinInputSize)
	assert.Equal(t, int64(100<<20), cfg.MaxInputSize)
	assert.Equal(t, 30*time.Minute, cfg.RunTimeout)
	assert.Empty(t, cfg.WorkflowID)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PROJECT_ID", "test-project")
	t.Setenv("OUTPUT_BUCKET", "out-bucket")
	t.Setenv("REPORT_BUCKET", "report-bucket")
	t.Setenv("MAX_INPUT_SIZE", "1048576")
	t.Setenv("RUN_TIMEOUT", "5m")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "report-bucket", cfg.ReportBucket)
	assert.Equal(t, int64(1<<20), cfg.MaxInputSize)
	assert.Equal(t, 5*time.Minute, cfg.RunTimeout)
}

func TestLoadConfigRequiredValues(t *testing.T) {
	t.Setenv("PROJECT_ID", "")
	t.Setenv("OUTPUT_BUCKET", "out-bucket")
	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("PROJECT_ID", "test-project")
	t.Setenv("OUTPUT_BUCKET", "")
	_, err = LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigRejectsMalformedValues(t *testing.T) {
	t.Setenv("PROJECT_ID", "test-project")
	t.Setenv("OUTPUT_BUCKET", "out-bucket")

	t.Setenv("MAX_INPUT_SIZE", "not-a-number")
	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("MAX_INPUT_SIZE", "1024")
	t.Setenv("RUN_TIMEOUT", "eventually")
	_, err = LoadConfig()
	require.Error(t, err)
}
