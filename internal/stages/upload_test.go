package stages

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a11yflow/pdf-accessibility/internal/models"
)

// convertedState lays out converted artifacts on disk and records them
// on the state.
func convertedState(t *testing.T, key string) *models.JobState {
	t.Helper()
	outputDir := t.TempDir()
	base := artifactBase(key)
	require.NoError(t, os.WriteFile(filepath.Join(outputDir, base+".html"), []byte("<html></html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(outputDir, base+".css"), []byte("body {}"), 0o644))

	state := testState("in-bucket", key)
	state.Conversion = &models.ConversionResult{
		Status:    models.ConversionConverted,
		OutputDir: outputDir,
		Files: []models.ConvertedFile{
			{Name: base + ".html", Category: models.FileHTML, ContentType: "text/html"},
			{Name: base + ".css", Category: models.FileCSS, ContentType: "text/css"},
		},
		HTMLCount:  1,
		CSSCount:   1,
		TotalCount: 2,
		PageCount:  3,
	}
	return state
}

func TestUploaderPushesArtifactsAndManifest(t *testing.T) {
	store := newFakeStore()
	state := convertedState(t, "pdfs/report.pdf")

	u := NewUploader(store, UploaderConfig{
		OutputBucket: "out-bucket",
		OutputPrefix: "htmls/",
		WorkflowName: "pdf-accessibility-workflow",
	})
	result, err := u.Process(context.Background(), state)
	require.NoError(t, err)

	assert.Equal(t, models.UploadUploaded, result.Status)
	jobPrefix := "htmls/" + state.JobID + "/"
	assert.Equal(t, "gs://out-bucket/"+jobPrefix, result.OutputLocation)
	assert.Equal(t, 3, result.TotalUploaded)
	assert.Equal(t, []string{"report.html"}, result.HTMLFiles)
	assert.Equal(t, []string{"report.css"}, result.CSSFiles)
	assert.Empty(t, result.ImageFiles)

	htmlObj, ok := store.get("out-bucket", jobPrefix+"report.html")
	require.True(t, ok, "html artifact not uploaded")
	assert.Equal(t, "text/html", htmlObj.contentType)
	assert.Equal(t, state.JobID, htmlObj.metadata["job-id"])
	assert.Equal(t, "pdfs/report.pdf", htmlObj.metadata["source-key"])
	assert.Equal(t, "upload-results", htmlObj.metadata["processing-stage"])
	assert.Equal(t, "pdf-accessibility-workflow", htmlObj.metadata["workflow-name"])

	manifestObj, ok := store.get("out-bucket", result.ManifestKey)
	require.True(t, ok, "manifest not uploaded")
	assert.Equal(t, "application/json", manifestObj.contentType)

	var manifest models.Manifest
	require.NoError(t, json.Unmarshal(manifestObj.data, &manifest))
	assert.Equal(t, state.JobID, manifest.JobID)
	assert.Equal(t, "pdfs/report.pdf", manifest.SourceFile)
	assert.Equal(t, 2, manifest.ConversionResults.TotalFiles)
	assert.Equal(t, 1, manifest.ConversionResults.HTMLFiles)
	assert.Equal(t, "gs://in-bucket/pdfs/report.pdf", manifest.GCSLocations.Input)
	assert.Equal(t, "gs://out-bucket/"+jobPrefix, manifest.GCSLocations.Output)
}

func TestUploaderFailsWithoutArtifacts(t *testing.T) {
	u := NewUploader(newFakeStore(), UploaderConfig{OutputBucket: "out-bucket", OutputPrefix: "htmls/"})
	result, err := u.Process(context.Background(), testState("in-bucket", "pdfs/report.pdf"))
	require.NoError(t, err)

	assert.Equal(t, models.UploadFailed, result.Status)
	assert.Contains(t, result.Reason, "no converted artifacts")
}

func TestUploaderSurfacesWriteErrors(t *testing.T) {
	store := newFakeStore()
	store.writeErr = func(bucket, name string) error {
		return errors.New("quota exceeded")
	}
	state := convertedState(t, "pdfs/report.pdf")

	u := NewUploader(store, UploaderConfig{OutputBucket: "out-bucket", OutputPrefix: "htmls/"})
	result, err := u.Process(context.Background(), state)
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestUploaderSurfacesMissingArtifact(t *testing.T) {
	state := convertedState(t, "pdfs/report.pdf")
	require.NoError(t, os.Remove(filepath.Join(state.Conversion.OutputDir, "report.css")))

	u := NewUploader(newFakeStore(), UploaderConfig{OutputBucket: "out-bucket", OutputPrefix: "htmls/"})
	_, err := u.Process(context.Background(), state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report.css")
}
