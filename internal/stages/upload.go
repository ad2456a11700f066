package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/a11yflow/pdf-accessibility/internal/gcp"
	"github.com/a11yflow/pdf-accessibility/internal/models"
)

// UploaderConfig holds the upload stage's destination settings.
type UploaderConfig struct {
	OutputBucket string
	OutputPrefix string // e.g. "htmls/"
	WorkflowName string
	Concurrency  int
}

// Uploader pushes every produced artifact plus a generated manifest to
// the output prefix, tagging each object with the job's provenance.
type Uploader struct {
	store  gcp.ObjectStore
	config UploaderConfig
}

// NewUploader creates the upload stage.
func NewUploader(store gcp.ObjectStore, config UploaderConfig) *Uploader {
	if config.Concurrency <= 0 {
		config.Concurrency = 8
	}
	return &Uploader{store: store, config: config}
}

// Process uploads the convert stage's artifacts concurrently, then the
// manifest. Destination keys are namespaced by jobId, so concurrent
// runs never collide.
func (u *Uploader) Process(ctx context.Context, state *models.JobState) (*models.UploadResult, error) {
	logCtx := slog.With("jobId", state.JobID, "bucket", u.config.OutputBucket)

	if state.Conversion == nil || len(state.Conversion.Files) == 0 {
		return &models.UploadResult{
			Status: models.UploadFailed,
			Reason: "no converted artifacts available for upload",
		}, nil
	}

	jobPrefix := u.config.OutputPrefix + state.JobID + "/"
	metadata := u.objectMetadata(state)
	logCtx.Info("Uploading artifacts.", "count", len(state.Conversion.Files), "prefix", jobPrefix)

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(u.config.Concurrency)
	for _, file := range state.Conversion.Files {
		eg.Go(func() error {
			data, err := os.ReadFile(filepath.Join(state.Conversion.OutputDir, file.Name))
			if err != nil {
				return fmt.Errorf("failed to read artifact %s: %w", file.Name, err)
			}
			if err := u.store.Write(gctx, u.config.OutputBucket, jobPrefix+file.Name, data, file.ContentType, metadata); err != nil {
				return fmt.Errorf("failed to upload %s: %w", file.Name, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		logCtx.Error("Artifact upload failed.", "error", err)
		return nil, err
	}

	manifestKey := jobPrefix + artifactBase(state.Key) + "_manifest.json"
	manifest := buildManifest(state, "gs://"+u.config.OutputBucket+"/"+jobPrefix, "gs://"+u.config.OutputBucket+"/"+manifestKey)
	manifestBytes, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := u.store.Write(ctx, u.config.OutputBucket, manifestKey, manifestBytes, "application/json", metadata); err != nil {
		logCtx.Error("Manifest upload failed.", "error", err)
		return nil, fmt.Errorf("failed to upload manifest: %w", err)
	}

	result := &models.UploadResult{
		Status:         models.UploadUploaded,
		OutputLocation: "gs://" + u.config.OutputBucket + "/" + jobPrefix,
		ManifestKey:    manifestKey,
		TotalUploaded:  len(state.Conversion.Files) + 1,
		NextStep:       "cleanup",
	}
	for _, file := range state.Conversion.Files {
		switch file.Category {
		case models.FileHTML:
			result.HTMLFiles = append(result.HTMLFiles, file.Name)
		case models.FileCSS:
			result.CSSFiles = append(result.CSSFiles, file.Name)
		case models.FileImage:
			result.ImageFiles = append(result.ImageFiles, file.Name)
		}
	}
	sort.Strings(result.HTMLFiles)
	sort.Strings(result.CSSFiles)
	sort.Strings(result.ImageFiles)

	logCtx.Info("Upload complete.", "outputLocation", result.OutputLocation, "uploaded", result.TotalUploaded)
	return result, nil
}

// objectMetadata builds the provenance tags applied to every written
// object.
func (u *Uploader) objectMetadata(state *models.JobState) map[string]string {
	return map[string]string{
		"job-id":               state.JobID,
		"source-key":           state.Key,
		"conversion-timestamp": state.Timestamp,
		"request-id":           state.RequestID,
		"processing-stage":     "upload-results",
		"workflow-name":        u.config.WorkflowName,
	}
}

// buildManifest summarizes the run's artifacts for downstream readers.
func buildManifest(state *models.JobState, outputLocation, manifestLocation string) *models.Manifest {
	return &models.Manifest{
		JobID:               state.JobID,
		SourceFile:          state.Key,
		ConversionTimestamp: state.Timestamp,
		ConversionResults: models.ManifestCounts{
			TotalFiles: state.Conversion.TotalCount,
			HTMLFiles:  state.Conversion.HTMLCount,
			CSSFiles:   state.Conversion.CSSCount,
			ImageFiles: state.Conversion.ImageCount,
		},
		GCSLocations: models.GCSLocations{
			Input:    state.InputLocation(),
			Output:   outputLocation,
			Manifest: manifestLocation,
		},
	}
}
