package stages

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/a11yflow/pdf-accessibility/internal/gcp"
	"github.com/a11yflow/pdf-accessibility/internal/models"
)

// Downloader transfers the source object into a per-job local working
// directory for the convert stage.
type Downloader struct {
	store gcp.ObjectStore
}

// NewDownloader creates the download stage.
func NewDownloader(store gcp.ObjectStore) *Downloader {
	return &Downloader{store: store}
}

// Process streams the source object to <workdir>/source.pdf and
// verifies the transfer. A zero-length transfer is a deliberate FAILED
// outcome; a size mismatch against the validation metadata is advisory
// only, since the object may have been rewritten between stages.
func (d *Downloader) Process(ctx context.Context, state *models.JobState) (*models.DownloadResult, error) {
	logCtx := slog.With("jobId", state.JobID, "bucket", state.Bucket, "key", state.Key)
	logCtx.Info("Downloading source object.")

	workDir, err := os.MkdirTemp("", "pdf-convert-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create working directory: %w", err)
	}

	localPath := filepath.Join(workDir, "source.pdf")
	written, err := d.store.DownloadToFile(ctx, state.Bucket, state.Key, localPath)
	if err != nil {
		// The working directory is abandoned here; cleanup is not
		// reachable on this path, so remove it eagerly.
		_ = os.RemoveAll(workDir)
		return nil, fmt.Errorf("failed to download source object: %w", err)
	}

	if written == 0 {
		_ = os.RemoveAll(workDir)
		logCtx.Error("Downloaded file is empty.")
		return &models.DownloadResult{
			Status: models.DownloadFailed,
			Reason: "downloaded file is empty",
		}, nil
	}

	if state.Validation != nil && state.Validation.Size > 0 && written != state.Validation.Size {
		logCtx.Warn("Downloaded size differs from validation metadata.",
			"downloaded", written, "expected", state.Validation.Size)
		state.AddWarning(fmt.Sprintf("downloaded %d bytes, validation reported %d", written, state.Validation.Size))
	}

	logCtx.Info("Download complete.", "localPath", localPath, "size", written)
	return &models.DownloadResult{
		Status:    models.DownloadDownloaded,
		LocalPath: localPath,
		WorkDir:   workDir,
		Size:      written,
		NextStep:  "convert",
	}, nil
}
