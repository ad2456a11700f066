package stages

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/a11yflow/pdf-accessibility/internal/models"
)

// Converter produces the accessible HTML rendition of a downloaded PDF.
// The textual conversion itself is a placeholder: it emits a fixed HTML
// document and stylesheet carrying the job metadata. The contract —
// local source path in, named output files out — is what the rest of
// the pipeline depends on.
type Converter struct{}

// NewConverter creates the convert stage.
func NewConverter() *Converter {
	return &Converter{}
}

// Process writes <base>.html and <base>.css into <workdir>/output and
// returns their relative names with counts. The page count is read via
// pdfcpu when possible; a corrupt cross-reference table falls back to a
// single page with a recorded warning rather than failing the run.
func (c *Converter) Process(ctx context.Context, state *models.JobState) (*models.ConversionResult, error) {
	logCtx := slog.With("jobId", state.JobID, "key", state.Key)

	if state.Download == nil || state.Download.LocalPath == "" {
		return &models.ConversionResult{
			Status: models.ConversionFailed,
			Reason: "no downloaded file available for conversion",
		}, nil
	}
	logCtx.Info("Converting document.", "localPath", state.Download.LocalPath)

	if _, err := os.Stat(state.Download.LocalPath); err != nil {
		return nil, fmt.Errorf("source file missing before conversion: %w", err)
	}

	pageCount, err := api.PageCountFile(state.Download.LocalPath)
	if err != nil {
		logCtx.Warn("Could not determine page count, assuming one page.", "error", err)
		state.AddWarning(fmt.Sprintf("page count unavailable: %v", err))
		pageCount = 1
	}

	outputDir := filepath.Join(state.Download.WorkDir, "output")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	base := artifactBase(state.Key)
	htmlName := base + ".html"
	cssName := base + ".css"

	htmlDoc := renderHTML(&state.Job, state.Download.Size, pageCount, cssName)
	if err := os.WriteFile(filepath.Join(outputDir, htmlName), []byte(htmlDoc), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", htmlName, err)
	}
	if err := os.WriteFile(filepath.Join(outputDir, cssName), []byte(stylesheet), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", cssName, err)
	}

	files := []models.ConvertedFile{
		{Name: htmlName, Category: models.FileHTML, ContentType: "text/html"},
		{Name: cssName, Category: models.FileCSS, ContentType: "text/css"},
	}

	logCtx.Info("Conversion complete.", "outputDir", outputDir, "files", len(files), "pageCount", pageCount)
	return &models.ConversionResult{
		Status:     models.ConversionConverted,
		OutputDir:  outputDir,
		Files:      files,
		HTMLCount:  1,
		CSSCount:   1,
		ImageCount: 0,
		TotalCount: len(files),
		PageCount:  pageCount,
		NextStep:   "upload-results",
	}, nil
}

// artifactBase derives the output artifact base name from the source
// object key: "pdfs/doc.pdf" becomes "doc".
func artifactBase(key string) string {
	base := filepath.Base(key)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
