// Package stages implements the workflow stage functions. Each stage
// consumes the accumulated job state and produces its own result with a
// declared status; the orchestrator evaluates the status to pick the
// next transition. Side effects are confined to object-storage reads
// and writes and a per-job local working directory.
package stages

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/a11yflow/pdf-accessibility/internal/gcp"
	"github.com/a11yflow/pdf-accessibility/internal/models"
)

// pdfSignature is the magic number every PDF starts with.
var pdfSignature = []byte("%PDF")

// DefaultMaxInputSize caps accepted input documents at 100 MiB.
const DefaultMaxInputSize = 100 << 20

// ValidatorConfig holds the validate stage's tunables.
type ValidatorConfig struct {
	MaxInputSize int64
}

// Validator confirms that the source object is a usable PDF before any
// work is spent on it. All checks must pass for a VALID outcome; the
// first failed check yields INVALID with a human-readable reason.
type Validator struct {
	store  gcp.ObjectStore
	config ValidatorConfig
}

// NewValidator creates the validate stage.
func NewValidator(store gcp.ObjectStore, config ValidatorConfig) *Validator {
	if config.MaxInputSize <= 0 {
		config.MaxInputSize = DefaultMaxInputSize
	}
	return &Validator{store: store, config: config}
}

// Process runs the validation checks against the source object.
// A missing or malformed object is a business outcome (INVALID), not an
// error; only storage infrastructure failures surface as errors.
func (v *Validator) Process(ctx context.Context, state *models.JobState) (*models.ValidationResult, error) {
	logCtx := slog.With("jobId", state.JobID, "bucket", state.Bucket, "key", state.Key)
	logCtx.Info("Validating input object.")

	info, err := v.store.Attrs(ctx, state.Bucket, state.Key)
	if err != nil {
		if errors.Is(err, gcp.ErrObjectNotFound) {
			return invalid(fmt.Sprintf("object %s does not exist", state.InputLocation())), nil
		}
		return nil, fmt.Errorf("failed to stat input object: %w", err)
	}

	if reason := checkName(state.Key); reason != "" {
		logCtx.Info("Input rejected.", "reason", reason)
		return invalid(reason), nil
	}
	if reason := checkSize(info.Size, v.config.MaxInputSize); reason != "" {
		logCtx.Info("Input rejected.", "reason", reason)
		return invalid(reason), nil
	}

	header, err := v.store.ReadRange(ctx, state.Bucket, state.Key, 0, int64(len(pdfSignature)))
	if err != nil {
		return nil, fmt.Errorf("failed to read file header: %w", err)
	}
	if reason := checkSignature(header); reason != "" {
		logCtx.Info("Input rejected.", "reason", reason)
		return invalid(reason), nil
	}

	// The declared content type is advisory: a wrong value is worth a
	// warning but the binary signature is authoritative.
	if info.ContentType != "" && info.ContentType != "application/pdf" {
		logCtx.Warn("Declared content type is not application/pdf.", "contentType", info.ContentType)
	}

	logCtx.Info("Input validated.", "size", info.Size, "contentType", info.ContentType)
	return &models.ValidationResult{
		Status:      models.ValidationValid,
		Size:        info.Size,
		ContentType: info.ContentType,
		NextStep:    "download",
	}, nil
}

func invalid(reason string) *models.ValidationResult {
	return &models.ValidationResult{
		Status: models.ValidationInvalid,
		Reason: reason,
	}
}

// checkName verifies the object key carries a .pdf extension.
func checkName(key string) string {
	if !strings.HasSuffix(strings.ToLower(key), ".pdf") {
		return fmt.Sprintf("object %s does not have a .pdf extension", key)
	}
	return ""
}

// checkSize rejects empty objects and objects over the configured cap.
func checkSize(size, maxSize int64) string {
	if size == 0 {
		return "object is empty"
	}
	if size > maxSize {
		return fmt.Sprintf("object size %d exceeds the maximum of %d bytes", size, maxSize)
	}
	return ""
}

// checkSignature verifies the first bytes are the literal %PDF marker.
func checkSignature(header []byte) string {
	if !bytes.HasPrefix(header, pdfSignature) {
		return "file does not begin with the %PDF signature"
	}
	return ""
}
