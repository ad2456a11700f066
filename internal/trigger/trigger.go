// Package trigger reacts to storage creation events: it filters for
// acceptable inputs, derives a job identifier and starts exactly one
// orchestrator run per qualifying object.
package trigger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/a11yflow/pdf-accessibility/internal/models"
)

// GCSEvent is the payload of a storage object-finalized notification.
// GCS serializes the object size as a string.
type GCSEvent struct {
	Bucket      string    `json:"bucket"`
	Name        string    `json:"name"`
	Size        string    `json:"size"`
	ContentType string    `json:"contentType,omitempty"`
	ETag        string    `json:"etag,omitempty"`
	TimeCreated time.Time `json:"timeCreated,omitempty"`
}

// Starter launches one orchestrator run for a job, either in-process
// or as a deployed workflow execution.
type Starter interface {
	Start(ctx context.Context, job models.Job) error
}

// Config holds the trigger's filtering rules.
type Config struct {
	InputPrefix    string // e.g. "pdfs/"
	InputExtension string // e.g. ".pdf"
	MinSizeBytes   int64  // rejects empty/placeholder uploads
}

// Trigger filters creation events and starts runs.
type Trigger struct {
	starter Starter
	config  Config
	now     func() time.Time
}

// New creates a trigger with the given starter and rules.
func New(starter Starter, config Config) *Trigger {
	if config.InputExtension == "" {
		config.InputExtension = ".pdf"
	}
	return &Trigger{starter: starter, config: config, now: time.Now}
}

// HandleEvent processes one creation notification. Non-qualifying
// objects are skipped without error; a run-start failure is reported
// to the caller so the event source's redelivery can take over.
func (t *Trigger) HandleEvent(ctx context.Context, e GCSEvent, requestID string) error {
	logCtx := slog.With("bucket", e.Bucket, "object", e.Name)

	size, err := strconv.ParseInt(e.Size, 10, 64)
	if err != nil {
		// A malformed size means a malformed event; treat as
		// non-qualifying rather than crashing the subscription.
		logCtx.Warn("Skipping event with unparseable size.", "size", e.Size)
		return nil
	}

	if reason := t.disqualify(e, size); reason != "" {
		logCtx.Info("Skipping non-qualifying object.", "reason", reason)
		return nil
	}

	if requestID == "" {
		requestID = uuid.NewString()
	}
	created := t.now().UTC()
	job := models.Job{
		JobID:     JobID(created, e.Bucket, e.Name, e.ETag),
		Bucket:    e.Bucket,
		Key:       e.Name,
		Timestamp: created.Format(time.RFC3339),
		RequestID: requestID,
		FileInfo:  &models.FileInfo{Size: size, ETag: e.ETag},
	}

	logCtx.Info("Starting conversion run.", "jobId", job.JobID, "requestId", requestID)
	if err := t.starter.Start(ctx, job); err != nil {
		logCtx.Error("Failed to start run.", "jobId", job.JobID, "error", err)
		return fmt.Errorf("failed to start run for %s: %w", job.JobID, err)
	}
	return nil
}

// disqualify returns a reason when the object does not qualify for
// conversion, or "" when it does.
func (t *Trigger) disqualify(e GCSEvent, size int64) string {
	if t.config.InputPrefix != "" && !strings.HasPrefix(e.Name, t.config.InputPrefix) {
		return fmt.Sprintf("object is not under the %s prefix", t.config.InputPrefix)
	}
	if !strings.HasSuffix(strings.ToLower(e.Name), t.config.InputExtension) {
		return fmt.Sprintf("object does not have the %s extension", t.config.InputExtension)
	}
	if size < t.config.MinSizeBytes {
		return fmt.Sprintf("object size %d is below the %d byte minimum", size, t.config.MinSizeBytes)
	}
	return ""
}

// JobID derives the run identifier from the creation time and a short
// content fingerprint. jobId uniqueness is what keeps concurrent runs'
// writes in disjoint key namespaces.
func JobID(created time.Time, bucket, name, etag string) string {
	sum := sha256.Sum256([]byte(bucket + "/" + name + "@" + etag))
	return fmt.Sprintf("job-%s-%s", created.UTC().Format("20060102-150405"), hex.EncodeToString(sum[:])[:8])
}
