package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/a11yflow/pdf-accessibility/internal/models"
)

// Checkpointer persists the orchestrator's position so an interrupted
// run can be resumed. Save is called after every transition; Load
// restores the snapshot for RunFrom.
type Checkpointer interface {
	Save(ctx context.Context, state *models.JobState, position, runStatus string) error
	Load(ctx context.Context, jobID string) (*models.JobState, string, error)
}

// NoopCheckpointer disables persistence.
type NoopCheckpointer struct{}

func (NoopCheckpointer) Save(context.Context, *models.JobState, string, string) error {
	return nil
}

func (NoopCheckpointer) Load(context.Context, string) (*models.JobState, string, error) {
	return nil, "", fmt.Errorf("no checkpoint persistence configured")
}

// FirestoreCheckpointer stores one JobRecord per run, keyed by jobId,
// with the serialized JobState as the resume snapshot.
type FirestoreCheckpointer struct {
	client     *firestore.Client
	collection string
	now        func() time.Time
}

// NewFirestoreCheckpointer creates a checkpointer writing to the given
// collection.
func NewFirestoreCheckpointer(client *firestore.Client, collection string) *FirestoreCheckpointer {
	return &FirestoreCheckpointer{client: client, collection: collection, now: time.Now}
}

func (c *FirestoreCheckpointer) Save(ctx context.Context, state *models.JobState, position, runStatus string) error {
	snapshot, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal job state snapshot: %w", err)
	}

	record := models.JobRecord{
		JobID:        state.JobID,
		SourceBucket: state.Bucket,
		SourceKey:    state.Key,
		RequestID:    state.RequestID,
		Status:       runStatus,
		State:        position,
		Snapshot:     string(snapshot),
		Warnings:     state.Warnings,
		UpdatedAt:    c.now(),
	}
	if state.FileInfo != nil {
		record.ETag = state.FileInfo.ETag
	}
	if state.Failure != nil {
		record.ErrorDetails = state.Failure.Cause
	}
	if created, err := time.Parse(time.RFC3339, state.Timestamp); err == nil {
		record.CreatedAt = created
	}

	if _, err := c.client.Collection(c.collection).Doc(state.JobID).Set(ctx, record); err != nil {
		return fmt.Errorf("failed to write job record: %w", err)
	}
	return nil
}

func (c *FirestoreCheckpointer) Load(ctx context.Context, jobID string) (*models.JobState, string, error) {
	doc, err := c.client.Collection(c.collection).Doc(jobID).Get(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read job record for %s: %w", jobID, err)
	}

	var record models.JobRecord
	if err := doc.DataTo(&record); err != nil {
		return nil, "", fmt.Errorf("failed to decode job record for %s: %w", jobID, err)
	}
	if record.Snapshot == "" {
		return nil, "", fmt.Errorf("job record for %s has no snapshot", jobID)
	}

	var state models.JobState
	if err := json.Unmarshal([]byte(record.Snapshot), &state); err != nil {
		return nil, "", fmt.Errorf("failed to decode snapshot for %s: %w", jobID, err)
	}
	return &state, record.State, nil
}
