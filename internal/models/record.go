package models

import "time"

// Run statuses recorded in Firestore. These describe the whole run, as
// opposed to the per-stage statuses in results.go.
const (
	RunStatusRunning      = "RUNNING"
	RunStatusCompleted    = "COMPLETED"
	RunStatusWithWarnings = "COMPLETED_WITH_WARNINGS"
	RunStatusFailed       = "FAILED"
)

// JobRecord is the Firestore document tracking one run. Snapshot holds
// the serialized JobState so an interrupted run can be resumed from its
// recorded State.
type JobRecord struct {
	JobID        string    `firestore:"jobId"`
	SourceBucket string    `firestore:"sourceBucket,omitempty"`
	SourceKey    string    `firestore:"sourceKey,omitempty"`
	ETag         string    `firestore:"etag,omitempty"`
	RequestID    string    `firestore:"requestId,omitempty"`
	Status       string    `firestore:"status"`
	State        string    `firestore:"state,omitempty"` // current machine state
	Snapshot     string    `firestore:"snapshot,omitempty"`
	ErrorDetails string    `firestore:"errorDetails,omitempty"`
	Warnings     []string  `firestore:"warnings,omitempty"`
	CreatedAt    time.Time `firestore:"createdAt,omitempty"`
	UpdatedAt    time.Time `firestore:"updatedAt,omitempty"`
}
