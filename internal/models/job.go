package models

// Job is the unit of work for one input document. It is created by the
// trigger and threaded unchanged through every stage of a run.
type Job struct {
	JobID     string    `json:"jobId"`
	Bucket    string    `json:"bucket"`
	Key       string    `json:"key"`
	Timestamp string    `json:"timestamp"` // RFC 3339, job creation time
	RequestID string    `json:"requestId"`
	FileInfo  *FileInfo `json:"fileInfo,omitempty"`
}

// FileInfo carries size and etag as reported by the triggering event.
type FileInfo struct {
	Size int64  `json:"size"`
	ETag string `json:"etag,omitempty"`
}

// JobState is the accumulated workflow context for one run. Each stage
// writes its result into its own field; results are never overwritten
// once set. The whole struct is the JSON document exchanged with stage
// functions and snapshotted by the checkpointer.
type JobState struct {
	Job

	Validation *ValidationResult `json:"validation,omitempty"`
	Download   *DownloadResult   `json:"download,omitempty"`
	Conversion *ConversionResult `json:"conversion,omitempty"`
	Upload     *UploadResult     `json:"upload,omitempty"`
	Cleanup    *CleanupResult    `json:"cleanup,omitempty"`

	// Failure holds the raw error caught by the orchestrator's
	// catch-all transition, for the error handler to interpret.
	Failure *FailureInfo `json:"failure,omitempty"`

	Warnings []string `json:"warnings,omitempty"`
}

// FailureInfo is the raw error attached by the catch-all transition.
// Cause may itself be a serialized JSON payload from a failed stage
// invocation; the error handler attempts to parse it.
type FailureInfo struct {
	ErrorType string `json:"errorType"`
	Cause     string `json:"cause"`
	State     string `json:"state,omitempty"` // machine state that raised the error
}

// InputLocation renders the source object location as a gs:// URI.
func (j *Job) InputLocation() string {
	if j.Bucket == "" && j.Key == "" {
		return ""
	}
	return "gs://" + j.Bucket + "/" + j.Key
}

// AddWarning appends a non-fatal observation to the run.
func (s *JobState) AddWarning(msg string) {
	s.Warnings = append(s.Warnings, msg)
}
