package models

// These structs define the JSON payloads exchanged between the
// orchestrator and the individually deployable stage functions. Every
// stage function accepts the accumulated JobState and returns its own
// result; the orchestrator merges the result back into the state.

// StageRequest is the input to every stage function: the full
// accumulated job state.
type StageRequest = JobState

// ProcessorResponse is the output of the combined pdf-processor
// function, summarizing a whole run.
type ProcessorResponse struct {
	JobID          string   `json:"jobId"`
	Status         string   `json:"status"` // run status, see record.go
	Terminal       string   `json:"terminal"`
	InputLocation  string   `json:"inputLocation,omitempty"`
	OutputLocation string   `json:"outputLocation,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// StatusCheckRequest asks the status-checker for a job's progress.
type StatusCheckRequest struct {
	JobID string `json:"jobId"`
}

// StatusCheckResponse reports a job's progress as inferred from the
// artifacts present under the output prefix.
type StatusCheckResponse struct {
	JobID          string   `json:"jobId"`
	Status         string   `json:"status"` // COMPLETED, IN_PROGRESS or FAILED
	OutputLocation string   `json:"outputLocation"`
	FilesFound     []string `json:"filesFound,omitempty"`
}

// Job progress values reported by the status checker.
const (
	JobStatusCompleted  = "COMPLETED"
	JobStatusInProgress = "IN_PROGRESS"
	JobStatusFailed     = "FAILED"
)
