// Package workflow implements the conversion orchestrator: a
// data-driven state machine that sequences the stage invocations,
// branches on each stage's declared status, retries transient
// invocation failures per stage policy and routes anything surviving
// retry through the error handler to a failed terminal. Every run
// reaches exactly one terminal state.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/a11yflow/pdf-accessibility/internal/models"
)

// StateName identifies a state of the machine.
type StateName string

const (
	StateValidate    StateName = "Validate"
	StateDownload    StateName = "Download"
	StateConvert     StateName = "Convert"
	StateUpload      StateName = "Upload"
	StateCleanup     StateName = "Cleanup"
	StateHandleError StateName = "HandleError"

	StateSucceeded        StateName = "Succeeded"
	StateValidationFailed StateName = "ValidationFailed"
	StateDownloadFailed   StateName = "DownloadFailed"
	StateConversionFailed StateName = "ConversionFailed"
	StateUploadFailed     StateName = "UploadFailed"
	StateWorkflowFailed   StateName = "WorkflowFailed"
)

// Terminal reports whether the state ends the run.
func (s StateName) Terminal() bool {
	switch s {
	case StateSucceeded, StateValidationFailed, StateDownloadFailed,
		StateConversionFailed, StateUploadFailed, StateWorkflowFailed:
		return true
	}
	return false
}

// Failed reports whether the state is a failure terminal. All failure
// terminals are equivalent to the caller (run status FAILED); the
// distinct names carry the cause.
func (s StateName) Failed() bool {
	return s.Terminal() && s != StateSucceeded
}

// DefaultRunTimeout bounds a whole run, independent of per-stage
// timeouts.
const DefaultRunTimeout = 30 * time.Minute

// Stage describes one state of the machine: how to invoke it, how to
// read its declared status, and where each branch outcome leads.
type Stage struct {
	Name StateName

	// Invoke runs the stage and stores its result on the state. A
	// returned error is an exceptional failure, subject to Retry and
	// then the catch-all; deliberate failures are reported through the
	// result status instead.
	Invoke func(ctx context.Context, state *models.JobState) error

	// Status reads the stage's declared status off the state.
	Status func(state *models.JobState) string

	// Success lists the recognized success values (cleanup has two).
	Success []string

	// Failure is the recognized deliberate-failure value, if any.
	Failure string

	OnSuccess StateName
	OnFailure StateName

	Retry RetryPolicy
}

// FailureHandlerFunc consumes whatever state exists plus the caught
// failure and produces the diagnostic report. It must not fail.
type FailureHandlerFunc func(ctx context.Context, state *models.JobState) *models.ErrorReport

// Result summarizes a finished run.
type Result struct {
	Terminal  StateName
	RunStatus string
	Report    *models.ErrorReport
}

// Machine interprets the stage table for one run at a time. It holds
// no per-run state and is safe for concurrent runs.
type Machine struct {
	stages       map[StateName]*Stage
	entry        StateName
	handler      FailureHandlerFunc
	checkpointer Checkpointer
	runTimeout   time.Duration
}

// NewMachine builds a machine from the stage table. The handler is
// required; a nil checkpointer disables persistence.
func NewMachine(stages []Stage, handler FailureHandlerFunc, checkpointer Checkpointer, runTimeout time.Duration) (*Machine, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("at least one stage is required")
	}
	if handler == nil {
		return nil, fmt.Errorf("a failure handler is required")
	}
	if checkpointer == nil {
		checkpointer = NoopCheckpointer{}
	}
	if runTimeout <= 0 {
		runTimeout = DefaultRunTimeout
	}

	table := make(map[StateName]*Stage, len(stages))
	for i := range stages {
		st := stages[i]
		if st.Invoke == nil || st.Status == nil {
			return nil, fmt.Errorf("stage %s is missing an invoke or status func", st.Name)
		}
		if _, dup := table[st.Name]; dup {
			return nil, fmt.Errorf("duplicate stage %s", st.Name)
		}
		st.Retry = st.Retry.normalized()
		table[st.Name] = &st
	}
	return &Machine{
		stages:       table,
		entry:        stages[0].Name,
		handler:      handler,
		checkpointer: checkpointer,
		runTimeout:   runTimeout,
	}, nil
}

// Run executes one job from the entry state.
func (m *Machine) Run(ctx context.Context, state *models.JobState) (*Result, error) {
	return m.RunFrom(ctx, state, m.entry)
}

// RunFrom executes one job starting at the given state. It is the
// resume path for runs interrupted mid-sequence: the caller restores
// the checkpointed JobState and continues from the recorded position.
func (m *Machine) RunFrom(ctx context.Context, state *models.JobState, from StateName) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, m.runTimeout)
	defer cancel()

	logCtx := slog.With("jobId", state.JobID)
	logCtx.Info("Run starting.", "state", from)

	current := from
	var report *models.ErrorReport

	for !current.Terminal() {
		if current == StateHandleError {
			m.checkpoint(ctx, state, current, models.RunStatusRunning)
			// Report persistence must survive the run timeout.
			report = m.handler(context.WithoutCancel(ctx), state)
			current = StateWorkflowFailed
			continue
		}

		stage, ok := m.stages[current]
		if !ok {
			return nil, fmt.Errorf("no stage registered for state %s", current)
		}

		m.checkpoint(ctx, state, current, models.RunStatusRunning)
		if err := m.invokeWithRetry(ctx, logCtx, stage, state); err != nil {
			state.Failure = &models.FailureInfo{
				ErrorType: errorTypeOf(err),
				Cause:     err.Error(),
				State:     string(current),
			}
			current = StateHandleError
			continue
		}

		current = m.branch(logCtx, stage, state)
	}

	result := &Result{
		Terminal:  current,
		RunStatus: runStatusOf(current, state),
		Report:    report,
	}
	m.checkpoint(context.WithoutCancel(ctx), state, current, result.RunStatus)
	logCtx.Info("Run finished.", "terminal", current, "runStatus", result.RunStatus)
	return result, nil
}

// branch evaluates the stage's declared status. Exactly three outcomes
// are recognized: a listed success value proceeds, the declared failure
// value reaches the stage's failure terminal, and any other value falls
// through to the same terminal.
func (m *Machine) branch(logCtx *slog.Logger, stage *Stage, state *models.JobState) StateName {
	status := stage.Status(state)
	switch {
	case slices.Contains(stage.Success, status):
		return stage.OnSuccess
	case stage.Failure != "" && status == stage.Failure:
		logCtx.Info("Stage reported failure.", "state", stage.Name, "status", status)
		return stage.OnFailure
	default:
		logCtx.Warn("Unrecognized stage status, taking failure branch.", "state", stage.Name, "status", status)
		return stage.OnFailure
	}
}

// invokeWithRetry runs the stage, retrying transient errors with
// multiplicative backoff until the policy is exhausted. Backoff waits
// honor run cancellation.
func (m *Machine) invokeWithRetry(ctx context.Context, logCtx *slog.Logger, stage *Stage, state *models.JobState) error {
	policy := stage.Retry
	var lastErr error

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		lastErr = stage.Invoke(ctx, state)
		if lastErr == nil {
			return nil
		}
		if !policy.Retryable(lastErr) || attempt == policy.MaxAttempts {
			break
		}

		backoff := policy.Backoff(attempt)
		logCtx.Warn("Stage invocation failed, will retry.",
			"state", stage.Name,
			"attempt", attempt,
			"maxAttempts", policy.MaxAttempts,
			"backoff", backoff.String(),
			"error", lastErr,
		)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			logCtx.Error("Run cancelled during backoff.", "state", stage.Name, "error", ctx.Err())
			return ctx.Err()
		}
	}
	return lastErr
}

// checkpoint persists the run position. Checkpoint failures are logged
// and swallowed: losing resumability must not fail a live run.
func (m *Machine) checkpoint(ctx context.Context, state *models.JobState, position StateName, runStatus string) {
	if err := m.checkpointer.Save(ctx, state, string(position), runStatus); err != nil {
		slog.Warn("Failed to persist run checkpoint.", "jobId", state.JobID, "state", position, "error", err)
	}
}

func runStatusOf(terminal StateName, state *models.JobState) string {
	if terminal.Failed() {
		return models.RunStatusFailed
	}
	if len(state.Warnings) > 0 || (state.Cleanup != nil && state.Cleanup.Status == models.CleanupWithWarnings) {
		return models.RunStatusWithWarnings
	}
	return models.RunStatusCompleted
}

func errorTypeOf(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "WorkflowTimeout"
	case errors.Is(err, context.Canceled):
		return "WorkflowCancelled"
	default:
		return "StageExecutionError"
	}
}
