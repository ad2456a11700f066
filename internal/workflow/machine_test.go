package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a11yflow/pdf-accessibility/internal/models"
)

// recordingCheckpointer captures every Save for assertion.
type recordingCheckpointer struct {
	mu      sync.Mutex
	saves   []string // "position/runStatus"
	saveErr error
}

func (r *recordingCheckpointer) Save(_ context.Context, _ *models.JobState, position, runStatus string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves = append(r.saves, position+"/"+runStatus)
	return r.saveErr
}

func (r *recordingCheckpointer) Load(context.Context, string) (*models.JobState, string, error) {
	return nil, "", errors.New("not implemented")
}

// fastPolicy retries immediately so tests do not sleep.
func fastPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     maxAttempts,
		InitialInterval: time.Millisecond,
		BackoffRate:     1.0,
		Retryable:       func(error) bool { return true },
	}
}

// twoStageTable builds a minimal Validate → Cleanup table whose stage
// behavior is driven by the given invoke funcs and statuses.
func twoStageTable(firstInvoke func(ctx context.Context, state *models.JobState) error, firstStatus func(*models.JobState) string) []Stage {
	return []Stage{
		{
			Name:      StateValidate,
			Invoke:    firstInvoke,
			Status:    firstStatus,
			Success:   []string{"VALID"},
			Failure:   "INVALID",
			OnSuccess: StateCleanup,
			OnFailure: StateValidationFailed,
			Retry:     fastPolicy(1),
		},
		{
			Name: StateCleanup,
			Invoke: func(ctx context.Context, state *models.JobState) error {
				state.Cleanup = &models.CleanupResult{Status: models.CleanupCompleted}
				return nil
			},
			Status: func(state *models.JobState) string {
				if state.Cleanup == nil {
					return ""
				}
				return string(state.Cleanup.Status)
			},
			Success:   []string{string(models.CleanupCompleted), string(models.CleanupWithWarnings)},
			OnSuccess: StateSucceeded,
			OnFailure: StateHandleError,
			Retry:     fastPolicy(1),
		},
	}
}

func noopHandler(context.Context, *models.JobState) *models.ErrorReport {
	return &models.ErrorReport{ErrorType: "WorkflowError"}
}

func runState() *models.JobState {
	return &models.JobState{Job: models.Job{JobID: "job-test", Bucket: "b", Key: "k.pdf"}}
}

func TestMachineRunsToSucceeded(t *testing.T) {
	table := twoStageTable(
		func(ctx context.Context, state *models.JobState) error {
			state.Validation = &models.ValidationResult{Status: models.ValidationValid}
			return nil
		},
		func(state *models.JobState) string { return string(state.Validation.Status) },
	)
	cp := &recordingCheckpointer{}
	m, err := NewMachine(table, noopHandler, cp, time.Minute)
	require.NoError(t, err)

	result, err := m.Run(context.Background(), runState())
	require.NoError(t, err)

	assert.Equal(t, StateSucceeded, result.Terminal)
	assert.Equal(t, models.RunStatusCompleted, result.RunStatus)
	assert.Nil(t, result.Report)
	assert.Equal(t, []string{
		"Validate/RUNNING",
		"Cleanup/RUNNING",
		"Succeeded/COMPLETED",
	}, cp.saves)
}

func TestMachineRoutesDeliberateFailureToTerminal(t *testing.T) {
	handlerCalled := false
	table := twoStageTable(
		func(ctx context.Context, state *models.JobState) error {
			state.Validation = &models.ValidationResult{Status: models.ValidationInvalid, Reason: "not a pdf"}
			return nil
		},
		func(state *models.JobState) string { return string(state.Validation.Status) },
	)
	m, err := NewMachine(table, func(ctx context.Context, state *models.JobState) *models.ErrorReport {
		handlerCalled = true
		return nil
	}, nil, time.Minute)
	require.NoError(t, err)

	result, err := m.Run(context.Background(), runState())
	require.NoError(t, err)

	assert.Equal(t, StateValidationFailed, result.Terminal)
	assert.Equal(t, models.RunStatusFailed, result.RunStatus)
	assert.False(t, handlerCalled, "deliberate failures bypass the error handler")
}

func TestMachineTreatsUnknownStatusAsFailure(t *testing.T) {
	table := twoStageTable(
		func(ctx context.Context, state *models.JobState) error { return nil },
		func(state *models.JobState) string { return "SOMETHING_ELSE" },
	)
	m, err := NewMachine(table, noopHandler, nil, time.Minute)
	require.NoError(t, err)

	result, err := m.Run(context.Background(), runState())
	require.NoError(t, err)
	assert.Equal(t, StateValidationFailed, result.Terminal)
}

func TestMachineRetriesTransientErrors(t *testing.T) {
	attempts := 0
	table := twoStageTable(
		func(ctx context.Context, state *models.JobState) error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			state.Validation = &models.ValidationResult{Status: models.ValidationValid}
			return nil
		},
		func(state *models.JobState) string {
			if state.Validation == nil {
				return ""
			}
			return string(state.Validation.Status)
		},
	)
	table[0].Retry = fastPolicy(3)
	m, err := NewMachine(table, noopHandler, nil, time.Minute)
	require.NoError(t, err)

	result, err := m.Run(context.Background(), runState())
	require.NoError(t, err)

	assert.Equal(t, 3, attempts)
	assert.Equal(t, StateSucceeded, result.Terminal)
}

func TestMachineExhaustedRetriesReachCatchAll(t *testing.T) {
	attempts := 0
	handlerCalls := 0
	table := twoStageTable(
		func(ctx context.Context, state *models.JobState) error {
			attempts++
			return errors.New("still broken")
		},
		func(state *models.JobState) string { return "" },
	)
	table[0].Retry = fastPolicy(3)

	var seenFailure *models.FailureInfo
	m, err := NewMachine(table, func(ctx context.Context, state *models.JobState) *models.ErrorReport {
		handlerCalls++
		seenFailure = state.Failure
		return &models.ErrorReport{ErrorType: "StageExecutionError", ErrorMessage: "still broken"}
	}, nil, time.Minute)
	require.NoError(t, err)

	result, err := m.Run(context.Background(), runState())
	require.NoError(t, err)

	assert.Equal(t, 3, attempts)
	assert.Equal(t, 1, handlerCalls, "error handler runs exactly once")
	assert.Equal(t, StateWorkflowFailed, result.Terminal)
	assert.Equal(t, models.RunStatusFailed, result.RunStatus)
	require.NotNil(t, result.Report)

	require.NotNil(t, seenFailure)
	assert.Equal(t, "StageExecutionError", seenFailure.ErrorType)
	assert.Equal(t, "still broken", seenFailure.Cause)
	assert.Equal(t, string(StateValidate), seenFailure.State)
}

func TestMachineDoesNotRetryNonRetryableErrors(t *testing.T) {
	attempts := 0
	table := twoStageTable(
		func(ctx context.Context, state *models.JobState) error {
			attempts++
			return errors.New("bad request")
		},
		func(state *models.JobState) string { return "" },
	)
	table[0].Retry = RetryPolicy{
		MaxAttempts:     5,
		InitialInterval: time.Millisecond,
		Retryable:       func(error) bool { return false },
	}
	m, err := NewMachine(table, noopHandler, nil, time.Minute)
	require.NoError(t, err)

	result, err := m.Run(context.Background(), runState())
	require.NoError(t, err)

	assert.Equal(t, 1, attempts)
	assert.Equal(t, StateWorkflowFailed, result.Terminal)
}

func TestMachineReportsWarningsInRunStatus(t *testing.T) {
	table := twoStageTable(
		func(ctx context.Context, state *models.JobState) error {
			state.Validation = &models.ValidationResult{Status: models.ValidationValid}
			state.AddWarning("size mismatch")
			return nil
		},
		func(state *models.JobState) string { return string(state.Validation.Status) },
	)
	m, err := NewMachine(table, noopHandler, nil, time.Minute)
	require.NoError(t, err)

	result, err := m.Run(context.Background(), runState())
	require.NoError(t, err)

	assert.Equal(t, StateSucceeded, result.Terminal)
	assert.Equal(t, models.RunStatusWithWarnings, result.RunStatus)
}

func TestMachineSwallowsCheckpointErrors(t *testing.T) {
	table := twoStageTable(
		func(ctx context.Context, state *models.JobState) error {
			state.Validation = &models.ValidationResult{Status: models.ValidationValid}
			return nil
		},
		func(state *models.JobState) string { return string(state.Validation.Status) },
	)
	cp := &recordingCheckpointer{saveErr: errors.New("firestore down")}
	m, err := NewMachine(table, noopHandler, cp, time.Minute)
	require.NoError(t, err)

	result, err := m.Run(context.Background(), runState())
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, result.Terminal)
}

func TestMachineRunFromResumesMidSequence(t *testing.T) {
	validateRan := false
	table := twoStageTable(
		func(ctx context.Context, state *models.JobState) error {
			validateRan = true
			return nil
		},
		func(state *models.JobState) string { return "VALID" },
	)
	m, err := NewMachine(table, noopHandler, nil, time.Minute)
	require.NoError(t, err)

	result, err := m.RunFrom(context.Background(), runState(), StateCleanup)
	require.NoError(t, err)

	assert.False(t, validateRan, "resume must not re-run earlier stages")
	assert.Equal(t, StateSucceeded, result.Terminal)
}

func TestMachineRunFromUnknownStateErrors(t *testing.T) {
	table := twoStageTable(
		func(ctx context.Context, state *models.JobState) error { return nil },
		func(state *models.JobState) string { return "VALID" },
	)
	m, err := NewMachine(table, noopHandler, nil, time.Minute)
	require.NoError(t, err)

	_, err = m.RunFrom(context.Background(), runState(), StateName("Bogus"))
	require.Error(t, err)
}

func TestNewMachineValidation(t *testing.T) {
	valid := twoStageTable(
		func(ctx context.Context, state *models.JobState) error { return nil },
		func(state *models.JobState) string { return "VALID" },
	)

	_, err := NewMachine(nil, noopHandler, nil, time.Minute)
	assert.Error(t, err, "empty stage table")

	_, err = NewMachine(valid, nil, nil, time.Minute)
	assert.Error(t, err, "missing handler")

	dup := append(append([]Stage{}, valid...), valid[0])
	_, err = NewMachine(dup, noopHandler, nil, time.Minute)
	assert.Error(t, err, "duplicate stage")

	broken := append([]Stage{}, valid...)
	broken[0].Invoke = nil
	_, err = NewMachine(broken, noopHandler, nil, time.Minute)
	assert.Error(t, err, "missing invoke func")
}

func TestTerminalClassification(t *testing.T) {
	for _, s := range []StateName{StateSucceeded, StateValidationFailed, StateDownloadFailed, StateConversionFailed, StateUploadFailed, StateWorkflowFailed} {
		assert.True(t, s.Terminal(), s)
	}
	for _, s := range []StateName{StateValidate, StateDownload, StateConvert, StateUpload, StateCleanup, StateHandleError} {
		assert.False(t, s.Terminal(), s)
	}
	assert.False(t, StateSucceeded.Failed())
	assert.True(t, StateWorkflowFailed.Failed())
}
