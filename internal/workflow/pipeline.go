package workflow

import (
	"context"
	"fmt"

	"github.com/a11yflow/pdf-accessibility/internal/gcp"
	"github.com/a11yflow/pdf-accessibility/internal/models"
	"github.com/a11yflow/pdf-accessibility/internal/stages"
)

// Pipeline wires the stage implementations into a runnable machine.
// It is shared by the combined processor function, the in-process
// trigger path and the ops CLI.
type Pipeline struct {
	Config       *Config
	store        gcp.ObjectStore
	checkpointer Checkpointer
	machine      *Machine
}

// NewPipeline builds a production pipeline from the environment: GCS
// object store, Firestore checkpointing, default stage policies.
func NewPipeline(ctx context.Context) (*Pipeline, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := gcp.NewStore(ctx)
	if err != nil {
		return nil, err
	}

	fsClient, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, err
	}
	checkpointer := NewFirestoreCheckpointer(fsClient, cfg.CollectionName)

	return NewPipelineWith(cfg, store, checkpointer)
}

// NewPipelineWith assembles a pipeline from explicit collaborators. A
// nil checkpointer disables persistence.
func NewPipelineWith(cfg *Config, store gcp.ObjectStore, checkpointer Checkpointer) (*Pipeline, error) {
	if checkpointer == nil {
		checkpointer = NoopCheckpointer{}
	}
	machine, err := assemble(cfg, store, checkpointer)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		Config:       cfg,
		store:        store,
		checkpointer: checkpointer,
		machine:      machine,
	}, nil
}

// Run executes one full run for the job and returns the result plus
// the final accumulated state.
func (p *Pipeline) Run(ctx context.Context, job models.Job) (*Result, *models.JobState, error) {
	state := &models.JobState{Job: job}
	result, err := p.machine.Run(ctx, state)
	return result, state, err
}

// Resume continues an interrupted run from its checkpointed position.
func (p *Pipeline) Resume(ctx context.Context, jobID string) (*Result, *models.JobState, error) {
	state, position, err := p.checkpointer.Load(ctx, jobID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load checkpoint for %s: %w", jobID, err)
	}
	from := StateName(position)
	if from == "" || from.Terminal() {
		return nil, nil, fmt.Errorf("job %s is not resumable from state %q", jobID, position)
	}
	result, err := p.machine.RunFrom(ctx, state, from)
	return result, state, err
}

// StatusChecker returns a checker bound to the pipeline's prefixes.
func (p *Pipeline) StatusChecker() *stages.StatusChecker {
	return stages.NewStatusChecker(p.store, stages.StatusCheckerConfig{
		OutputBucket: p.Config.OutputBucket,
		OutputPrefix: p.Config.OutputPrefix,
		ReportBucket: p.Config.ReportBucket,
		ErrorPrefix:  p.Config.ErrorPrefix,
	})
}

// assemble builds the stage table:
//
//	Validate → Download → Convert → Upload → Cleanup → Succeeded
//	    ↓          ↓          ↓         ↓
//	ValidationFailed / DownloadFailed / ConversionFailed / UploadFailed
//
// plus the catch-all HandleError → WorkflowFailed transition reachable
// from every stage.
func assemble(cfg *Config, store gcp.ObjectStore, checkpointer Checkpointer) (*Machine, error) {
	validator := stages.NewValidator(store, stages.ValidatorConfig{MaxInputSize: cfg.MaxInputSize})
	downloader := stages.NewDownloader(store)
	converter := stages.NewConverter()
	uploader := stages.NewUploader(store, stages.UploaderConfig{
		OutputBucket: cfg.OutputBucket,
		OutputPrefix: cfg.OutputPrefix,
		WorkflowName: cfg.WorkflowName,
	})
	cleaner := stages.NewCleaner()
	errorHandler := stages.NewErrorHandler(store, stages.ErrorHandlerConfig{
		ReportBucket: cfg.ReportBucket,
		ErrorPrefix:  cfg.ErrorPrefix,
	})

	table := []Stage{
		{
			Name: StateValidate,
			Invoke: func(ctx context.Context, state *models.JobState) error {
				result, err := validator.Process(ctx, state)
				if err != nil {
					return err
				}
				state.Validation = result
				return nil
			},
			Status: func(state *models.JobState) string {
				if state.Validation == nil {
					return ""
				}
				return string(state.Validation.Status)
			},
			Success:   []string{string(models.ValidationValid)},
			Failure:   string(models.ValidationInvalid),
			OnSuccess: StateDownload,
			OnFailure: StateValidationFailed,
			Retry:     ValidatePolicy(),
		},
		{
			Name: StateDownload,
			Invoke: func(ctx context.Context, state *models.JobState) error {
				result, err := downloader.Process(ctx, state)
				if err != nil {
					return err
				}
				state.Download = result
				return nil
			},
			Status: func(state *models.JobState) string {
				if state.Download == nil {
					return ""
				}
				return string(state.Download.Status)
			},
			Success:   []string{string(models.DownloadDownloaded)},
			Failure:   string(models.DownloadFailed),
			OnSuccess: StateConvert,
			OnFailure: StateDownloadFailed,
			Retry:     DownloadPolicy(),
		},
		{
			Name: StateConvert,
			Invoke: func(ctx context.Context, state *models.JobState) error {
				result, err := converter.Process(ctx, state)
				if err != nil {
					return err
				}
				state.Conversion = result
				return nil
			},
			Status: func(state *models.JobState) string {
				if state.Conversion == nil {
					return ""
				}
				return string(state.Conversion.Status)
			},
			Success:   []string{string(models.ConversionConverted)},
			Failure:   string(models.ConversionFailed),
			OnSuccess: StateUpload,
			OnFailure: StateConversionFailed,
			Retry:     ConvertPolicy(),
		},
		{
			Name: StateUpload,
			Invoke: func(ctx context.Context, state *models.JobState) error {
				result, err := uploader.Process(ctx, state)
				if err != nil {
					return err
				}
				state.Upload = result
				return nil
			},
			Status: func(state *models.JobState) string {
				if state.Upload == nil {
					return ""
				}
				return string(state.Upload.Status)
			},
			Success:   []string{string(models.UploadUploaded)},
			Failure:   string(models.UploadFailed),
			OnSuccess: StateCleanup,
			OnFailure: StateUploadFailed,
			Retry:     UploadPolicy(),
		},
		{
			Name: StateCleanup,
			Invoke: func(ctx context.Context, state *models.JobState) error {
				result, err := cleaner.Process(ctx, state)
				if err != nil {
					return err
				}
				state.Cleanup = result
				return nil
			},
			Status: func(state *models.JobState) string {
				if state.Cleanup == nil {
					return ""
				}
				return string(state.Cleanup.Status)
			},
			Success: []string{
				string(models.CleanupCompleted),
				string(models.CleanupWithWarnings),
			},
			OnSuccess: StateSucceeded,
			OnFailure: StateHandleError,
			Retry:     CleanupPolicy(),
		},
	}

	handler := func(ctx context.Context, state *models.JobState) *models.ErrorReport {
		return errorHandler.Process(ctx, state)
	}
	return NewMachine(table, handler, checkpointer, cfg.RunTimeout)
}
