package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/a11yflow/pdf-accessibility/internal/models"
	"github.com/a11yflow/pdf-accessibility/internal/trigger"
	"github.com/a11yflow/pdf-accessibility/internal/workflow"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a conversion for an object that is already in the input bucket",
	Long: `Run starts a conversion for an uploaded PDF without waiting for a storage
event. The run is identical to an event-triggered one: it validates, converts
and uploads results, records progress in Firestore, and writes an error report
on failure.`,
	RunE: runConversion,
}

func init() {
	runCmd.Flags().String("bucket", "", "input bucket holding the PDF")
	runCmd.Flags().String("key", "", "object key of the PDF, e.g. pdfs/report.pdf")
	runCmd.MarkFlagRequired("bucket")
	runCmd.MarkFlagRequired("key")

	rootCmd.AddCommand(runCmd)
}

func runConversion(cmd *cobra.Command, args []string) error {
	bucket, _ := cmd.Flags().GetString("bucket")
	key, _ := cmd.Flags().GetString("key")

	ctx := cmd.Context()
	pipeline, err := workflow.NewPipeline(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	created := time.Now().UTC()
	job := models.Job{
		JobID:     trigger.JobID(created, bucket, key, ""),
		Bucket:    bucket,
		Key:       key,
		Timestamp: created.Format(time.RFC3339),
		RequestID: uuid.NewString(),
	}

	fmt.Fprintln(os.Stderr, "Starting run", job.JobID, "for", job.InputLocation())
	result, state, err := pipeline.Run(ctx, job)
	if err != nil {
		return fmt.Errorf("run %s did not finish: %w", job.JobID, err)
	}
	return printOutcome(ctx, result, state)
}

// printOutcome writes the run summary as JSON to stdout and returns a
// non-nil error for failed runs so the process exits non-zero.
func printOutcome(_ context.Context, result *workflow.Result, state *models.JobState) error {
	summary := models.ProcessorResponse{
		JobID:         state.JobID,
		Status:        result.RunStatus,
		Terminal:      string(result.Terminal),
		InputLocation: state.InputLocation(),
		Warnings:      state.Warnings,
	}
	if state.Upload != nil {
		summary.OutputLocation = state.Upload.OutputLocation
	}
	if result.Report != nil {
		summary.Error = fmt.Sprintf("%s: %s", result.Report.ErrorType, result.Report.ErrorMessage)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return err
	}

	if result.Terminal.Failed() {
		return fmt.Errorf("run %s ended in %s", state.JobID, result.Terminal)
	}
	return nil
}
