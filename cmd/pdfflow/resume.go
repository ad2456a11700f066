package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/a11yflow/pdf-accessibility/internal/workflow"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <job-id>",
	Short: "Resume an interrupted run from its last checkpoint",
	Long: `Resume continues a run that was cut short, for example by a function
timeout or instance restart. The job's last checkpointed state is loaded from
Firestore and execution picks up at the recorded stage. Jobs that already
reached a terminal state cannot be resumed.`,
	Args: cobra.ExactArgs(1),
	RunE: resumeConversion,
}

func init() {
	rootCmd.AddCommand(resumeCmd)
}

func resumeConversion(cmd *cobra.Command, args []string) error {
	jobID := args[0]

	ctx := cmd.Context()
	pipeline, err := workflow.NewPipeline(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	result, state, err := pipeline.Resume(ctx, jobID)
	if err != nil {
		return err
	}
	return printOutcome(ctx, result, state)
}
