package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/a11yflow/pdf-accessibility/internal/gcp"
	"github.com/a11yflow/pdf-accessibility/internal/models"
	"github.com/a11yflow/pdf-accessibility/internal/stages"
	"github.com/a11yflow/pdf-accessibility/internal/workflow"
)

var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Check a job's progress from its bucket artifacts",
	Long: `Status inspects the output and error-report prefixes for the job and
reports COMPLETED when converted HTML exists, FAILED when an error report
exists, and IN_PROGRESS otherwise. It needs no Firestore access, so it works
for runs started by any entry point.`,
	Args: cobra.ExactArgs(1),
	RunE: checkStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func checkStatus(cmd *cobra.Command, args []string) error {
	jobID := args[0]

	ctx := cmd.Context()
	cfg, err := workflow.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	store, err := gcp.NewStore(ctx)
	if err != nil {
		return err
	}

	checker := stages.NewStatusChecker(store, stages.StatusCheckerConfig{
		OutputBucket: cfg.OutputBucket,
		OutputPrefix: cfg.OutputPrefix,
		ReportBucket: cfg.ReportBucket,
		ErrorPrefix:  cfg.ErrorPrefix,
	})

	res, err := checker.Process(ctx, &models.StatusCheckRequest{JobID: jobID})
	if err != nil {
		return fmt.Errorf("status check for %s failed: %w", jobID, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
