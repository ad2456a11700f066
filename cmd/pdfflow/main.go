// Package main is the entry point for the pdfflow ops CLI. It drives
// the same pipeline the deployed functions run: start a conversion for
// an uploaded object, resume an interrupted run, or check a job's
// progress.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the pdfflow CLI.
var rootCmd = &cobra.Command{
	Use:   "pdfflow",
	Short: "Operate the PDF accessibility conversion workflow",
	Long: `pdfflow drives the PDF-to-accessible-HTML conversion pipeline from the
command line. It talks to the same object store and Firestore collection as
the deployed functions, so runs started here are indistinguishable from
event-triggered ones.

Configuration comes from flags, a config file, environment variables and an
optional .env file, in that order of precedence.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env loading is best-effort for local use.
		if err := godotenv.Load(); err == nil {
			fmt.Fprintln(os.Stderr, "Loaded environment from .env")
		}
		applyConfigToEnv()
		return nil
	},
}

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pdfflow.yaml or ~/.config/pdfflow/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pdfflow")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pdfflow"))
		}
	}

	viper.SetEnvPrefix("PDFFLOW")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// applyConfigToEnv projects config-file values onto the environment
// variables the pipeline reads, without overriding values already set.
func applyConfigToEnv() {
	keys := map[string]string{
		"project_id":           "PROJECT_ID",
		"output_bucket":        "OUTPUT_BUCKET",
		"report_bucket":        "REPORT_BUCKET",
		"firestore_collection": "FIRESTORE_COLLECTION",
		"input_prefix":         "INPUT_PREFIX",
		"output_prefix":        "OUTPUT_PREFIX",
		"error_prefix":         "ERROR_PREFIX",
		"run_timeout":          "RUN_TIMEOUT",
		"workflow_id":          "WORKFLOW_ID",
		"workflow_location":    "WORKFLOW_LOCATION",
	}
	for cfgKey, envKey := range keys {
		if _, set := os.LookupEnv(envKey); set {
			continue
		}
		if value := viper.GetString(cfgKey); value != "" {
			os.Setenv(envKey, value)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
