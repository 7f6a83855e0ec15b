package main

import (
	"github.com/spf13/cobra"

	"github.com/dataquard/dataquard/internal/api"
	"github.com/dataquard/dataquard/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "dataquard",
	Short: "Privacy policy generation service for GDPR and Swiss nDSG compliance",
	Long: `Dataquard generates website privacy policies through asynchronous
LLM batch inference.

Generation requests are queued as jobs, submitted to the provider's
batch API in bulk, and reconciled once the batch finishes. Completed
policies are delivered via the API and a notification email.

The pipeline includes:
  - Jurisdiction-specific prompts (GDPR, Swiss nDSG, or both)
  - Scheduler-driven batch submission and reconciliation
  - Per-owner cost accounting
  - Policy-ready email notifications`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.dataquard/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "dataquard home directory (default: ~/.dataquard)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
