package main

import (
	"github.com/spf13/cobra"

	"github.com/dataquard/dataquard/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running dataquard server via HTTP.

These commands require a running server (dataquard serve).
Use --server to specify a custom server URL. User commands read the
API token from DATAQUARD_API_TOKEN; the cron trigger reads its secret
from DATAQUARD_CRON_SECRET.

Examples:
  dataquard api health                       # Check server health
  dataquard api policy queue example.ch nDSG # Queue a policy generation
  dataquard api policy status <job_id>       # Check a job
  dataquard api cron trigger                 # Run one batch cycle`,
}

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Policy generation job commands",
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Cost and usage summary commands",
}

var cronCmd = &cobra.Command{
	Use:   "cron",
	Short: "Scheduler trigger commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	// Health endpoints at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ReadyEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.SwaggerEndpoint{}).Command(getServerURL))

	// Policy jobs as subcommand group
	for _, ep := range endpoints.PolicyCommands() {
		policyCmd.AddCommand(ep.Command(getServerURL))
	}

	// Metrics as subcommand group
	for _, ep := range endpoints.MetricsCommands() {
		metricsCmd.AddCommand(ep.Command(getServerURL))
	}

	// Scheduler trigger as subcommand group
	for _, ep := range endpoints.CronCommands() {
		cronCmd.AddCommand(ep.Command(getServerURL))
	}

	apiCmd.AddCommand(policyCmd)
	apiCmd.AddCommand(metricsCmd)
	apiCmd.AddCommand(cronCmd)
	rootCmd.AddCommand(apiCmd)
}
