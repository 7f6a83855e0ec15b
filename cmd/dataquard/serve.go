package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dataquard/dataquard/internal/config"
	"github.com/dataquard/dataquard/internal/home"
	"github.com/dataquard/dataquard/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dataquard server",
	Long: `Start the dataquard HTTP server.

The server owns the SQLite job store and exposes the policy generation
API. Batch submission and reconciliation run when a scheduler calls
POST /api/cron/batch.

The server provides:
  - /health              - Basic server health check
  - /ready               - Readiness check (includes job store)
  - /api/policy/queue    - Queue a generation job
  - /api/policy/status   - Job status lookup
  - /api/cron/batch      - Scheduler trigger

Examples:
  dataquard serve                    # Start on default port 8080
  dataquard serve --port 3000        # Start on custom port
  dataquard serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		// Get home directory
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		// Load configuration with hot reload
		configMgr, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		configMgr.WatchConfig()

		// Create server
		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          servePort,
			DatabasePath:  h.DatabasePath(),
			ConfigManager: configMgr,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")

	rootCmd.AddCommand(serveCmd)
}
