package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/dataquard/dataquard/internal/api"
	"github.com/dataquard/dataquard/internal/svcctx"
)

// CronBatchEndpoint handles POST /api/cron/batch, the scheduler-driven
// trigger that submits pending jobs and reconciles in-flight batches.
type CronBatchEndpoint struct{}

func (e *CronBatchEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/cron/batch", e.handler
}

func (e *CronBatchEndpoint) Auth() api.AuthKind { return api.AuthCron }

func (e *CronBatchEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	p := svcctx.PipelineFrom(r.Context())
	if p == nil {
		writeError(w, http.StatusServiceUnavailable, "pipeline not initialized")
		return
	}

	result := p.RunCycle(r.Context())
	writeJSON(w, http.StatusOK, result)
}

func (e *CronBatchEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "trigger",
		Short: "Run one submit-and-reconcile batch cycle",
		Long: fmt.Sprintf(`Run one batch cycle: submit pending jobs as a new batch, then poll
every in-flight batch and record finished results.

Meant to be called from a scheduler (cron, systemd timer). The trigger
secret is read from the %s environment variable.`, cronSecretEnvVar),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := cronClient(getServerURL)

			var resp map[string]any
			if err := client.Post(cmd.Context(), "/api/cron/batch", nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
