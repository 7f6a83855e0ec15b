package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/spf13/cobra"

	"github.com/dataquard/dataquard/internal/api"
	"github.com/dataquard/dataquard/internal/config"
	"github.com/dataquard/dataquard/internal/home"
	"github.com/dataquard/dataquard/internal/pipeline"
	"github.com/dataquard/dataquard/internal/store"
	"github.com/dataquard/dataquard/internal/svcctx"
)

// pollingDefaults returns the --wait polling bounds from the polling
// section of the home config file, falling back to the built-in
// defaults when no config exists.
func pollingDefaults() (time.Duration, uint) {
	defaults := config.DefaultConfig().Polling
	interval := time.Duration(defaults.IntervalSeconds) * time.Second
	attempts := uint(defaults.MaxAttempts)

	dir, err := home.New("")
	if err != nil || !dir.ConfigExists() {
		return interval, attempts
	}
	mgr, err := config.NewManager(dir.ConfigPath())
	if err != nil {
		return interval, attempts
	}

	pc := mgr.Get().Polling
	if pc.IntervalSeconds > 0 {
		interval = time.Duration(pc.IntervalSeconds) * time.Second
	}
	if pc.MaxAttempts > 0 {
		attempts = uint(pc.MaxAttempts)
	}
	return interval, attempts
}

// JobStatusResponse describes a job's lifecycle state and, once
// terminal, its outcome.
type JobStatusResponse struct {
	JobID        string     `json:"job_id"`
	Domain       string     `json:"domain"`
	Jurisdiction string     `json:"jurisdiction"`
	Status       string     `json:"status"`
	Content      *string    `json:"content,omitempty"`
	InputTokens  *int       `json:"input_tokens,omitempty"`
	OutputTokens *int       `json:"output_tokens,omitempty"`
	CostCents    *int       `json:"cost_cents,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

func jobStatusResponse(job *store.Job) JobStatusResponse {
	return JobStatusResponse{
		JobID:        job.ID,
		Domain:       job.Domain,
		Jurisdiction: string(job.Jurisdiction),
		Status:       string(job.Status),
		Content:      job.Content,
		InputTokens:  job.InputTokens,
		OutputTokens: job.OutputTokens,
		CostCents:    job.CostCents,
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    job.CreatedAt,
		CompletedAt:  job.CompletedAt,
	}
}

// PolicyStatusEndpoint handles GET /api/policy/status/{job_id}.
type PolicyStatusEndpoint struct{}

func (e *PolicyStatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/policy/status/{job_id}", e.handler
}

func (e *PolicyStatusEndpoint) Auth() api.AuthKind { return api.AuthUser }

func (e *PolicyStatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	jobStore := svcctx.StoreFrom(r.Context())
	if jobStore == nil {
		writeError(w, http.StatusServiceUnavailable, "job store not initialized")
		return
	}

	jobID := r.PathValue("job_id")
	owner := svcctx.OwnerFrom(r.Context())

	job, err := jobStore.GetJobForOwner(r.Context(), jobID, owner)
	if errors.Is(err, store.ErrJobNotFound) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, jobStatusResponse(job))
}

func (e *PolicyStatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		wait     bool
		interval time.Duration
		attempts uint
	)

	cmd := &cobra.Command{
		Use:   "status <job_id>",
		Short: "Get the status of a policy generation job",
		Long: fmt.Sprintf(`Get the status of a policy generation job.

With --wait the command polls until the job reaches a terminal state
(completed or failed) or the attempt budget is exhausted.
The API token is read from the %s environment variable.`, tokenEnvVar),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := userClient(getServerURL)
			path := "/api/policy/status/" + args[0]

			var resp JobStatusResponse
			if !wait {
				if err := client.Get(cmd.Context(), path, &resp); err != nil {
					return err
				}
				return api.Output(resp)
			}

			// Flags override the polling config section.
			cfgInterval, cfgAttempts := pollingDefaults()
			if !cmd.Flags().Changed("interval") {
				interval = cfgInterval
			}
			if !cmd.Flags().Changed("attempts") {
				attempts = cfgAttempts
			}

			err := retry.Do(
				func() error {
					if err := client.Get(cmd.Context(), path, &resp); err != nil {
						return retry.Unrecoverable(err)
					}
					if !store.JobStatus(resp.Status).Terminal() {
						return fmt.Errorf("job %s still %s", resp.JobID, resp.Status)
					}
					return nil
				},
				retry.Context(cmd.Context()),
				retry.Attempts(attempts),
				retry.Delay(interval),
				retry.DelayType(retry.FixedDelay),
				retry.LastErrorOnly(true),
			)
			if err != nil {
				if resp.Status != "" && !store.JobStatus(resp.Status).Terminal() {
					return fmt.Errorf("%w: job %s not terminal after %d attempts", pipeline.ErrTimeout, args[0], attempts)
				}
				return err
			}
			return api.Output(resp)
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Poll until the job is terminal")
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "Polling interval with --wait (overrides the polling config)")
	cmd.Flags().UintVar(&attempts, "attempts", 60, "Maximum polling attempts with --wait (overrides the polling config)")

	return cmd
}
