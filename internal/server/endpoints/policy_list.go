package endpoints

import (
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dataquard/dataquard/internal/api"
	"github.com/dataquard/dataquard/internal/store"
	"github.com/dataquard/dataquard/internal/svcctx"
)

const defaultListLimit = 10

// JobSummary is one row in a job listing. Content is omitted; fetch a
// single job for the full policy text.
type JobSummary struct {
	JobID        string     `json:"job_id"`
	Domain       string     `json:"domain"`
	Jurisdiction string     `json:"jurisdiction"`
	Status       string     `json:"status"`
	CostCents    *int       `json:"cost_cents,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// ListJobsResponse is the response for job listings.
type ListJobsResponse struct {
	Jobs  []JobSummary `json:"jobs"`
	Count int          `json:"count"`
}

// ListJobsEndpoint handles GET /api/policy/jobs.
type ListJobsEndpoint struct{}

func (e *ListJobsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/policy/jobs", e.handler
}

func (e *ListJobsEndpoint) Auth() api.AuthKind { return api.AuthUser }

func (e *ListJobsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	jobStore := svcctx.StoreFrom(r.Context())
	if jobStore == nil {
		writeError(w, http.StatusServiceUnavailable, "job store not initialized")
		return
	}

	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	owner := svcctx.OwnerFrom(r.Context())
	jobs, err := jobStore.ListJobsForOwner(r.Context(), owner, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := ListJobsResponse{Jobs: make([]JobSummary, 0, len(jobs))}
	for i := range jobs {
		resp.Jobs = append(resp.Jobs, jobSummary(&jobs[i]))
	}
	resp.Count = len(resp.Jobs)

	writeJSON(w, http.StatusOK, resp)
}

func jobSummary(job *store.Job) JobSummary {
	return JobSummary{
		JobID:        job.ID,
		Domain:       job.Domain,
		Jurisdiction: string(job.Jurisdiction),
		Status:       string(job.Status),
		CostCents:    job.CostCents,
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    job.CreatedAt,
		CompletedAt:  job.CompletedAt,
	}
}

func (e *ListJobsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List your policy generation jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := userClient(getServerURL)

			path := "/api/policy/jobs"
			if limit > 0 {
				path += "?limit=" + strconv.Itoa(limit)
			}

			var resp ListJobsResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of jobs to return")

	return cmd
}
