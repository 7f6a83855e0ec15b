package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/dataquard/dataquard/internal/api"
	"github.com/dataquard/dataquard/internal/pipeline"
	"github.com/dataquard/dataquard/internal/svcctx"
)

// QueuePolicyRequest is the request body for queueing a generation job.
type QueuePolicyRequest struct {
	Domain       string `json:"domain"`
	Jurisdiction string `json:"jurisdiction"`
	CompanyName  string `json:"company_name,omitempty"`
}

// QueuePolicyResponse acknowledges a queued job.
type QueuePolicyResponse struct {
	JobID         string `json:"job_id"`
	CorrelationID string `json:"correlation_id"`
	Status        string `json:"status"`
}

// QueuePolicyEndpoint handles POST /api/policy/queue.
type QueuePolicyEndpoint struct{}

func (e *QueuePolicyEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/policy/queue", e.handler
}

func (e *QueuePolicyEndpoint) Auth() api.AuthKind { return api.AuthUser }

func (e *QueuePolicyEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	p := svcctx.PipelineFrom(r.Context())
	if p == nil {
		writeError(w, http.StatusServiceUnavailable, "pipeline not initialized")
		return
	}

	var req QueuePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	owner := svcctx.OwnerFrom(r.Context())
	result, err := p.Enqueue(r.Context(), owner, req.Domain, req.Jurisdiction, req.CompanyName)
	if err != nil {
		if errors.Is(err, pipeline.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, QueuePolicyResponse{
		JobID:         result.JobID,
		CorrelationID: result.CorrelationID,
		Status:        "pending",
	})
}

func (e *QueuePolicyEndpoint) Command(getServerURL func() string) *cobra.Command {
	var company string

	cmd := &cobra.Command{
		Use:   "queue <domain> <jurisdiction>",
		Short: "Queue a privacy policy generation job",
		Long: fmt.Sprintf(`Queue a privacy policy generation job for a website domain.

Jurisdiction is one of GDPR, nDSG or BOTH.
The API token is read from the %s environment variable.

Examples:
  dataquard api policy queue example.ch nDSG
  dataquard api policy queue example.com GDPR --company "Example AG"`, tokenEnvVar),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := userClient(getServerURL)

			req := QueuePolicyRequest{
				Domain:       args[0],
				Jurisdiction: args[1],
				CompanyName:  company,
			}
			var resp QueuePolicyResponse
			if err := client.Post(cmd.Context(), "/api/policy/queue", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}

	cmd.Flags().StringVar(&company, "company", "", "Company name used in the generated policy")

	return cmd
}
