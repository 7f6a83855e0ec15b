package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/dataquard/dataquard/internal/api"
	"github.com/dataquard/dataquard/internal/svcctx"
)

// MetricsSummaryResponse aggregates an owner's spend and job counts.
type MetricsSummaryResponse struct {
	TotalCostCents    int64            `json:"total_cost_cents"`
	TotalCostUSD      float64          `json:"total_cost_usd"`
	TotalInputTokens  int64            `json:"total_input_tokens"`
	TotalOutputTokens int64            `json:"total_output_tokens"`
	CountByStatus     map[string]int64 `json:"count_by_status"`
}

// MetricsSummaryEndpoint handles GET /api/metrics/summary.
type MetricsSummaryEndpoint struct{}

func (e *MetricsSummaryEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/metrics/summary", e.handler
}

func (e *MetricsSummaryEndpoint) Auth() api.AuthKind { return api.AuthUser }

func (e *MetricsSummaryEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	jobStore := svcctx.StoreFrom(r.Context())
	if jobStore == nil {
		writeError(w, http.StatusServiceUnavailable, "job store not initialized")
		return
	}

	owner := svcctx.OwnerFrom(r.Context())
	summary, err := jobStore.Summarize(r.Context(), owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := MetricsSummaryResponse{
		TotalCostCents:    summary.TotalCostCents,
		TotalCostUSD:      float64(summary.TotalCostCents) / 100,
		TotalInputTokens:  summary.TotalInputTokens,
		TotalOutputTokens: summary.TotalOutputTokens,
		CountByStatus:     make(map[string]int64, len(summary.CountByStatus)),
	}
	for status, count := range summary.CountByStatus {
		resp.CountByStatus[string(status)] = count
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *MetricsSummaryEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Get your cost and job count summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := userClient(getServerURL)

			var resp MetricsSummaryResponse
			if err := client.Get(cmd.Context(), "/api/metrics/summary", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
