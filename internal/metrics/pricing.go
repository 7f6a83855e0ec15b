// Package metrics provides cost accounting for batch inference usage.
package metrics

import "math"

// Pricing holds the per-million-token rates used for cost computation.
// Rates are configuration, not business logic: they change whenever the
// upstream provider reprices.
type Pricing struct {
	// InputUSDPerMillion is the USD price per 1M input tokens.
	InputUSDPerMillion float64
	// OutputUSDPerMillion is the USD price per 1M output tokens.
	OutputUSDPerMillion float64
}

// DefaultPricing matches the claude-sonnet batch rates the service was
// launched with ($1.50 / $7.50 per 1M tokens).
func DefaultPricing() Pricing {
	return Pricing{
		InputUSDPerMillion:  1.5,
		OutputUSDPerMillion: 7.5,
	}
}

// CostCents computes the cost of a completed generation in cents,
// rounded half away from zero. Monotonically non-decreasing in both
// token counts.
func (p Pricing) CostCents(inputTokens, outputTokens int) int {
	usd := (float64(inputTokens)*p.InputUSDPerMillion + float64(outputTokens)*p.OutputUSDPerMillion) / 1_000_000
	return int(math.Round(usd * 100))
}
