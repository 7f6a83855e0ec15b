package metrics

import "testing"

func TestCostCents(t *testing.T) {
	p := DefaultPricing()

	tests := []struct {
		name         string
		inputTokens  int
		outputTokens int
		want         int
	}{
		{"typical generation", 500, 1200, 1},
		{"rounds down below half cent", 300, 800, 0},
		{"zero usage", 0, 0, 0},
		{"input only", 1_000_000, 0, 150},
		{"output only", 0, 1_000_000, 750},
		{"large batch", 2_500_000, 4_000_000, 3375},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.CostCents(tt.inputTokens, tt.outputTokens)
			if got != tt.want {
				t.Errorf("CostCents(%d, %d) = %d, want %d", tt.inputTokens, tt.outputTokens, got, tt.want)
			}
		})
	}
}

func TestCostCentsCustomRates(t *testing.T) {
	p := Pricing{InputUSDPerMillion: 3.0, OutputUSDPerMillion: 15.0}

	// 100k in + 100k out = 0.3 + 1.5 USD = 180 cents
	got := p.CostCents(100_000, 100_000)
	if got != 180 {
		t.Errorf("CostCents(100000, 100000) = %d, want 180", got)
	}
}

func TestDefaultPricing(t *testing.T) {
	p := DefaultPricing()
	if p.InputUSDPerMillion != 1.5 {
		t.Errorf("InputUSDPerMillion = %v, want 1.5", p.InputUSDPerMillion)
	}
	if p.OutputUSDPerMillion != 7.5 {
		t.Errorf("OutputUSDPerMillion = %v, want 7.5", p.OutputUSDPerMillion)
	}
}
