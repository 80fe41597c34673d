// services/cost_service_test.go
package services_test

import (
	"math"
	"testing"

	"github.com/DeividasMat/firegeo/services"
)

func TestCalculateCost(t *testing.T) {
	costService := services.NewCostService()

	tests := []struct {
		name         string
		provider     string
		model        string
		inputTokens  int
		outputTokens int
		want         float64
	}{
		{
			name:         "gpt-4.1 per-million pricing",
			provider:     "OpenAI",
			model:        "gpt-4.1",
			inputTokens:  1_000_000,
			outputTokens: 1_000_000,
			want:         15.00,
		},
		{
			name:         "claude sonnet",
			provider:     "Anthropic",
			model:        "claude-sonnet-4-20250514",
			inputTokens:  100_000,
			outputTokens: 10_000,
			want:         0.30 + 0.15,
		},
		{
			name:         "unknown model falls back to gpt-4.1 pricing",
			provider:     "OpenAI",
			model:        "some-future-model",
			inputTokens:  1_000_000,
			outputTokens: 0,
			want:         3.00,
		},
		{
			name:         "zero usage is free",
			provider:     "Perplexity",
			model:        "sonar",
			inputTokens:  0,
			outputTokens: 0,
			want:         0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := costService.CalculateCost(tt.provider, tt.model, tt.inputTokens, tt.outputTokens)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CalculateCost() = %f, want %f", got, tt.want)
			}
		})
	}
}
