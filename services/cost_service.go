// services/cost_service.go
package services

type costService struct{}

func NewCostService() CostService {
	return &costService{}
}

// Cost per 1M tokens
var costPerToken = map[string]struct{ input, output float64 }{
	"gpt-4.1":                  {input: 3.00, output: 12.00},
	"gpt-4.1-mini":             {input: 0.80, output: 3.20},
	"gpt-4o-2024-08-06":        {input: 2.50, output: 10.00},
	"claude-sonnet-4-20250514": {input: 3.00, output: 15.00},
	"sonar":                    {input: 1.00, output: 1.00}, // Perplexity Sonar pricing (estimated)
}

func (s *costService) CalculateCost(provider string, model string, inputTokens int, outputTokens int) float64 {
	modelCosts, exists := costPerToken[model]
	if !exists {
		// Default to GPT-4.1 costs if model not found
		modelCosts = costPerToken["gpt-4.1"]
	}

	inputCost := (float64(inputTokens) / 1_000_000.0) * modelCosts.input
	outputCost := (float64(outputTokens) / 1_000_000.0) * modelCosts.output
	return inputCost + outputCost
}
