// internal/providers/common/types.go
package common

// Shared provider call types. Defined here to avoid import cycles between
// the registry and the per-vendor subpackages.

// TextRequest is a single free-text generation request
type TextRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
}

// TextResponse contains a provider's answer plus usage accounting
type TextResponse struct {
	Text         string
	InputTokens  int
	OutputTokens int
	Cost         float64
}

// CostCalculator prices a completed call
type CostCalculator interface {
	CalculateCost(provider, model string, inputTokens, outputTokens int) float64
}
