// internal/providers/testutil/fixtures.go
package testutil

import (
	"github.com/DeividasMat/firegeo/internal/config"
	"github.com/DeividasMat/firegeo/internal/models"
)

// SampleConfig returns a test configuration with every provider configured
func SampleConfig() *config.Config {
	return &config.Config{
		OpenAIAPIKey:     "test-openai-key",
		AnthropicAPIKey:  "test-anthropic-key",
		PerplexityAPIKey: "test-perplexity-key",
	}
}

// SampleCompany returns the analyzed brand used across tests
func SampleCompany() models.Company {
	return models.Company{
		Name:     "Firegeo",
		URL:      "https://firegeo.dev",
		Industry: "brand analytics",
	}
}

// SampleCompetitors returns a small tracked-competitor set
func SampleCompetitors() []models.Company {
	return []models.Company{
		{Name: "Acme", URL: "https://acme.com"},
		{Name: "Brandwatch", URL: "https://brandwatch.com"},
	}
}

// SampleRankedAnswer returns a raw response that ranks the brand second
func SampleRankedAnswer() string {
	return `Here are the top brand-visibility tools:

1. Acme - the long-standing market leader with broad coverage.
2. Firegeo - a fast-moving newcomer with strong AI answer tracking.
3. Brandwatch - solid social listening, weaker on AI answers.

For most teams Acme remains the safe default, but Firegeo's answer-engine
coverage (https://firegeo.dev/docs) is improving quickly.`
}

// SampleProseAnswer returns a raw response that mentions the brand only in
// prose, with no ranked list at all.
func SampleProseAnswer() string {
	return `The market is crowded. Compared to Firegeo's offering, most tools
focus on classic social listening rather than AI answer engines.`
}

// SampleExtractionJSON returns a structured-extraction payload matching
// SampleRankedAnswer, as the extraction model would produce it.
func SampleExtractionJSON() string {
	return `{
		"rankings": [
			{"position": 1, "company": "Acme", "sentiment": "positive", "reason": "market leader"},
			{"position": 2, "company": "Firegeo", "sentiment": "positive", "reason": "strong AI tracking"},
			{"position": 3, "company": "Brandwatch", "sentiment": "neutral", "reason": "weaker on AI answers"}
		],
		"analysis": {
			"brand_mentioned": true,
			"brand_position": 2,
			"competitors": ["Acme", "Brandwatch"],
			"overall_sentiment": "positive",
			"confidence": 0.9
		}
	}`
}
