// services/interfaces.go
package services

import (
	"context"
	"encoding/json"

	"github.com/DeividasMat/firegeo/internal/models"
	"github.com/invopop/jsonschema"
)

// CostService prices a completed provider call. It satisfies the
// providers/common.CostCalculator interface so the registry can charge
// every raw call through the same table.
type CostService interface {
	CalculateCost(provider, model string, inputTokens, outputTokens int) float64
}

// ExtractionResult carries a structured-output payload plus usage accounting
type ExtractionResult struct {
	Raw          json.RawMessage
	InputTokens  int
	OutputTokens int
	TotalCost    float64
}

// ExtractionClient runs structured-output calls against the extraction model.
// The schema argument is the output of GenerateSchema for the response type.
type ExtractionClient interface {
	ExtractStructured(ctx context.Context, schemaName, description, systemPrompt, prompt string, schema interface{}) (*ExtractionResult, error)
}

// CompetitorDiscoveryResult is the outcome of competitor discovery
type CompetitorDiscoveryResult struct {
	Competitors []models.Company
	TotalCost   float64
}

// PromptGenerationResult is the outcome of prompt generation. UsedFallback
// is set when the model call failed and the deterministic templates were
// used instead.
type PromptGenerationResult struct {
	Prompts      []models.BrandPrompt
	TotalCost    float64
	UsedFallback bool
}

// DiscoveryService finds competitors for a brand and generates the prompt
// set posed to every provider.
type DiscoveryService interface {
	DiscoverCompetitors(ctx context.Context, company models.Company, maxCompetitors int) (*CompetitorDiscoveryResult, error)
	GeneratePrompts(ctx context.Context, company models.Company, competitors []models.Company, maxPrompts int) (*PromptGenerationResult, error)
}

// InterpretationResult is one interpreted answer plus the cost of the
// interpretation calls (not the original provider call).
type InterpretationResult struct {
	Result    *models.AnalysisResult
	TotalCost float64
}

// InterpreterService turns one raw provider answer into a structured
// AnalysisResult. It never fails on malformed model output; it only fails
// when the raw text itself is empty.
type InterpreterService interface {
	InterpretResponse(ctx context.Context, provider, prompt, rawText string, brand models.Company, competitors []models.Company) (*InterpretationResult, error)
}

// AggregatorService folds interpreted results into per-company rankings.
// All methods are pure: same results in, same rankings out, regardless of
// input order.
type AggregatorService interface {
	Aggregate(results []*models.AnalysisResult, brand models.Company, competitors []models.Company) []models.CompetitorRanking
	AggregateByProvider(results []*models.AnalysisResult, brand models.Company, competitors []models.Company) []models.ProviderSpecificRanking
	BuildProviderComparison(providerRankings []models.ProviderSpecificRanking) []models.ProviderComparison
}

// ScorerService derives the published score summary from the brand's own
// aggregated ranking.
type ScorerService interface {
	Score(brandRanking *models.CompetitorRanking, totalResponses int) models.BrandScoreSummary
}

// ProgressSink receives progress events during a run. Emit must not block
// the pipeline; slow consumers drop events, they never stall analysis.
type ProgressSink interface {
	Emit(event models.ProgressEvent)
}

// PromptRunResult is the outcome of the prompt×provider matrix stage
type PromptRunResult struct {
	Results     []*models.AnalysisResult
	FailedUnits []string
	TotalCost   float64
}

// AnalysisService orchestrates a full brand analysis run
type AnalysisService interface {
	AnalyzeBrand(ctx context.Context, req models.AnalysisRequest, sink ProgressSink) (*models.Analysis, error)
	RunPromptMatrix(ctx context.Context, company models.Company, competitors []models.Company, prompts []models.BrandPrompt, sink ProgressSink) (*PromptRunResult, error)
	BuildReport(run *PromptRunResult, company models.Company, competitors []models.Company, prompts []models.BrandPrompt) *models.Analysis
}

// Structured output types for AI extraction

type CompetitorListResponse struct {
	Competitors []CompetitorInfo `json:"competitors" jsonschema_description:"List of direct competitors of the target company"`
}

type CompetitorInfo struct {
	Name string `json:"name" jsonschema_description:"Competitor company name"`
	URL  string `json:"url" jsonschema_description:"Competitor homepage URL, empty if unknown"`
}

type PromptListResponse struct {
	Prompts []GeneratedPrompt `json:"prompts" jsonschema_description:"Questions a buyer would ask an AI assistant about this product category"`
}

type GeneratedPrompt struct {
	Prompt   string `json:"prompt" jsonschema_description:"The question text"`
	Category string `json:"category" jsonschema_description:"One of: ranking, comparison, alternatives, recommendation"`
}

type ResponseAnalysisExtraction struct {
	Rankings []RankingExtract `json:"rankings" jsonschema_description:"Ranked list of companies in the response, empty if the response contains no ranking"`
	Analysis AnalysisExtract  `json:"analysis" jsonschema_description:"Overall analysis of the response with respect to the target brand"`
}

type RankingExtract struct {
	Position  int    `json:"position" jsonschema_description:"1-based rank position"`
	Company   string `json:"company" jsonschema_description:"Company name exactly as written in the response"`
	Sentiment string `json:"sentiment" jsonschema_description:"Sentiment toward this company: positive, neutral, or negative"`
	Reason    string `json:"reason" jsonschema_description:"Short reason the company holds this position, empty if not stated"`
}

type AnalysisExtract struct {
	BrandMentioned   bool     `json:"brand_mentioned" jsonschema_description:"True only if the specific target brand is mentioned"`
	BrandPosition    int      `json:"brand_position" jsonschema_description:"The target brand's rank position, 0 if not ranked"`
	Competitors      []string `json:"competitors" jsonschema_description:"Competitor names mentioned in the response"`
	OverallSentiment string   `json:"overall_sentiment" jsonschema_description:"Sentiment toward the target brand: positive, neutral, or negative"`
	Confidence       float64  `json:"confidence" jsonschema_description:"Confidence in this analysis between 0 and 1"`
}

// GenerateSchema generates a JSON schema for structured outputs
func GenerateSchema[T any]() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	var zero T
	schema := reflector.Reflect(zero)

	// Convert to the format expected by OpenAI
	result := map[string]interface{}{
		"type":       "object",
		"properties": schema.Properties,
		"required":   schema.Required,
	}

	if schema.AdditionalProperties != nil {
		result["additionalProperties"] = false
	}

	return result
}
