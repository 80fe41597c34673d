// internal/models/models.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Sentiment values recorded against companies and responses
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// Prompt categories generated for a brand analysis
const (
	PromptCategoryRanking        = "ranking"
	PromptCategoryComparison     = "comparison"
	PromptCategoryAlternatives   = "alternatives"
	PromptCategoryRecommendation = "recommendation"
)

// Company is the analyzed brand or one of its competitors. Identity is the
// Name string; companies are immutable inputs to the analysis.
type Company struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Industry    string `json:"industry,omitempty"`
	Description string `json:"description,omitempty"`
}

// BrandPrompt is a natural-language question posed to every provider
type BrandPrompt struct {
	ID       uuid.UUID `json:"id"`
	Prompt   string    `json:"prompt"`
	Category string    `json:"category"`
}

// Ranking is one entry of a provider's ranked list. Positions come from
// untrusted model output and need not be contiguous or unique.
type Ranking struct {
	Position  int    `json:"position"`
	Company   string `json:"company"`
	Sentiment string `json:"sentiment,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Citation is a source URL extracted from a raw response
type Citation struct {
	URL  string `json:"url"`
	Type string `json:"type"` // "primary" or "secondary"
}

// AnalysisResult is the normalized interpretation of one raw model answer to
// one prompt. Rankings carry company names as free text; filtering down to
// tracked companies happens in the aggregator.
type AnalysisResult struct {
	Provider             string     `json:"provider"`
	Prompt               string     `json:"prompt"`
	RawResponseText      string     `json:"raw_response_text"`
	Rankings             []Ranking  `json:"rankings"`
	BrandMentioned       bool       `json:"brand_mentioned"`
	BrandPosition        int        `json:"brand_position,omitempty"` // 0 = no position recorded
	CompetitorsMentioned []string   `json:"competitors_mentioned"`
	Sentiment            string     `json:"sentiment"`
	Confidence           float64    `json:"confidence"`
	Citations            []Citation `json:"citations,omitempty"`
	Timestamp            time.Time  `json:"timestamp"`
}

// CompetitorRanking is the aggregated counter set for one tracked company
// within a scope (global or one provider).
type CompetitorRanking struct {
	Company         string  `json:"company"`
	IsOwn           bool    `json:"is_own"`
	Mentions        int     `json:"mentions"`
	AveragePosition float64 `json:"average_position"` // 99 when never ranked
	Sentiment       string  `json:"sentiment"`
	SentimentScore  float64 `json:"sentiment_score"`
	ShareOfVoice    float64 `json:"share_of_voice"`
	VisibilityScore float64 `json:"visibility_score"`
}

// ProviderSpecificRanking is the per-provider aggregation scope
type ProviderSpecificRanking struct {
	Provider    string              `json:"provider"`
	Competitors []CompetitorRanking `json:"competitors"`
}

// ProviderMetrics is one provider's cell in the comparison pivot
type ProviderMetrics struct {
	VisibilityScore float64 `json:"visibility_score"`
	Position        float64 `json:"position"`
	Mentions        int     `json:"mentions"`
	Sentiment       string  `json:"sentiment"`
}

// ProviderComparison pivots the per-provider rankings into one row per
// company. A company missing from a provider's scope has no entry for that
// provider key, not a zero.
type ProviderComparison struct {
	Company   string                     `json:"company"`
	IsOwn     bool                       `json:"is_own"`
	Providers map[string]ProviderMetrics `json:"providers"`
}

// BrandScoreSummary is the published score decomposition for the analyzed
// brand, derived from its own CompetitorRanking entry.
type BrandScoreSummary struct {
	VisibilityScore float64 `json:"visibility_score"`
	SentimentScore  float64 `json:"sentiment_score"`
	ShareOfVoice    float64 `json:"share_of_voice"`
	AveragePosition float64 `json:"average_position"`
	OverallScore    float64 `json:"overall_score"`
}

// AnalysisRequest is the input to a full analysis run. Competitors and
// Prompts are optional; missing pieces are discovered/generated by the run.
type AnalysisRequest struct {
	Company     Company       `json:"company"`
	Competitors []Company     `json:"competitors,omitempty"`
	Prompts     []BrandPrompt `json:"prompts,omitempty"`
}

// Analysis is the finished output of one run, held in memory for the
// duration of the run and handed to the store afterwards.
type Analysis struct {
	AnalysisID         uuid.UUID                 `json:"analysis_id"`
	Company            Company                   `json:"company"`
	Competitors        []Company                 `json:"competitors"`
	Prompts            []BrandPrompt             `json:"prompts"`
	Results            []*AnalysisResult         `json:"results"`
	Rankings           []CompetitorRanking       `json:"rankings"`
	ProviderRankings   []ProviderSpecificRanking `json:"provider_rankings"`
	ProviderComparison []ProviderComparison      `json:"provider_comparison"`
	Summary            BrandScoreSummary         `json:"summary"`
	ProvidersUsed      []string                  `json:"providers_used"`
	FailedUnits        []string                  `json:"failed_units,omitempty"`
	TotalCost          float64                   `json:"total_cost"`
	CreatedAt          time.Time                 `json:"created_at"`
}

// Analysis run stages, in pipeline order
const (
	StageDiscoveringCompetitors = "discovering-competitors"
	StageGeneratingPrompts      = "generating-prompts"
	StageAnalyzingPrompts       = "analyzing-prompts"
	StageAggregating            = "aggregating"
	StageScoring                = "scoring"
	StageDone                   = "done"
	StageError                  = "error"
)

// Progress event types
const (
	EventStageStart       = "stage-start"
	EventAnalysisProgress = "analysis-progress"
	EventStageComplete    = "stage-complete"
	EventError            = "error"
)

// ProgressEvent is emitted through the progress sink after each unit of
// work. Events carry prompt/provider identifiers in Data so consumers can
// attribute them under arbitrary interleaving.
type ProgressEvent struct {
	Type      string                 `json:"type"`
	Stage     string                 `json:"stage"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}
