// services/analysis_service_test.go
package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DeividasMat/firegeo/internal/models"
	"github.com/DeividasMat/firegeo/internal/providers"
	"github.com/DeividasMat/firegeo/internal/providers/testutil"
	"github.com/DeividasMat/firegeo/services"
)

func newAnalysisService(extraction services.ExtractionClient, registry *providers.Registry) services.AnalysisService {
	cfg := analysisTestConfig()
	return services.NewAnalysisService(
		cfg,
		registry,
		services.NewDiscoveryService(cfg, extraction),
		services.NewInterpreterService(extraction, registry),
		services.NewAggregatorService(),
		services.NewScorerService(),
	)
}

func fullPipelinePayloads() map[string]string {
	return map[string]string{
		"competitor_discovery": `{
			"competitors": [
				{"name": "Acme", "url": "https://acme.com"},
				{"name": "Brandwatch", "url": "https://brandwatch.com"}
			]
		}`,
		"prompt_generation": `{
			"prompts": [
				{"prompt": "What are the best brand analytics tools?", "category": "ranking"},
				{"prompt": "How does Firegeo compare to Acme?", "category": "comparison"}
			]
		}`,
		"response_analysis": testutil.SampleExtractionJSON(),
	}
}

func TestAnalyzeBrandNoProviders(t *testing.T) {
	extraction := &stubExtractionClient{Payloads: fullPipelinePayloads()}
	service := newAnalysisService(extraction, emptyRegistry())

	_, err := service.AnalyzeBrand(context.Background(), models.AnalysisRequest{Company: testutil.SampleCompany()}, nil)
	if !errors.Is(err, services.ErrNoProvidersConfigured) {
		t.Fatalf("AnalyzeBrand() error = %v, want ErrNoProvidersConfigured", err)
	}
}

func TestAnalyzeBrandFullPipeline(t *testing.T) {
	extraction := &stubExtractionClient{Payloads: fullPipelinePayloads()}
	registry := mockRegistry(
		testutil.NewMockProvider("OpenAI", testutil.SampleRankedAnswer()),
		testutil.NewMockProvider("Anthropic", testutil.SampleRankedAnswer()),
	)
	service := newAnalysisService(extraction, registry)
	sink := services.NewChannelSink(256)

	analysis, err := service.AnalyzeBrand(context.Background(), models.AnalysisRequest{Company: testutil.SampleCompany()}, sink)
	if err != nil {
		t.Fatalf("AnalyzeBrand() error = %v", err)
	}

	if len(analysis.Competitors) != 2 {
		t.Errorf("got %d competitors, want 2 discovered", len(analysis.Competitors))
	}
	if len(analysis.Prompts) != 2 {
		t.Errorf("got %d prompts, want 2 generated", len(analysis.Prompts))
	}
	// 2 prompts × 2 providers
	if len(analysis.Results) != 4 {
		t.Errorf("got %d results, want 4", len(analysis.Results))
	}
	if len(analysis.FailedUnits) != 0 {
		t.Errorf("failed units = %v, want none", analysis.FailedUnits)
	}
	if len(analysis.ProvidersUsed) != 2 {
		t.Errorf("providers used = %v, want 2", analysis.ProvidersUsed)
	}

	// Every response mentions the brand at position 2
	if analysis.Summary.VisibilityScore != 100.0 {
		t.Errorf("visibility = %.1f, want 100.0", analysis.Summary.VisibilityScore)
	}
	if analysis.Summary.AveragePosition != 2.0 {
		t.Errorf("average position = %.1f, want 2.0", analysis.Summary.AveragePosition)
	}
	if analysis.Summary.OverallScore <= 0 {
		t.Errorf("overall score = %.1f, want > 0", analysis.Summary.OverallScore)
	}
	if analysis.TotalCost <= 0 {
		t.Error("total cost was not accumulated")
	}
	if len(analysis.ProviderComparison) == 0 {
		t.Error("provider comparison is empty")
	}

	sink.Close()
	sawDone, sawProgress := false, false
	for event := range sink.Events() {
		switch {
		case event.Type == models.EventStageComplete && event.Stage == models.StageDone:
			sawDone = true
		case event.Type == models.EventAnalysisProgress:
			sawProgress = true
			if event.Data["provider"] == nil || event.Data["prompt_id"] == nil {
				t.Errorf("progress event lacks attribution data: %+v", event)
			}
		}
	}
	if !sawDone {
		t.Error("no done event emitted")
	}
	if !sawProgress {
		t.Error("no per-unit progress events emitted")
	}
}

func TestAnalyzeBrandAllProvidersFail(t *testing.T) {
	// Scenario: every configured provider fails every prompt, and even the
	// extraction model is down. The run must still complete with a valid
	// all-zero summary and a terminal error event, not an error return.
	extraction := &stubExtractionClient{Err: errors.New("everything is down")}
	registry := mockRegistry(
		testutil.NewFailingProvider("OpenAI"),
		testutil.NewFailingProvider("Anthropic"),
		testutil.NewFailingProvider("Perplexity"),
	)
	service := newAnalysisService(extraction, registry)
	sink := services.NewChannelSink(256)

	analysis, err := service.AnalyzeBrand(context.Background(), models.AnalysisRequest{Company: testutil.SampleCompany()}, sink)
	if err != nil {
		t.Fatalf("AnalyzeBrand() error = %v, want nil (zero coverage is a valid result)", err)
	}

	if len(analysis.Results) != 0 {
		t.Errorf("got %d results, want 0", len(analysis.Results))
	}
	if analysis.Summary != (models.BrandScoreSummary{}) {
		t.Errorf("summary = %+v, want all-zero", analysis.Summary)
	}
	// Fallback templates keep the prompt stage alive: 4 prompts × 3 providers
	if len(analysis.FailedUnits) != 12 {
		t.Errorf("got %d failed units, want 12", len(analysis.FailedUnits))
	}

	sink.Close()
	sawError := false
	for event := range sink.Events() {
		if event.Type == models.EventError {
			sawError = true
		}
	}
	if !sawError {
		t.Error("no terminal error event emitted on total failure")
	}
}

func TestRunPromptMatrixPartialFailure(t *testing.T) {
	extraction := &stubExtractionClient{Payloads: fullPipelinePayloads()}
	registry := mockRegistry(
		testutil.NewMockProvider("OpenAI", testutil.SampleRankedAnswer()),
		testutil.NewFailingProvider("Anthropic"),
	)
	service := newAnalysisService(extraction, registry)

	prompts := []models.BrandPrompt{
		{ID: newTestUUID(t), Prompt: "What are the best brand analytics tools?", Category: models.PromptCategoryRanking},
		{ID: newTestUUID(t), Prompt: "How does Firegeo compare to Acme?", Category: models.PromptCategoryComparison},
	}

	run, err := service.RunPromptMatrix(context.Background(), testutil.SampleCompany(), testutil.SampleCompetitors(), prompts, nil)
	if err != nil {
		t.Fatalf("RunPromptMatrix() error = %v", err)
	}

	if len(run.Results) != 2 {
		t.Errorf("got %d results, want 2 from the healthy provider", len(run.Results))
	}
	if len(run.FailedUnits) != 2 {
		t.Errorf("got %d failed units, want 2 from the failing provider", len(run.FailedUnits))
	}
	for _, result := range run.Results {
		if result.Provider != "OpenAI" {
			t.Errorf("result from %s, want only OpenAI", result.Provider)
		}
	}
}

func TestRunPromptMatrixCancellation(t *testing.T) {
	extraction := &stubExtractionClient{Payloads: fullPipelinePayloads()}
	registry := mockRegistry(testutil.NewMockProvider("OpenAI", testutil.SampleRankedAnswer()))
	service := newAnalysisService(extraction, registry)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	prompts := []models.BrandPrompt{
		{ID: newTestUUID(t), Prompt: "What are the best brand analytics tools?", Category: models.PromptCategoryRanking},
	}
	run, err := service.RunPromptMatrix(ctx, testutil.SampleCompany(), testutil.SampleCompetitors(), prompts, nil)
	if err != nil {
		t.Fatalf("RunPromptMatrix() error = %v, want nil on cancellation", err)
	}
	if len(run.Results) != 0 {
		t.Errorf("got %d results after pre-cancelled context, want 0", len(run.Results))
	}
}
