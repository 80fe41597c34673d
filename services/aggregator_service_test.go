// services/aggregator_service_test.go
package services_test

import (
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/DeividasMat/firegeo/internal/models"
	"github.com/DeividasMat/firegeo/internal/providers/testutil"
	"github.com/DeividasMat/firegeo/services"
)

func rankedResult(provider string, brandMentioned bool, brandPosition int, sentiment string, rankings []models.Ranking, competitors ...string) *models.AnalysisResult {
	return &models.AnalysisResult{
		Provider:             provider,
		Prompt:               "best tools?",
		RawResponseText:      "response text",
		Rankings:             rankings,
		BrandMentioned:       brandMentioned,
		BrandPosition:        brandPosition,
		CompetitorsMentioned: competitors,
		Sentiment:            sentiment,
		Confidence:           0.9,
	}
}

// scenarioAResults builds 10 responses across 2 providers: the brand is
// mentioned and ranked #2 in 6 of them, Acme is mentioned in 4.
func scenarioAResults() []*models.AnalysisResult {
	results := make([]*models.AnalysisResult, 0, 10)
	providers := []string{"OpenAI", "Anthropic"}
	for i := 0; i < 10; i++ {
		provider := providers[i%2]
		switch {
		case i < 4:
			// Brand ranked #2 behind Acme
			results = append(results, rankedResult(provider, true, 2, models.SentimentPositive, []models.Ranking{
				{Position: 1, Company: "Acme"},
				{Position: 2, Company: "Firegeo"},
			}))
		case i < 6:
			// Brand mentioned and ranked, no Acme
			results = append(results, rankedResult(provider, true, 2, models.SentimentPositive, nil))
		default:
			// Neither brand nor Acme
			results = append(results, rankedResult(provider, false, 0, models.SentimentNeutral, nil))
		}
	}
	return results
}

func findRanking(t *testing.T, rankings []models.CompetitorRanking, company string) models.CompetitorRanking {
	t.Helper()
	for _, r := range rankings {
		if r.Company == company {
			return r
		}
	}
	t.Fatalf("company %s missing from rankings", company)
	return models.CompetitorRanking{}
}

func TestAggregateScenarioA(t *testing.T) {
	aggregator := services.NewAggregatorService()
	rankings := aggregator.Aggregate(scenarioAResults(), testutil.SampleCompany(), testutil.SampleCompetitors())

	brand := findRanking(t, rankings, "Firegeo")
	if brand.Mentions != 6 {
		t.Errorf("brand mentions = %d, want 6", brand.Mentions)
	}
	if brand.VisibilityScore != 60.0 {
		t.Errorf("brand visibility = %.1f, want 60.0", brand.VisibilityScore)
	}
	if brand.ShareOfVoice != 60.0 {
		t.Errorf("brand share of voice = %.1f, want 60.0", brand.ShareOfVoice)
	}
	if brand.AveragePosition != 2.0 {
		t.Errorf("brand average position = %.1f, want 2.0", brand.AveragePosition)
	}
	if !brand.IsOwn {
		t.Error("brand ranking should be marked IsOwn")
	}

	acme := findRanking(t, rankings, "Acme")
	if acme.Mentions != 4 {
		t.Errorf("Acme mentions = %d, want 4", acme.Mentions)
	}
	if acme.VisibilityScore != 40.0 {
		t.Errorf("Acme visibility = %.1f, want 40.0", acme.VisibilityScore)
	}
	if acme.ShareOfVoice != 40.0 {
		t.Errorf("Acme share of voice = %.1f, want 40.0", acme.ShareOfVoice)
	}
}

func TestAggregateShuffleInvariance(t *testing.T) {
	aggregator := services.NewAggregatorService()
	results := scenarioAResults()
	baseline := aggregator.Aggregate(results, testutil.SampleCompany(), testutil.SampleCompetitors())

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]*models.AnalysisResult, len(results))
		copy(shuffled, results)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		got := aggregator.Aggregate(shuffled, testutil.SampleCompany(), testutil.SampleCompetitors())
		if !reflect.DeepEqual(baseline, got) {
			t.Fatalf("aggregation changed under shuffle %d:\nbaseline %+v\ngot      %+v", i, baseline, got)
		}
	}
}

func TestAggregateMentionIdempotence(t *testing.T) {
	aggregator := services.NewAggregatorService()

	// One response flags Acme through rankings, a duplicate ranking entry,
	// and the competitors list. Still one mention.
	result := rankedResult("OpenAI", false, 0, models.SentimentNeutral, []models.Ranking{
		{Position: 1, Company: "Acme"},
		{Position: 4, Company: "Acme Inc"},
	}, "Acme")

	rankings := aggregator.Aggregate([]*models.AnalysisResult{result}, testutil.SampleCompany(), testutil.SampleCompetitors())
	acme := findRanking(t, rankings, "Acme")
	if acme.Mentions != 1 {
		t.Errorf("Acme mentions = %d, want 1 (one increment per response)", acme.Mentions)
	}
	// Position samples still accumulate per occurrence
	if acme.AveragePosition != 2.5 {
		t.Errorf("Acme average position = %.1f, want 2.5", acme.AveragePosition)
	}
}

func TestAggregateNeverRankedSentinel(t *testing.T) {
	aggregator := services.NewAggregatorService()

	// Brandwatch is tracked but never appears anywhere
	rankings := aggregator.Aggregate(scenarioAResults(), testutil.SampleCompany(), testutil.SampleCompetitors())
	brandwatch := findRanking(t, rankings, "Brandwatch")

	if brandwatch.Mentions != 0 {
		t.Errorf("Brandwatch mentions = %d, want 0", brandwatch.Mentions)
	}
	if brandwatch.AveragePosition != 99 {
		t.Errorf("Brandwatch average position = %.1f, want sentinel 99", brandwatch.AveragePosition)
	}
	if brandwatch.Sentiment != models.SentimentNeutral {
		t.Errorf("Brandwatch sentiment = %s, want neutral", brandwatch.Sentiment)
	}
	if brandwatch.SentimentScore != 50.0 {
		t.Errorf("Brandwatch sentiment score = %.1f, want 50.0", brandwatch.SentimentScore)
	}
}

func TestAggregateShareOfVoiceClosure(t *testing.T) {
	aggregator := services.NewAggregatorService()
	rankings := aggregator.Aggregate(scenarioAResults(), testutil.SampleCompany(), testutil.SampleCompetitors())

	total := 0.0
	anyMentions := false
	for _, r := range rankings {
		total += r.ShareOfVoice
		if r.Mentions > 0 {
			anyMentions = true
		}
	}
	if anyMentions && math.Abs(total-100.0) > 0.1 {
		t.Errorf("share of voice sums to %.2f, want 100 ±0.1", total)
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	aggregator := services.NewAggregatorService()
	rankings := aggregator.Aggregate(nil, testutil.SampleCompany(), testutil.SampleCompetitors())

	if len(rankings) != 3 {
		t.Fatalf("got %d rankings, want 3 (every tracked company present)", len(rankings))
	}
	for _, r := range rankings {
		if r.Mentions != 0 || r.VisibilityScore != 0 || r.ShareOfVoice != 0 {
			t.Errorf("%s has non-zero counters on empty input: %+v", r.Company, r)
		}
		if r.AveragePosition != 99 {
			t.Errorf("%s average position = %.1f, want 99", r.Company, r.AveragePosition)
		}
	}
}

func TestAggregateByProviderDenominators(t *testing.T) {
	aggregator := services.NewAggregatorService()

	// 2 OpenAI responses (brand in both), 4 Anthropic responses (brand in 1)
	results := []*models.AnalysisResult{
		rankedResult("OpenAI", true, 1, models.SentimentPositive, nil),
		rankedResult("OpenAI", true, 2, models.SentimentPositive, nil),
		rankedResult("Anthropic", true, 3, models.SentimentNeutral, nil),
		rankedResult("Anthropic", false, 0, models.SentimentNeutral, nil),
		rankedResult("Anthropic", false, 0, models.SentimentNeutral, nil),
		rankedResult("Anthropic", false, 0, models.SentimentNeutral, nil),
	}

	perProvider := aggregator.AggregateByProvider(results, testutil.SampleCompany(), testutil.SampleCompetitors())
	if len(perProvider) != 2 {
		t.Fatalf("got %d provider scopes, want 2", len(perProvider))
	}
	// Sorted by provider name
	if perProvider[0].Provider != "Anthropic" || perProvider[1].Provider != "OpenAI" {
		t.Fatalf("provider order = %s, %s; want Anthropic, OpenAI", perProvider[0].Provider, perProvider[1].Provider)
	}

	anthropicBrand := findRanking(t, perProvider[0].Competitors, "Firegeo")
	if anthropicBrand.VisibilityScore != 25.0 {
		t.Errorf("Anthropic brand visibility = %.1f, want 25.0 (1 of 4)", anthropicBrand.VisibilityScore)
	}
	openaiBrand := findRanking(t, perProvider[1].Competitors, "Firegeo")
	if openaiBrand.VisibilityScore != 100.0 {
		t.Errorf("OpenAI brand visibility = %.1f, want 100.0 (2 of 2)", openaiBrand.VisibilityScore)
	}
}

func TestBuildProviderComparison(t *testing.T) {
	aggregator := services.NewAggregatorService()
	results := []*models.AnalysisResult{
		rankedResult("OpenAI", true, 1, models.SentimentPositive, nil),
		rankedResult("Anthropic", false, 0, models.SentimentNeutral, nil, "Acme"),
	}

	perProvider := aggregator.AggregateByProvider(results, testutil.SampleCompany(), testutil.SampleCompetitors())
	comparison := aggregator.BuildProviderComparison(perProvider)

	var brandRow *models.ProviderComparison
	for i := range comparison {
		if comparison[i].Company == "Firegeo" {
			brandRow = &comparison[i]
		}
	}
	if brandRow == nil {
		t.Fatal("brand row missing from comparison")
	}
	if !brandRow.IsOwn {
		t.Error("brand row should be marked IsOwn")
	}
	if brandRow.Providers["OpenAI"].Mentions != 1 {
		t.Errorf("OpenAI cell mentions = %d, want 1", brandRow.Providers["OpenAI"].Mentions)
	}
	if _, exists := brandRow.Providers["Perplexity"]; exists {
		t.Error("brand row has a cell for a provider with no results")
	}
}

func TestAggregateNormalizesRankingNames(t *testing.T) {
	aggregator := services.NewAggregatorService()

	// Free-text names resolve to tracked companies under normalization
	result := rankedResult("OpenAI", false, 0, models.SentimentNeutral, []models.Ranking{
		{Position: 1, Company: "acme inc"},
		{Position: 2, Company: "Untracked Startup"},
	})
	rankings := aggregator.Aggregate([]*models.AnalysisResult{result}, testutil.SampleCompany(), testutil.SampleCompetitors())

	acme := findRanking(t, rankings, "Acme")
	if acme.Mentions != 1 {
		t.Errorf("Acme mentions = %d, want 1 (matched via normalization)", acme.Mentions)
	}
	for _, r := range rankings {
		if r.Company == "Untracked Startup" {
			t.Error("untracked company leaked into aggregated rankings")
		}
	}
}
