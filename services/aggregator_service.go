// services/aggregator_service.go
package services

import (
	"math"
	"sort"

	"github.com/DeividasMat/firegeo/internal/detect"
	"github.com/DeividasMat/firegeo/internal/models"
)

type aggregatorService struct{}

// NewAggregatorService creates the pure fold over interpreted results.
// No state is kept between calls; every method is deterministic over the
// set of inputs regardless of their order.
func NewAggregatorService() AggregatorService {
	return &aggregatorService{}
}

// companyAccumulator is the counter bucket for one tracked company. The
// fold threads a pre-sized map of these through the response list; nothing
// is captured as ambient state.
type companyAccumulator struct {
	company    string
	isOwn      bool
	mentions   int
	positions  []int
	sentiments []string
}

// Aggregate folds all results into one ranking per tracked company. Every
// tracked company gets an entry even with zero mentions.
func (s *aggregatorService) Aggregate(results []*models.AnalysisResult, brand models.Company, competitors []models.Company) []models.CompetitorRanking {
	buckets, order := newAccumulators(brand, competitors)
	brandKey := detect.NormalizeName(brand.Name)

	for _, result := range results {
		foldResult(buckets, brandKey, result)
	}

	return finalize(buckets, order, len(results))
}

// AggregateByProvider partitions results by provider and runs the same fold
// per partition, so the global and per-provider paths cannot diverge.
func (s *aggregatorService) AggregateByProvider(results []*models.AnalysisResult, brand models.Company, competitors []models.Company) []models.ProviderSpecificRanking {
	grouped := make(map[string][]*models.AnalysisResult)
	providerNames := make([]string, 0)
	for _, result := range results {
		if _, seen := grouped[result.Provider]; !seen {
			providerNames = append(providerNames, result.Provider)
		}
		grouped[result.Provider] = append(grouped[result.Provider], result)
	}
	sort.Strings(providerNames)

	rankings := make([]models.ProviderSpecificRanking, 0, len(providerNames))
	for _, provider := range providerNames {
		rankings = append(rankings, models.ProviderSpecificRanking{
			Provider:    provider,
			Competitors: s.Aggregate(grouped[provider], brand, competitors),
		})
	}
	return rankings
}

// BuildProviderComparison pivots per-provider rankings into one row per
// company. A company absent from a provider's scope gets no cell for that
// provider, not a zero.
func (s *aggregatorService) BuildProviderComparison(providerRankings []models.ProviderSpecificRanking) []models.ProviderComparison {
	rows := make(map[string]*models.ProviderComparison)
	rowOrder := make([]string, 0)

	for _, pr := range providerRankings {
		for _, cr := range pr.Competitors {
			row, exists := rows[cr.Company]
			if !exists {
				row = &models.ProviderComparison{
					Company:   cr.Company,
					IsOwn:     cr.IsOwn,
					Providers: make(map[string]models.ProviderMetrics),
				}
				rows[cr.Company] = row
				rowOrder = append(rowOrder, cr.Company)
			}
			row.Providers[pr.Provider] = models.ProviderMetrics{
				VisibilityScore: cr.VisibilityScore,
				Position:        cr.AveragePosition,
				Mentions:        cr.Mentions,
				Sentiment:       cr.Sentiment,
			}
		}
	}

	comparison := make([]models.ProviderComparison, 0, len(rowOrder))
	for _, company := range rowOrder {
		comparison = append(comparison, *rows[company])
	}
	sort.SliceStable(comparison, func(i, j int) bool {
		vi, vj := meanVisibility(comparison[i]), meanVisibility(comparison[j])
		if vi != vj {
			return vi > vj
		}
		return comparison[i].Company < comparison[j].Company
	})
	return comparison
}

func meanVisibility(row models.ProviderComparison) float64 {
	if len(row.Providers) == 0 {
		return 0
	}
	total := 0.0
	for _, metrics := range row.Providers {
		total += metrics.VisibilityScore
	}
	return total / float64(len(row.Providers))
}

// newAccumulators pre-sizes one bucket per tracked company, brand first.
// Duplicate competitor names collapse into one bucket.
func newAccumulators(brand models.Company, competitors []models.Company) (map[string]*companyAccumulator, []string) {
	buckets := make(map[string]*companyAccumulator, len(competitors)+1)
	order := make([]string, 0, len(competitors)+1)

	brandKey := detect.NormalizeName(brand.Name)
	buckets[brandKey] = &companyAccumulator{company: brand.Name, isOwn: true}
	order = append(order, brandKey)

	for _, c := range competitors {
		key := detect.NormalizeName(c.Name)
		if key == "" || key == brandKey {
			continue
		}
		if _, exists := buckets[key]; exists {
			continue
		}
		buckets[key] = &companyAccumulator{company: c.Name}
		order = append(order, key)
	}
	return buckets, order
}

// foldResult records one response into the accumulators. A response counts
// as at most one mention per company, however many paths flagged it; position
// and sentiment samples accumulate per occurrence, matching how the counters
// have always been folded.
func foldResult(buckets map[string]*companyAccumulator, brandKey string, result *models.AnalysisResult) {
	seen := make(map[string]bool, len(buckets))

	mention := func(key string) *companyAccumulator {
		acc, tracked := buckets[key]
		if !tracked {
			return nil
		}
		if !seen[key] {
			acc.mentions++
			seen[key] = true
		}
		return acc
	}

	brandRanked := false
	for _, r := range result.Rankings {
		key := detect.NormalizeName(r.Company)
		acc := mention(key)
		if acc == nil {
			continue
		}
		if r.Position > 0 {
			acc.positions = append(acc.positions, r.Position)
		}
		if r.Sentiment != "" {
			acc.sentiments = append(acc.sentiments, r.Sentiment)
		}
		if key == brandKey {
			brandRanked = true
		}
	}

	if result.BrandMentioned {
		if acc := mention(brandKey); acc != nil {
			// The rankings already carry the brand's position when it was
			// ranked; the flat BrandPosition only fills the gap.
			if !brandRanked && result.BrandPosition > 0 {
				acc.positions = append(acc.positions, result.BrandPosition)
			}
			if result.Sentiment != "" {
				acc.sentiments = append(acc.sentiments, result.Sentiment)
			}
		}
	}

	for _, name := range result.CompetitorsMentioned {
		key := detect.NormalizeName(name)
		if key == brandKey {
			continue
		}
		mention(key)
	}
}

// neverRankedPosition is the averagePosition sentinel for companies with no
// recorded position sample.
const neverRankedPosition = 99

func finalize(buckets map[string]*companyAccumulator, order []string, totalResponses int) []models.CompetitorRanking {
	totalMentions := 0
	for _, key := range order {
		totalMentions += buckets[key].mentions
	}

	rankings := make([]models.CompetitorRanking, 0, len(order))
	for _, key := range order {
		acc := buckets[key]

		avgPosition := float64(neverRankedPosition)
		if len(acc.positions) > 0 {
			sum := 0
			for _, p := range acc.positions {
				sum += p
			}
			avgPosition = round1(float64(sum) / float64(len(acc.positions)))
		}

		visibility := 0.0
		if totalResponses > 0 {
			visibility = round1(float64(acc.mentions) / float64(totalResponses) * 100)
		}
		shareOfVoice := 0.0
		if totalMentions > 0 {
			shareOfVoice = round1(float64(acc.mentions) / float64(totalMentions) * 100)
		}

		rankings = append(rankings, models.CompetitorRanking{
			Company:         acc.company,
			IsOwn:           acc.isOwn,
			Mentions:        acc.mentions,
			AveragePosition: avgPosition,
			Sentiment:       pluralitySentiment(acc.sentiments),
			SentimentScore:  round1(sentimentScore(acc.sentiments)),
			ShareOfVoice:    shareOfVoice,
			VisibilityScore: visibility,
		})
	}

	sort.SliceStable(rankings, func(i, j int) bool {
		if rankings[i].VisibilityScore != rankings[j].VisibilityScore {
			return rankings[i].VisibilityScore > rankings[j].VisibilityScore
		}
		if rankings[i].Mentions != rankings[j].Mentions {
			return rankings[i].Mentions > rankings[j].Mentions
		}
		return rankings[i].Company < rankings[j].Company
	})
	return rankings
}

// pluralitySentiment votes over the samples; ties and empty sets are neutral
func pluralitySentiment(samples []string) string {
	counts := map[string]int{}
	for _, s := range samples {
		counts[s]++
	}
	best, bestCount := models.SentimentNeutral, 0
	tied := false
	for _, sentiment := range []string{models.SentimentPositive, models.SentimentNeutral, models.SentimentNegative} {
		switch {
		case counts[sentiment] > bestCount:
			best, bestCount = sentiment, counts[sentiment]
			tied = false
		case counts[sentiment] == bestCount && counts[sentiment] > 0 && sentiment != best:
			tied = true
		}
	}
	if tied || bestCount == 0 {
		return models.SentimentNeutral
	}
	return best
}

// sentimentScore maps positive/neutral/negative to 100/50/0 and averages;
// an empty sample set scores 50.
func sentimentScore(samples []string) float64 {
	if len(samples) == 0 {
		return 50
	}
	total := 0.0
	for _, s := range samples {
		switch s {
		case models.SentimentPositive:
			total += 100
		case models.SentimentNegative:
			total += 0
		default:
			total += 50
		}
	}
	return total / float64(len(samples))
}

// round1 rounds half away from zero to one decimal place
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
