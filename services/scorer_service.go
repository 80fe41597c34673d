// services/scorer_service.go
package services

import (
	"math"

	"github.com/DeividasMat/firegeo/internal/models"
)

type scorerService struct{}

// NewScorerService creates the pure score derivation
func NewScorerService() ScorerService {
	return &scorerService{}
}

// Overall score weights
const (
	visibilityWeight   = 0.3
	sentimentWeight    = 0.2
	shareOfVoiceWeight = 0.3
	positionWeight     = 0.2
)

// Score derives the published summary from the brand's aggregated ranking.
// A nil ranking or zero analyzed responses yields the all-zero summary:
// "no visibility detected" is a valid result, not an error.
func (s *scorerService) Score(brandRanking *models.CompetitorRanking, totalResponses int) models.BrandScoreSummary {
	if brandRanking == nil || totalResponses == 0 {
		return models.BrandScoreSummary{}
	}

	overall := visibilityWeight*brandRanking.VisibilityScore +
		sentimentWeight*brandRanking.SentimentScore +
		shareOfVoiceWeight*brandRanking.ShareOfVoice +
		positionWeight*positionScore(brandRanking.AveragePosition)

	return models.BrandScoreSummary{
		VisibilityScore: brandRanking.VisibilityScore,
		SentimentScore:  brandRanking.SentimentScore,
		ShareOfVoice:    brandRanking.ShareOfVoice,
		AveragePosition: brandRanking.AveragePosition,
		OverallScore:    round1(overall),
	}
}

// positionScore maps an average rank onto 0..100. Ranks one through ten
// step down by ten points; past ten the score decays by two points per
// rank until it floors at zero.
func positionScore(avgPosition float64) float64 {
	if avgPosition <= 0 {
		return 0
	}
	pos := math.Round(avgPosition)
	if pos <= 10 {
		return (11 - pos) * 10
	}
	return math.Max(0, 100-2*pos)
}
