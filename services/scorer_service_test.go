// services/scorer_service_test.go
package services_test

import (
	"testing"

	"github.com/DeividasMat/firegeo/internal/models"
	"github.com/DeividasMat/firegeo/services"
)

func TestScoreZeroState(t *testing.T) {
	scorer := services.NewScorerService()

	tests := []struct {
		name           string
		brandRanking   *models.CompetitorRanking
		totalResponses int
	}{
		{
			name:           "nil ranking",
			brandRanking:   nil,
			totalResponses: 10,
		},
		{
			name:           "zero responses",
			brandRanking:   &models.CompetitorRanking{Company: "Firegeo", IsOwn: true, AveragePosition: 99},
			totalResponses: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := scorer.Score(tt.brandRanking, tt.totalResponses)
			if summary != (models.BrandScoreSummary{}) {
				t.Errorf("Score() = %+v, want all-zero summary", summary)
			}
		})
	}
}

func TestScoreWeights(t *testing.T) {
	scorer := services.NewScorerService()

	ranking := &models.CompetitorRanking{
		Company:         "Firegeo",
		IsOwn:           true,
		Mentions:        6,
		AveragePosition: 2.0,
		SentimentScore:  100.0,
		ShareOfVoice:    60.0,
		VisibilityScore: 60.0,
	}

	summary := scorer.Score(ranking, 10)

	// 0.3*60 + 0.2*100 + 0.3*60 + 0.2*90 (position 2 maps to 90)
	want := 74.0
	if summary.OverallScore != want {
		t.Errorf("overall score = %.1f, want %.1f", summary.OverallScore, want)
	}
	if summary.VisibilityScore != 60.0 {
		t.Errorf("visibility carried over = %.1f, want 60.0", summary.VisibilityScore)
	}
	if summary.AveragePosition != 2.0 {
		t.Errorf("average position carried over = %.1f, want 2.0", summary.AveragePosition)
	}
}

func TestScorePositionMapping(t *testing.T) {
	scorer := services.NewScorerService()

	// Isolate the position term: zero visibility, sentiment and share of
	// voice so overall = 0.2 * positionScore.
	tests := []struct {
		name        string
		avgPosition float64
		wantOverall float64
	}{
		{"rank one", 1, 20.0},   // positionScore 100
		{"rank ten", 10, 2.0},   // positionScore 10
		{"rank twenty", 20, 12.0}, // 100-2*20 = 60, *0.2
		{"rank fifty", 50, 0.0},   // decays to zero
		{"never ranked sentinel", 99, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := scorer.Score(&models.CompetitorRanking{
				Company:         "Firegeo",
				IsOwn:           true,
				AveragePosition: tt.avgPosition,
			}, 10)
			if summary.OverallScore != tt.wantOverall {
				t.Errorf("position %.0f: overall = %.1f, want %.1f", tt.avgPosition, summary.OverallScore, tt.wantOverall)
			}
		})
	}
}

func TestScoreRounding(t *testing.T) {
	scorer := services.NewScorerService()

	summary := scorer.Score(&models.CompetitorRanking{
		Company:         "Firegeo",
		IsOwn:           true,
		VisibilityScore: 33.3,
		SentimentScore:  66.7,
		ShareOfVoice:    33.3,
		AveragePosition: 3.0,
	}, 3)

	// 0.3*33.3 + 0.2*66.7 + 0.3*33.3 + 0.2*80 = 9.99+13.34+9.99+16 = 49.32
	if summary.OverallScore != 49.3 {
		t.Errorf("overall score = %.2f, want 49.3 (rounded to one decimal)", summary.OverallScore)
	}
}
