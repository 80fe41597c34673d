// workflows/analysis_processor.go
package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"

	"github.com/DeividasMat/firegeo/internal/config"
	"github.com/DeividasMat/firegeo/internal/models"
	"github.com/DeividasMat/firegeo/internal/store"
	"github.com/DeividasMat/firegeo/services"
)

type AnalysisProcessor struct {
	analysisService services.AnalysisService
	discovery       services.DiscoveryService
	store           *store.Store
	cfg             *config.Config
	client          inngestgo.Client
}

func NewAnalysisProcessor(analysisService services.AnalysisService, discovery services.DiscoveryService, analysisStore *store.Store, cfg *config.Config) *AnalysisProcessor {
	return &AnalysisProcessor{
		analysisService: analysisService,
		discovery:       discovery,
		store:           analysisStore,
		cfg:             cfg,
	}
}

func (p *AnalysisProcessor) SetClient(client inngestgo.Client) {
	p.client = client
}

// BrandAnalyzeEvent triggers a full analysis run for one brand
type BrandAnalyzeEvent struct {
	CompanyName string `json:"company_name"`
	CompanyURL  string `json:"company_url,omitempty"`
	Industry    string `json:"industry,omitempty"`
	TriggeredBy string `json:"triggered_by,omitempty"`
}

func (p *AnalysisProcessor) ProcessBrandAnalysis() inngestgo.ServableFunction {
	fn, err := inngestgo.CreateFunction(
		p.client,
		inngestgo.FunctionOpts{
			ID:      "process-brand-analysis",
			Name:    "Process Brand Analysis - Full Visibility Pipeline",
			Retries: inngestgo.IntPtr(3),
		},
		inngestgo.EventTrigger("brand.analyze", nil),
		func(ctx context.Context, input inngestgo.Input[BrandAnalyzeEvent]) (any, error) {
			company := models.Company{
				Name:     input.Event.Data.CompanyName,
				URL:      input.Event.Data.CompanyURL,
				Industry: input.Event.Data.Industry,
			}
			if company.Name == "" {
				return nil, fmt.Errorf("brand.analyze event missing company_name")
			}
			fmt.Printf("[ProcessBrandAnalysis] Starting visibility pipeline for brand: %s\n", company.Name)

			// Step 1: discover competitors. Running this as its own step
			// keeps the discovered set stable across retries of later steps.
			competitors, err := step.Run(ctx, "discover-competitors", func(ctx context.Context) ([]models.Company, error) {
				result, err := p.discovery.DiscoverCompetitors(ctx, company, p.cfg.Analysis.MaxCompetitors)
				if err != nil {
					fmt.Printf("[ProcessBrandAnalysis] ⚠️ Discovery failed, continuing without competitors: %v\n", err)
					return nil, nil
				}
				fmt.Printf("[ProcessBrandAnalysis] Found %d competitors for %s\n", len(result.Competitors), company.Name)
				return result.Competitors, nil
			})
			if err != nil {
				return nil, fmt.Errorf("step discover-competitors failed: %w", err)
			}

			// Step 2: run the full analysis (prompt generation, the
			// prompt×provider matrix, aggregation and scoring)
			analysis, err := step.Run(ctx, "run-analysis", func(ctx context.Context) (*models.Analysis, error) {
				return p.analysisService.AnalyzeBrand(ctx, models.AnalysisRequest{
					Company:     company,
					Competitors: competitors,
				}, nil)
			})
			if err != nil {
				return nil, fmt.Errorf("step run-analysis failed: %w", err)
			}

			// Step 3: persist, when a store is configured
			if p.store != nil {
				_, err = step.Run(ctx, "save-analysis", func(ctx context.Context) (interface{}, error) {
					if err := p.store.SaveAnalysis(ctx, analysis); err != nil {
						return nil, err
					}
					return map[string]interface{}{"analysis_id": analysis.AnalysisID.String()}, nil
				})
				if err != nil {
					return nil, fmt.Errorf("step save-analysis failed: %w", err)
				}
			}

			fmt.Printf("[ProcessBrandAnalysis] ✅ COMPLETED: %s scored %.1f overall (%d results, %d failed units)\n",
				company.Name, analysis.Summary.OverallScore, len(analysis.Results), len(analysis.FailedUnits))

			return map[string]interface{}{
				"analysis_id":    analysis.AnalysisID.String(),
				"company":        company.Name,
				"status":         "completed",
				"overall_score":  analysis.Summary.OverallScore,
				"visibility":     analysis.Summary.VisibilityScore,
				"results":        len(analysis.Results),
				"failed_units":   len(analysis.FailedUnits),
				"providers_used": analysis.ProvidersUsed,
				"total_cost":     analysis.TotalCost,
				"completed_at":   time.Now().UTC(),
			}, nil
		},
	)
	if err != nil {
		panic(fmt.Errorf("failed to create ProcessBrandAnalysis function: %w", err))
	}
	return fn
}
