// workflows/scheduled_processor.go
package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"

	"github.com/DeividasMat/firegeo/internal/models"
	"github.com/DeividasMat/firegeo/internal/store"
)

type ScheduledProcessor struct {
	store  *store.Store
	client inngestgo.Client
}

func NewScheduledProcessor(analysisStore *store.Store) *ScheduledProcessor {
	return &ScheduledProcessor{
		store: analysisStore,
	}
}

func (p *ScheduledProcessor) SetClient(client inngestgo.Client) {
	p.client = client
}

// DailyReanalysis re-runs the visibility pipeline for every tracked brand
// once a day, so score history accumulates without manual triggers.
func (p *ScheduledProcessor) DailyReanalysis() inngestgo.ServableFunction {
	fn, err := inngestgo.CreateFunction(
		p.client,
		inngestgo.FunctionOpts{
			ID:   "daily-brand-reanalysis",
			Name: "Daily Brand Re-Analysis",
		},
		inngestgo.CronTrigger("0 3 * * *"), // Every day at 3 AM UTC
		func(ctx context.Context, input inngestgo.Input[any]) (any, error) {
			now := time.Now()

			// Step 1: load every brand with stored history
			brands, err := step.Run(ctx, "list-tracked-brands", func(ctx context.Context) ([]models.Company, error) {
				return p.store.ListTrackedBrands(ctx)
			})
			if err != nil {
				return nil, fmt.Errorf("failed to list tracked brands: %w", err)
			}

			if len(brands) == 0 {
				return map[string]interface{}{
					"execution_date": now.Format("2006-01-02"),
					"brands_found":   0,
					"message":        "No tracked brands to re-analyze",
				}, nil
			}

			// Step 2: trigger one analysis event per brand. One idempotent
			// step per brand so a retry only re-sends the ones that failed.
			for _, brand := range brands {
				stepName := fmt.Sprintf("trigger-analysis-%s", brand.Name)

				_, err := step.Run(ctx, stepName, func(ctx context.Context) (interface{}, error) {
					evt := inngestgo.Event{
						Name: "brand.analyze",
						Data: map[string]interface{}{
							"company_name": brand.Name,
							"company_url":  brand.URL,
							"triggered_by": "daily_scheduler",
						},
					}
					return p.client.Send(ctx, evt)
				})
				if err != nil {
					// Keep going: one brand's failed send must not block the rest
					fmt.Printf("Warning: Failed to send analysis event for %s: %v\n", brand.Name, err)
				}
			}

			return map[string]interface{}{
				"execution_date": now.Format("2006-01-02"),
				"brands_found":   len(brands),
				"message":        fmt.Sprintf("Triggered re-analysis for %d brands", len(brands)),
			}, nil
		},
	)

	if err != nil {
		fmt.Printf("Failed to create daily reanalysis function: %v\n", err)
	}

	return fn
}
