// services/analysis_service.go
package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/DeividasMat/firegeo/internal/config"
	"github.com/DeividasMat/firegeo/internal/models"
	"github.com/DeividasMat/firegeo/internal/providers"
	"github.com/DeividasMat/firegeo/internal/providers/common"
	"github.com/google/uuid"
)

type analysisService struct {
	cfg         *config.Config
	registry    *providers.Registry
	discovery   DiscoveryService
	interpreter InterpreterService
	aggregator  AggregatorService
	scorer      ScorerService
}

// NewAnalysisService wires the full pipeline: discovery, the prompt×provider
// matrix, interpretation, aggregation and scoring.
func NewAnalysisService(cfg *config.Config, registry *providers.Registry, discovery DiscoveryService, interpreter InterpreterService, aggregator AggregatorService, scorer ScorerService) AnalysisService {
	return &analysisService{
		cfg:         cfg,
		registry:    registry,
		discovery:   discovery,
		interpreter: interpreter,
		aggregator:  aggregator,
		scorer:      scorer,
	}
}

// AnalyzeBrand runs the full pipeline for one brand. Individual provider
// failures reduce coverage; only a missing provider configuration is fatal
// before any work starts. When every unit fails the run still completes
// with an all-zero summary and a terminal error event on the sink.
func (s *analysisService) AnalyzeBrand(ctx context.Context, req models.AnalysisRequest, sink ProgressSink) (*models.Analysis, error) {
	if sink == nil {
		sink = NewLogSink()
	}
	if len(s.registry.ListConfigured()) == 0 {
		return nil, ErrNoProvidersConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Analysis.RunTimeout)
	defer cancel()

	fmt.Printf("[AnalyzeBrand] 🚀 Starting analysis for %s\n", req.Company.Name)
	totalCost := 0.0

	// Stage 1: competitor discovery, skipped when the caller supplied them
	competitors := req.Competitors
	if len(competitors) == 0 {
		sink.Emit(newProgressEvent(models.EventStageStart, models.StageDiscoveringCompetitors, nil))
		discovered, err := s.discovery.DiscoverCompetitors(ctx, req.Company, s.cfg.Analysis.MaxCompetitors)
		if err != nil {
			// Reduced coverage, not fatal: the brand can still be scored
			// against its own mentions.
			fmt.Printf("[AnalyzeBrand] ⚠️ Competitor discovery failed, continuing without: %v\n", err)
		} else {
			competitors = discovered.Competitors
			totalCost += discovered.TotalCost
		}
		sink.Emit(newProgressEvent(models.EventStageComplete, models.StageDiscoveringCompetitors, map[string]interface{}{
			"competitors": len(competitors),
		}))
	}

	// Stage 2: prompt generation, skipped when the caller supplied prompts
	prompts := req.Prompts
	if len(prompts) == 0 {
		sink.Emit(newProgressEvent(models.EventStageStart, models.StageGeneratingPrompts, nil))
		generated, err := s.discovery.GeneratePrompts(ctx, req.Company, competitors, s.cfg.Analysis.MaxPrompts)
		if err != nil {
			return nil, fmt.Errorf("prompt generation failed: %w", err)
		}
		prompts = generated.Prompts
		totalCost += generated.TotalCost
		sink.Emit(newProgressEvent(models.EventStageComplete, models.StageGeneratingPrompts, map[string]interface{}{
			"prompts":       len(prompts),
			"used_fallback": generated.UsedFallback,
		}))
	}

	// Stage 3: the prompt×provider matrix
	sink.Emit(newProgressEvent(models.EventStageStart, models.StageAnalyzingPrompts, map[string]interface{}{
		"prompts":   len(prompts),
		"providers": len(s.registry.ListConfigured()),
	}))
	run, err := s.RunPromptMatrix(ctx, req.Company, competitors, prompts, sink)
	if err != nil {
		return nil, err
	}
	totalCost += run.TotalCost
	sink.Emit(newProgressEvent(models.EventStageComplete, models.StageAnalyzingPrompts, map[string]interface{}{
		"results":      len(run.Results),
		"failed_units": len(run.FailedUnits),
	}))

	analysis := s.BuildReport(run, req.Company, competitors, prompts)
	analysis.TotalCost = round1Cost(totalCost)

	// Emit aggregation/scoring stages around the pure computations so a
	// streaming consumer sees the full state machine.
	sink.Emit(newProgressEvent(models.EventStageStart, models.StageAggregating, nil))
	sink.Emit(newProgressEvent(models.EventStageComplete, models.StageAggregating, map[string]interface{}{
		"companies": len(analysis.Rankings),
	}))
	sink.Emit(newProgressEvent(models.EventStageStart, models.StageScoring, nil))
	sink.Emit(newProgressEvent(models.EventStageComplete, models.StageScoring, map[string]interface{}{
		"overall_score": analysis.Summary.OverallScore,
	}))

	if len(run.Results) == 0 {
		// Every unit failed. The run still reports a valid all-zero
		// summary; the terminal error event tells streaming consumers why.
		sink.Emit(newProgressEvent(models.EventError, models.StageError, map[string]interface{}{
			"reason":       "all provider calls failed",
			"failed_units": run.FailedUnits,
		}))
		fmt.Printf("[AnalyzeBrand] ⚠️ Analysis for %s completed with zero results (%d failed units)\n", req.Company.Name, len(run.FailedUnits))
		return analysis, nil
	}

	sink.Emit(newProgressEvent(models.EventStageComplete, models.StageDone, map[string]interface{}{
		"analysis_id": analysis.AnalysisID.String(),
	}))
	fmt.Printf("[AnalyzeBrand] ✅ Analysis for %s complete: %d results, overall score %.1f\n",
		req.Company.Name, len(run.Results), analysis.Summary.OverallScore)
	return analysis, nil
}

// matrixJob is one prompt×provider unit of work
type matrixJob struct {
	prompt   models.BrandPrompt
	provider providers.Provider
}

type matrixJobResult struct {
	result     *models.AnalysisResult
	failedUnit string
	cost       float64
}

// RunPromptMatrix runs every prompt against every configured provider with
// bounded concurrency. Units are independent: a failed unit is recorded and
// skipped. Cancellation stops new calls; completed results stay valid.
func (s *analysisService) RunPromptMatrix(ctx context.Context, company models.Company, competitors []models.Company, prompts []models.BrandPrompt, sink ProgressSink) (*PromptRunResult, error) {
	if sink == nil {
		sink = NewLogSink()
	}
	configured := s.registry.ListConfigured()
	if len(configured) == 0 {
		return nil, ErrNoProvidersConfigured
	}

	jobs := make([]matrixJob, 0, len(prompts)*len(configured))
	for _, prompt := range prompts {
		for _, provider := range configured {
			jobs = append(jobs, matrixJob{prompt: prompt, provider: provider})
		}
	}
	fmt.Printf("[RunPromptMatrix] Executing %d units (%d prompts × %d providers, concurrency=%d)\n",
		len(jobs), len(prompts), len(configured), s.cfg.Analysis.MaxConcurrentCalls)

	jobsCh := make(chan matrixJob)
	resultsCh := make(chan matrixJobResult, len(jobs))
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for job := range jobsCh {
			if ctx.Err() != nil {
				// Cancelled: stop issuing calls, leave remaining jobs unreported
				continue
			}
			resultsCh <- s.runUnit(ctx, job, company, competitors, sink)
		}
	}

	workers := s.cfg.Analysis.MaxConcurrentCalls
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go worker()
	}
	for _, job := range jobs {
		jobsCh <- job
	}
	close(jobsCh)
	wg.Wait()
	close(resultsCh)

	run := &PromptRunResult{}
	for r := range resultsCh {
		run.TotalCost += r.cost
		if r.failedUnit != "" {
			run.FailedUnits = append(run.FailedUnits, r.failedUnit)
			continue
		}
		run.Results = append(run.Results, r.result)
	}
	sort.Strings(run.FailedUnits)

	fmt.Printf("[RunPromptMatrix] ✅ %d results, %d failed units\n", len(run.Results), len(run.FailedUnits))
	return run, nil
}

// runUnit executes one prompt against one provider and interprets the answer
func (s *analysisService) runUnit(ctx context.Context, job matrixJob, company models.Company, competitors []models.Company, sink ProgressSink) matrixJobResult {
	unit := fmt.Sprintf("%s/%s", job.provider.Name(), job.prompt.ID)
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Analysis.ProviderTimeout)
	defer cancel()

	resp, err := job.provider.GenerateText(callCtx, common.TextRequest{
		UserPrompt:  job.prompt.Prompt,
		Temperature: 0.7,
		MaxTokens:   1000,
	})
	if err != nil {
		fmt.Printf("[RunPromptMatrix] ⚠️ Unit %s failed: %v\n", unit, err)
		s.emitUnitProgress(sink, job, "failed")
		return matrixJobResult{failedUnit: unit}
	}

	interpreted, err := s.interpreter.InterpretResponse(callCtx, job.provider.Name(), job.prompt.Prompt, resp.Text, company, competitors)
	if err != nil {
		fmt.Printf("[RunPromptMatrix] ⚠️ Unit %s interpretation failed: %v\n", unit, err)
		s.emitUnitProgress(sink, job, "failed")
		return matrixJobResult{failedUnit: unit, cost: resp.Cost}
	}

	s.emitUnitProgress(sink, job, "completed")
	return matrixJobResult{
		result: interpreted.Result,
		cost:   resp.Cost + interpreted.TotalCost,
	}
}

func (s *analysisService) emitUnitProgress(sink ProgressSink, job matrixJob, status string) {
	sink.Emit(newProgressEvent(models.EventAnalysisProgress, models.StageAnalyzingPrompts, map[string]interface{}{
		"prompt_id": job.prompt.ID.String(),
		"prompt":    job.prompt.Prompt,
		"provider":  job.provider.Name(),
		"status":    status,
	}))
}

// BuildReport folds the matrix results into the finished analysis. It is
// synchronous and pure apart from timestamps and the generated ID.
func (s *analysisService) BuildReport(run *PromptRunResult, company models.Company, competitors []models.Company, prompts []models.BrandPrompt) *models.Analysis {
	rankings := s.aggregator.Aggregate(run.Results, company, competitors)
	providerRankings := s.aggregator.AggregateByProvider(run.Results, company, competitors)
	comparison := s.aggregator.BuildProviderComparison(providerRankings)

	var brandRanking *models.CompetitorRanking
	for i := range rankings {
		if rankings[i].IsOwn {
			brandRanking = &rankings[i]
			break
		}
	}

	providersUsed := make([]string, 0, len(providerRankings))
	for _, pr := range providerRankings {
		providersUsed = append(providersUsed, pr.Provider)
	}

	return &models.Analysis{
		AnalysisID:         uuid.New(),
		Company:            company,
		Competitors:        competitors,
		Prompts:            prompts,
		Results:            run.Results,
		Rankings:           rankings,
		ProviderRankings:   providerRankings,
		ProviderComparison: comparison,
		Summary:            s.scorer.Score(brandRanking, len(run.Results)),
		ProvidersUsed:      providersUsed,
		FailedUnits:        run.FailedUnits,
		TotalCost:          run.TotalCost,
		CreatedAt:          time.Now(),
	}
}

// round1Cost keeps reported dollar costs at sub-cent precision
func round1Cost(cost float64) float64 {
	return float64(int(cost*10000+0.5)) / 10000
}
