// services/discovery_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/DeividasMat/firegeo/internal/config"
	"github.com/DeividasMat/firegeo/internal/detect"
	"github.com/DeividasMat/firegeo/internal/models"
	"github.com/google/uuid"
)

type discoveryService struct {
	cfg        *config.Config
	extraction ExtractionClient
}

// NewDiscoveryService creates the service that finds competitors for a
// brand and generates the prompt set.
func NewDiscoveryService(cfg *config.Config, extraction ExtractionClient) DiscoveryService {
	return &discoveryService{
		cfg:        cfg,
		extraction: extraction,
	}
}

// DiscoverCompetitors asks the extraction model for direct competitors of
// the company. The brand itself and duplicate names are filtered out; the
// list is capped at maxCompetitors.
func (s *discoveryService) DiscoverCompetitors(ctx context.Context, company models.Company, maxCompetitors int) (*CompetitorDiscoveryResult, error) {
	fmt.Printf("[DiscoverCompetitors] 🔍 Discovering competitors for %s\n", company.Name)

	industry := company.Industry
	if industry == "" {
		industry = "its market"
	}

	prompt := fmt.Sprintf(`Identify the direct competitors of the following company.

Company: %s
Website: %s
Industry: %s
Description: %s

Rules:
- Only include real companies that compete in the same market
- Do NOT include the company itself
- Include the competitor's homepage URL when you know it, otherwise leave it empty
- Order by how directly they compete, strongest competitor first
- Return at most %d competitors`,
		company.Name, company.URL, industry, company.Description, maxCompetitors)

	result, err := s.extraction.ExtractStructured(ctx,
		"competitor_discovery",
		"Identify direct competitors of a company",
		"You are a market research analyst. Identify real, direct competitors of the given company.",
		prompt,
		GenerateSchema[CompetitorListResponse]())
	if err != nil {
		return nil, fmt.Errorf("competitor discovery failed: %w", err)
	}

	var extracted CompetitorListResponse
	if err := json.Unmarshal(result.Raw, &extracted); err != nil {
		return nil, fmt.Errorf("%w: competitor_discovery: %v", ErrSchemaValidation, err)
	}

	brandKey := detect.NormalizeName(company.Name)
	seen := map[string]bool{brandKey: true}
	competitors := make([]models.Company, 0, len(extracted.Competitors))
	for _, c := range extracted.Competitors {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		key := detect.NormalizeName(name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		competitors = append(competitors, models.Company{Name: name, URL: strings.TrimSpace(c.URL)})
		if len(competitors) >= maxCompetitors {
			break
		}
	}

	fmt.Printf("[DiscoverCompetitors] ✅ Found %d competitors for %s\n", len(competitors), company.Name)
	return &CompetitorDiscoveryResult{
		Competitors: competitors,
		TotalCost:   result.TotalCost,
	}, nil
}

// GeneratePrompts produces the question set posed to every provider. The
// model call covers all four categories; when it fails the deterministic
// templates take over so an analysis never dies at this stage.
func (s *discoveryService) GeneratePrompts(ctx context.Context, company models.Company, competitors []models.Company, maxPrompts int) (*PromptGenerationResult, error) {
	fmt.Printf("[GeneratePrompts] 🔍 Generating prompts for %s\n", company.Name)

	competitorNames := make([]string, 0, len(competitors))
	for _, c := range competitors {
		competitorNames = append(competitorNames, c.Name)
	}

	industry := company.Industry
	if industry == "" {
		industry = "this market"
	}

	prompt := fmt.Sprintf(`Generate questions a potential buyer would ask an AI assistant when researching tools in %s.

Target company: %s
Known competitors: %s

Categories, use each at least once:
- ranking: asks for the best tools in the category
- comparison: compares the target company against a competitor
- alternatives: asks for alternatives to the target company
- recommendation: asks what to pick for a concrete use case

Rules:
- Phrase the questions the way a real user would, not like a survey
- Do NOT mention the target company in ranking questions
- Return at most %d prompts`,
		industry, company.Name, strings.Join(competitorNames, ", "), maxPrompts)

	result, err := s.extraction.ExtractStructured(ctx,
		"prompt_generation",
		"Generate buyer research questions for a product category",
		"You generate realistic buyer research questions for AI assistants.",
		prompt,
		GenerateSchema[PromptListResponse]())
	if err != nil {
		fmt.Printf("[GeneratePrompts] ⚠️ Model call failed, using fallback templates: %v\n", err)
		return &PromptGenerationResult{
			Prompts:      fallbackPrompts(company, competitors, maxPrompts),
			UsedFallback: true,
		}, nil
	}

	var extracted PromptListResponse
	if err := json.Unmarshal(result.Raw, &extracted); err != nil {
		fmt.Printf("[GeneratePrompts] ⚠️ Malformed prompt response, using fallback templates: %v\n", err)
		return &PromptGenerationResult{
			Prompts:      fallbackPrompts(company, competitors, maxPrompts),
			TotalCost:    result.TotalCost,
			UsedFallback: true,
		}, nil
	}

	prompts := make([]models.BrandPrompt, 0, len(extracted.Prompts))
	for _, p := range extracted.Prompts {
		text := strings.TrimSpace(p.Prompt)
		if text == "" {
			continue
		}
		prompts = append(prompts, models.BrandPrompt{
			ID:       uuid.New(),
			Prompt:   text,
			Category: normalizePromptCategory(p.Category),
		})
		if len(prompts) >= maxPrompts {
			break
		}
	}

	if len(prompts) == 0 {
		fmt.Printf("[GeneratePrompts] ⚠️ Model returned no usable prompts, using fallback templates\n")
		return &PromptGenerationResult{
			Prompts:      fallbackPrompts(company, competitors, maxPrompts),
			TotalCost:    result.TotalCost,
			UsedFallback: true,
		}, nil
	}

	fmt.Printf("[GeneratePrompts] ✅ Generated %d prompts for %s\n", len(prompts), company.Name)
	return &PromptGenerationResult{
		Prompts:   prompts,
		TotalCost: result.TotalCost,
	}, nil
}

func normalizePromptCategory(category string) string {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case models.PromptCategoryRanking:
		return models.PromptCategoryRanking
	case models.PromptCategoryComparison:
		return models.PromptCategoryComparison
	case models.PromptCategoryAlternatives:
		return models.PromptCategoryAlternatives
	case models.PromptCategoryRecommendation:
		return models.PromptCategoryRecommendation
	default:
		return models.PromptCategoryRecommendation
	}
}

// fallbackPrompts builds the deterministic template set used when prompt
// generation fails. One prompt per category, cycling until maxPrompts.
func fallbackPrompts(company models.Company, competitors []models.Company, maxPrompts int) []models.BrandPrompt {
	industry := company.Industry
	if industry == "" {
		industry = "this space"
	}
	competitor := "other tools"
	if len(competitors) > 0 {
		competitor = competitors[0].Name
	}

	templates := []models.BrandPrompt{
		{Prompt: fmt.Sprintf("What are the best tools in %s?", industry), Category: models.PromptCategoryRanking},
		{Prompt: fmt.Sprintf("How does %s compare to %s?", company.Name, competitor), Category: models.PromptCategoryComparison},
		{Prompt: fmt.Sprintf("What are the top alternatives to %s?", company.Name), Category: models.PromptCategoryAlternatives},
		{Prompt: fmt.Sprintf("Which tool should I pick for %s and why?", industry), Category: models.PromptCategoryRecommendation},
	}

	prompts := make([]models.BrandPrompt, 0, maxPrompts)
	for i := 0; len(prompts) < maxPrompts && i < len(templates); i++ {
		t := templates[i]
		t.ID = uuid.New()
		prompts = append(prompts, t)
	}
	return prompts
}
