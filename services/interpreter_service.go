// services/interpreter_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/DeividasMat/firegeo/internal/detect"
	"github.com/DeividasMat/firegeo/internal/models"
	"github.com/DeividasMat/firegeo/internal/providers"
	"github.com/DeividasMat/firegeo/internal/providers/common"
	"golang.org/x/net/publicsuffix"
	"mvdan.cc/xurls/v2"
)

type interpreterService struct {
	extraction ExtractionClient
	registry   *providers.Registry
}

// NewInterpreterService creates the service that turns raw provider answers
// into structured AnalysisResults. The registry is used for the simplified
// follow-up question when structured extraction fails.
func NewInterpreterService(extraction ExtractionClient, registry *providers.Registry) InterpreterService {
	return &interpreterService{
		extraction: extraction,
		registry:   registry,
	}
}

// outcomeKind tags which interpretation strategy produced the outcome
type outcomeKind int

const (
	outcomeStructured outcomeKind = iota
	outcomeSimpleText
	outcomeHeuristicOnly
)

// analysisOutcome is the tagged union threaded through the escalation
// ladder. Each variant carries exactly what buildResult needs.
type analysisOutcome struct {
	kind       outcomeKind
	structured *ResponseAnalysisExtraction
	simple     *simpleAnswer
	cost       float64
}

// simpleAnswer is the parsed form of the free-text follow-up question
type simpleAnswer struct {
	mentioned bool
	sentiment string
	rankings  []models.Ranking
}

type interpretStep func(ctx context.Context) (*analysisOutcome, error)

// tryInOrder runs steps until one succeeds. The ladder is ordered by
// evidence quality; the last step must not fail.
func tryInOrder(ctx context.Context, steps ...interpretStep) (*analysisOutcome, error) {
	var lastErr error
	for _, step := range steps {
		outcome, err := step(ctx)
		if err == nil {
			return outcome, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// InterpretResponse runs the escalation ladder over one raw answer:
// structured extraction, then a simplified follow-up question, then the
// pure entity detector. Detector results are always unioned in regardless
// of which stage succeeded.
func (s *interpreterService) InterpretResponse(ctx context.Context, provider, prompt, rawText string, brand models.Company, competitors []models.Company) (*InterpretationResult, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, fmt.Errorf("%w: provider %s returned no text for prompt", ErrEmptyResponse, provider)
	}

	outcome, err := tryInOrder(ctx,
		func(ctx context.Context) (*analysisOutcome, error) {
			return s.extractStructured(ctx, rawText, brand, competitors)
		},
		func(ctx context.Context) (*analysisOutcome, error) {
			return s.extractSimpleText(ctx, provider, rawText, brand, competitors)
		},
		func(ctx context.Context) (*analysisOutcome, error) {
			// Heuristic fallback cannot fail
			return &analysisOutcome{kind: outcomeHeuristicOnly}, nil
		},
	)
	if err != nil {
		return nil, err
	}

	result := s.buildResult(outcome, provider, prompt, rawText, brand, competitors)
	return &InterpretationResult{Result: result, TotalCost: outcome.cost}, nil
}

// extractStructured is ladder stage 1: schema-constrained extraction
func (s *interpreterService) extractStructured(ctx context.Context, rawText string, brand models.Company, competitors []models.Company) (*analysisOutcome, error) {
	competitorNames := make([]string, 0, len(competitors))
	for _, c := range competitors {
		competitorNames = append(competitorNames, c.Name)
	}

	prompt := fmt.Sprintf(`Analyze the following AI assistant response with respect to the target brand.

Target brand: %s
Known competitors: %s

Extract:
1. Any ranked list of companies in the response, preserving position numbers and company names exactly as written
2. Whether the target brand is specifically mentioned (be strict: ignore generic terms and similarly named entities)
3. The target brand's rank position if it appears in a ranking, 0 otherwise
4. Competitor names mentioned anywhere in the response
5. Overall sentiment toward the target brand: positive, neutral, or negative
6. Your confidence in this analysis between 0 and 1

RESPONSE TO ANALYZE:
%s`, brand.Name, strings.Join(competitorNames, ", "), rawText)

	extraction, err := s.extraction.ExtractStructured(ctx,
		"response_analysis",
		"Extract rankings and brand mentions from an AI response",
		"You are an expert text analysis and extraction specialist for brand visibility research.",
		prompt,
		GenerateSchema[ResponseAnalysisExtraction]())
	if err != nil {
		fmt.Printf("[InterpretResponse] ⚠️ Structured extraction failed, escalating: %v\n", err)
		return nil, err
	}

	var extracted ResponseAnalysisExtraction
	if err := json.Unmarshal(extraction.Raw, &extracted); err != nil {
		fmt.Printf("[InterpretResponse] ⚠️ Structured payload did not parse, escalating: %v\n", err)
		return nil, fmt.Errorf("%w: response_analysis: %v", ErrSchemaValidation, err)
	}

	return &analysisOutcome{
		kind:       outcomeStructured,
		structured: &extracted,
		cost:       extraction.TotalCost,
	}, nil
}

// extractSimpleText is ladder stage 2: a plain follow-up question against
// the provider that produced the answer, parsed with line heuristics.
func (s *interpreterService) extractSimpleText(ctx context.Context, provider, rawText string, brand models.Company, competitors []models.Company) (*analysisOutcome, error) {
	p := s.registry.Get(provider)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrProviderUnavailable, provider)
	}

	question := fmt.Sprintf(`Answer the following questions about the text below, one answer per line.

1. Is %s mentioned in the text? Answer yes or no.
2. If the text ranks companies, list them one per line as "position. company name". Otherwise write "no ranking".
3. What is the sentiment toward %s? Answer positive, neutral, or negative.

TEXT:
%s`, brand.Name, brand.Name, rawText)

	resp, err := p.GenerateText(ctx, common.TextRequest{
		UserPrompt:  question,
		Temperature: 0.1,
		MaxTokens:   500,
	})
	if err != nil {
		fmt.Printf("[InterpretResponse] ⚠️ Simplified extraction failed, escalating: %v\n", err)
		return nil, fmt.Errorf("%w: %s: %v", ErrProviderCall, provider, err)
	}
	if strings.TrimSpace(resp.Text) == "" {
		return nil, fmt.Errorf("%w: %s follow-up", ErrEmptyResponse, provider)
	}

	return &analysisOutcome{
		kind:   outcomeSimpleText,
		simple: parseSimpleAnswer(resp.Text),
		cost:   resp.Cost,
	}, nil
}

// parseSimpleAnswer applies the line heuristics for ladder stage 2
func parseSimpleAnswer(text string) *simpleAnswer {
	answer := &simpleAnswer{sentiment: models.SentimentNeutral}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)

		if containsToken(lower, "yes") {
			answer.mentioned = true
		}
		if strings.Contains(lower, "positive") {
			answer.sentiment = models.SentimentPositive
		} else if strings.Contains(lower, "negative") {
			answer.sentiment = models.SentimentNegative
		}

		if pos, company, ok := parseRankedLine(line); ok {
			answer.rankings = append(answer.rankings, models.Ranking{Position: pos, Company: company})
		}
	}
	return answer
}

// parseRankedLine parses lines shaped like "2. Acme" or "2) Acme"
func parseRankedLine(line string) (int, string, bool) {
	sep := strings.IndexAny(line, ".)")
	if sep <= 0 {
		return 0, "", false
	}
	pos, err := strconv.Atoi(strings.TrimSpace(line[:sep]))
	if err != nil || pos <= 0 {
		return 0, "", false
	}
	company := strings.TrimSpace(line[sep+1:])
	if company == "" {
		return 0, "", false
	}
	return pos, company, true
}

func containsToken(lower, token string) bool {
	for _, field := range strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	}) {
		if field == token {
			return true
		}
	}
	return false
}

// buildResult merges the ladder outcome with independent entity detector
// runs over the raw text. The detector is always consulted: structured
// output under-reports mentions embedded in comparisons and lists.
func (s *interpreterService) buildResult(outcome *analysisOutcome, provider, prompt, rawText string, brand models.Company, competitors []models.Company) *models.AnalysisResult {
	opts := detect.DefaultOptions()
	brandDetection := detect.Detect(rawText, brand.Name, opts)

	competitorNames := make([]string, 0, len(competitors))
	for _, c := range competitors {
		competitorNames = append(competitorNames, c.Name)
	}
	competitorDetections := detect.DetectMultiple(rawText, competitorNames, opts)

	result := &models.AnalysisResult{
		Provider:        provider,
		Prompt:          prompt,
		RawResponseText: rawText,
		Sentiment:       models.SentimentNeutral,
		Citations:       extractCitations(rawText, brand.URL),
		Timestamp:       time.Now(),
	}

	switch outcome.kind {
	case outcomeStructured:
		extracted := outcome.structured
		for _, r := range extracted.Rankings {
			result.Rankings = append(result.Rankings, models.Ranking{
				Position:  r.Position,
				Company:   r.Company,
				Sentiment: normalizeSentiment(r.Sentiment),
				Reason:    r.Reason,
			})
		}
		result.BrandMentioned = extracted.Analysis.BrandMentioned
		result.BrandPosition = extracted.Analysis.BrandPosition
		result.Sentiment = normalizeSentiment(extracted.Analysis.OverallSentiment)
		result.Confidence = clamp01(extracted.Analysis.Confidence)
		result.CompetitorsMentioned = append(result.CompetitorsMentioned, extracted.Analysis.Competitors...)

	case outcomeSimpleText:
		simple := outcome.simple
		result.Rankings = simple.rankings
		result.BrandMentioned = simple.mentioned
		result.Sentiment = simple.sentiment
		result.Confidence = 0.7

	case outcomeHeuristicOnly:
		result.Confidence = brandDetection.Confidence * 0.5
	}

	// Brand position from the ranked list when the outcome did not carry one
	if result.BrandPosition == 0 {
		brandKey := detect.NormalizeName(brand.Name)
		for _, r := range result.Rankings {
			if r.Position > 0 && detect.NormalizeName(r.Company) == brandKey {
				result.BrandPosition = r.Position
				result.BrandMentioned = true
				break
			}
		}
	}

	// Detector union: mentions found in the text always count
	if brandDetection.Mentioned {
		if !result.BrandMentioned && brandDetection.Confidence > result.Confidence && outcome.kind != outcomeHeuristicOnly {
			result.Confidence = brandDetection.Confidence
		}
		result.BrandMentioned = true
	}

	seen := make(map[string]bool, len(result.CompetitorsMentioned))
	merged := make([]string, 0, len(result.CompetitorsMentioned))
	for _, name := range result.CompetitorsMentioned {
		key := detect.NormalizeName(name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, name)
	}
	for _, c := range competitors {
		if detection, ok := competitorDetections[c.Name]; ok && detection.Mentioned {
			key := detect.NormalizeName(c.Name)
			if !seen[key] {
				seen[key] = true
				merged = append(merged, c.Name)
			}
		}
	}
	result.CompetitorsMentioned = merged

	return result
}

func normalizeSentiment(sentiment string) string {
	switch strings.ToLower(strings.TrimSpace(sentiment)) {
	case models.SentimentPositive:
		return models.SentimentPositive
	case models.SentimentNegative:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Image extensions to skip in citation extraction
var imageExtensions = []string{
	".png", ".jpg", ".jpeg", ".gif", ".bmp", ".svg", ".webp",
}

// extractCitations pulls source URLs out of a raw response. URLs on the
// brand's own domain are classified "primary", everything else "secondary".
func extractCitations(responseText, brandURL string) []models.Citation {
	var citations []models.Citation
	seenURLs := make(map[string]bool)

	// Strict() only finds URLs with a scheme
	matches := xurls.Strict().FindAllString(responseText, -1)

	for _, match := range matches {
		urlStr := strings.TrimSpace(match)

		u, err := url.Parse(urlStr)
		if err != nil {
			continue
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			continue
		}

		// Clean: drop "www.", strip UTM parameters, trim trailing slash
		u.Host = strings.TrimPrefix(u.Hostname(), "www.")
		q := u.Query()
		for param := range q {
			if strings.HasPrefix(strings.ToLower(param), "utm_") {
				q.Del(param)
			}
		}
		u.RawQuery = q.Encode()
		finalURL := strings.TrimRight(u.String(), "/")

		if finalURL == "" || seenURLs[finalURL] {
			continue
		}

		pathLower := strings.ToLower(u.Path)
		isImage := false
		for _, ext := range imageExtensions {
			if strings.HasSuffix(pathLower, ext) {
				isImage = true
				break
			}
		}
		if isImage {
			continue
		}

		citationType := "secondary"
		if brandURL != "" && sameBaseDomain(finalURL, brandURL) {
			citationType = "primary"
		}

		citations = append(citations, models.Citation{URL: finalURL, Type: citationType})
		seenURLs[finalURL] = true
	}

	return citations
}

// sameBaseDomain compares the eTLD+1 of two URLs
func sameBaseDomain(a, b string) bool {
	da, err := baseDomain(a)
	if err != nil {
		return false
	}
	db, err := baseDomain(b)
	if err != nil {
		return false
	}
	return da == db
}

func baseDomain(rawURL string) (string, error) {
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	hostname := strings.TrimPrefix(u.Hostname(), "www.")
	if hostname == "" {
		return "", fmt.Errorf("no hostname in %q", rawURL)
	}
	return publicsuffix.EffectiveTLDPlusOne(hostname)
}
