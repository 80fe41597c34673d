// internal/providers/perplexity/provider.go
package perplexity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/DeividasMat/firegeo/internal/config"
	"github.com/DeividasMat/firegeo/internal/providers/common"
)

const defaultBaseURL = "https://api.perplexity.ai"

// Provider answers prompts through the Perplexity chat completions API.
// Perplexity has no official Go SDK, so this speaks HTTP directly.
type Provider struct {
	apiKey     string
	model      string
	baseURL    string
	costs      common.CostCalculator
	httpClient *http.Client
}

func NewProvider(cfg *config.Config, model string, costs common.CostCalculator) *Provider {
	fmt.Printf("[NewPerplexityProvider] ✅ Using Perplexity model %s\n", model)

	return &Provider{
		apiKey:  cfg.PerplexityAPIKey,
		model:   model,
		baseURL: defaultBaseURL,
		costs:   costs,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

// NewProviderWithBaseURL is used by tests to point the provider at a mock server
func NewProviderWithBaseURL(cfg *config.Config, model, baseURL string, costs common.CostCalculator) *Provider {
	p := NewProvider(cfg, model, costs)
	p.baseURL = baseURL
	return p
}

func (p *Provider) Name() string {
	return "Perplexity"
}

func (p *Provider) Model() string {
	return p.model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (p *Provider) GenerateText(ctx context.Context, req common.TextRequest) (*common.TextResponse, error) {
	messages := []chatMessage{}
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.UserPrompt})

	body, err := json.Marshal(chatRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal perplexity request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build perplexity request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("perplexity call failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read perplexity response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("perplexity returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse perplexity response: %w", err)
	}

	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned from Perplexity")
	}

	return &common.TextResponse{
		Text:         parsed.Choices[0].Message.Content,
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
		Cost:         p.costs.CalculateCost("perplexity", p.model, parsed.Usage.PromptTokens, parsed.Usage.CompletionTokens),
	}, nil
}
