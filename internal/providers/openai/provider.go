// internal/providers/openai/provider.go
package openai

import (
	"context"
	"fmt"

	"github.com/DeividasMat/firegeo/internal/config"
	"github.com/DeividasMat/firegeo/internal/providers/common"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Provider answers prompts through the OpenAI chat completions API
type Provider struct {
	client *openai.Client
	model  string
	costs  common.CostCalculator
}

func NewProvider(cfg *config.Config, model string, costs common.CostCalculator) *Provider {
	client := openai.NewClient(
		option.WithAPIKey(cfg.OpenAIAPIKey),
	)

	fmt.Printf("[NewOpenAIProvider] ✅ Using OpenAI model %s\n", model)

	return &Provider{
		client: &client,
		model:  model,
		costs:  costs,
	}
}

func (p *Provider) Name() string {
	return "OpenAI"
}

func (p *Provider) Model() string {
	return p.model
}

func (p *Provider) GenerateText(ctx context.Context, req common.TextRequest) (*common.TextResponse, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.UserPrompt))

	params := openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       openai.ChatModel(p.model),
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	chatResponse, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion failed: %w", err)
	}

	if len(chatResponse.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned from OpenAI")
	}

	inputTokens := int(chatResponse.Usage.PromptTokens)
	outputTokens := int(chatResponse.Usage.CompletionTokens)

	return &common.TextResponse{
		Text:         chatResponse.Choices[0].Message.Content,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Cost:         p.costs.CalculateCost("openai", p.model, inputTokens, outputTokens),
	}, nil
}
