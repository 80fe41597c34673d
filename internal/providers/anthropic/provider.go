// internal/providers/anthropic/provider.go
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/DeividasMat/firegeo/internal/config"
	"github.com/DeividasMat/firegeo/internal/providers/common"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Provider answers prompts through the Anthropic messages API
type Provider struct {
	client *anthropic.Client
	model  string
	costs  common.CostCalculator
}

func NewProvider(cfg *config.Config, model string, costs common.CostCalculator) *Provider {
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.AnthropicAPIKey),
	)

	fmt.Printf("[NewAnthropicProvider] ✅ Using Anthropic model %s\n", model)

	return &Provider{
		client: &client,
		model:  model,
		costs:  costs,
	}
}

func (p *Provider) Name() string {
	return "Anthropic"
}

func (p *Provider) Model() string {
	return p.model
}

func (p *Provider) GenerateText(ctx context.Context, req common.TextRequest) (*common.TextResponse, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2000
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{{
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: req.UserPrompt},
			}},
			Role: anthropic.MessageParamRoleUser,
		}},
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	response, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic message failed: %w", err)
	}

	inputTokens := int(response.Usage.InputTokens)
	outputTokens := int(response.Usage.OutputTokens)

	return &common.TextResponse{
		Text:         extractResponseText(*response),
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Cost:         p.costs.CalculateCost("anthropic", p.model, inputTokens, outputTokens),
	}, nil
}

// extractResponseText joins the text blocks of a message response
func extractResponseText(response anthropic.Message) string {
	var textParts []string

	for _, block := range response.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			textParts = append(textParts, variant.Text)
		}
	}

	return strings.Join(textParts, "")
}
