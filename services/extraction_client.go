// services/extraction_client.go
package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/DeividasMat/firegeo/internal/config"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const extractionModel = "gpt-4.1-mini"

type extractionClient struct {
	client      *openai.Client
	model       string
	costService CostService
}

// NewExtractionClient creates the structured-output client used by the
// discovery and interpreter services. All extraction runs through OpenAI
// regardless of which provider produced the raw answer.
func NewExtractionClient(cfg *config.Config, costService CostService) ExtractionClient {
	fmt.Printf("[NewExtractionClient] Creating client with OpenAI key (length: %d)\n", len(cfg.OpenAIAPIKey))

	client := openai.NewClient(
		option.WithAPIKey(cfg.OpenAIAPIKey),
	)

	return &extractionClient{
		client:      &client,
		model:       extractionModel,
		costService: costService,
	}
}

func (c *extractionClient) ExtractStructured(ctx context.Context, schemaName, description, systemPrompt, prompt string, schema interface{}) (*ExtractionResult, error) {
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        schemaName,
		Description: openai.String(description),
		Schema:      schema,
		Strict:      openai.Bool(true),
	}

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		Model:       openai.ChatModel(c.model),
		Temperature: openai.Float(0.3), // Keep low for consistency in extraction
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schemaParam},
		},
	}

	chatResponse, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrProviderCall, schemaName, err)
	}

	if len(chatResponse.Choices) == 0 {
		return nil, fmt.Errorf("%w: no response choices returned from OpenAI", ErrEmptyResponse)
	}

	content := chatResponse.Choices[0].Message.Content

	// Verify the payload is well-formed JSON before handing it back; strict
	// mode should guarantee this but refusals come through as plain text.
	if !json.Valid([]byte(content)) {
		return nil, fmt.Errorf("%w: %s: response is not valid JSON", ErrSchemaValidation, schemaName)
	}

	inputTokens := int(chatResponse.Usage.PromptTokens)
	outputTokens := int(chatResponse.Usage.CompletionTokens)

	return &ExtractionResult{
		Raw:          json.RawMessage(content),
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalCost:    c.costService.CalculateCost("OpenAI", c.model, inputTokens, outputTokens),
	}, nil
}
