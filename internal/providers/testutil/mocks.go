// internal/providers/testutil/mocks.go
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/DeividasMat/firegeo/internal/providers/common"
)

// MockCostCalculator is a mock cost calculator for tests
type MockCostCalculator struct {
	CalculateCostFunc func(provider, model string, inputTokens, outputTokens int) float64
}

func (m *MockCostCalculator) CalculateCost(provider, model string, inputTokens, outputTokens int) float64 {
	if m.CalculateCostFunc != nil {
		return m.CalculateCostFunc(provider, model, inputTokens, outputTokens)
	}
	return 0.0015 // Default mock cost
}

// NewMockCostCalculator creates a new mock cost calculator
func NewMockCostCalculator() *MockCostCalculator {
	return &MockCostCalculator{}
}

// MockProvider is a scriptable provider implementation for tests
type MockProvider struct {
	ProviderName     string
	ModelName        string
	GenerateTextFunc func(ctx context.Context, req common.TextRequest) (*common.TextResponse, error)
	Calls            []common.TextRequest
}

func (m *MockProvider) Name() string {
	if m.ProviderName == "" {
		return "MockProvider"
	}
	return m.ProviderName
}

func (m *MockProvider) Model() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}

func (m *MockProvider) GenerateText(ctx context.Context, req common.TextRequest) (*common.TextResponse, error) {
	m.Calls = append(m.Calls, req)
	if m.GenerateTextFunc != nil {
		return m.GenerateTextFunc(ctx, req)
	}
	return &common.TextResponse{Text: "mock response"}, nil
}

// NewMockProvider returns a provider that always answers with text
func NewMockProvider(name, text string) *MockProvider {
	return &MockProvider{
		ProviderName: name,
		GenerateTextFunc: func(ctx context.Context, req common.TextRequest) (*common.TextResponse, error) {
			return &common.TextResponse{Text: text, InputTokens: 10, OutputTokens: 20}, nil
		},
	}
}

// NewFailingProvider returns a provider whose every call fails
func NewFailingProvider(name string) *MockProvider {
	return &MockProvider{
		ProviderName: name,
		GenerateTextFunc: func(ctx context.Context, req common.TextRequest) (*common.TextResponse, error) {
			return nil, fmt.Errorf("provider %s is down", name)
		},
	}
}

// MockChatServer is a mock HTTP server speaking the chat-completions wire
// format used by the Perplexity provider.
type MockChatServer struct {
	Server     *httptest.Server
	Answer     string
	StatusCode int
}

func NewMockChatServer(answer string) *MockChatServer {
	mock := &MockChatServer{
		Answer:     answer,
		StatusCode: http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if mock.StatusCode != http.StatusOK {
			http.Error(w, "mock failure", mock.StatusCode)
			return
		}

		response := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": mock.Answer}},
			},
			"usage": map[string]int{
				"prompt_tokens":     12,
				"completion_tokens": 34,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	})

	mock.Server = httptest.NewServer(mux)
	return mock
}

// Close closes the mock server
func (m *MockChatServer) Close() {
	m.Server.Close()
}
