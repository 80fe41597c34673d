// services/helpers_test.go
package services_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/DeividasMat/firegeo/internal/config"
	"github.com/DeividasMat/firegeo/internal/providers"
	"github.com/DeividasMat/firegeo/internal/providers/testutil"
	"github.com/DeividasMat/firegeo/services"
	"github.com/google/uuid"
)

func newTestUUID(t *testing.T) uuid.UUID {
	t.Helper()
	return uuid.New()
}

// stubExtractionClient serves canned structured-output payloads keyed by
// schema name. A nil payload map with Err set fails every call.
type stubExtractionClient struct {
	Payloads map[string]string
	Err      error
	Calls    []string
}

func (s *stubExtractionClient) ExtractStructured(ctx context.Context, schemaName, description, systemPrompt, prompt string, schema interface{}) (*services.ExtractionResult, error) {
	s.Calls = append(s.Calls, schemaName)
	if s.Err != nil {
		return nil, s.Err
	}
	payload, ok := s.Payloads[schemaName]
	if !ok {
		return nil, fmt.Errorf("%w: no canned payload for %s", services.ErrSchemaValidation, schemaName)
	}
	return &services.ExtractionResult{
		Raw:          json.RawMessage(payload),
		InputTokens:  10,
		OutputTokens: 20,
		TotalCost:    0.001,
	}, nil
}

// emptyRegistry returns a registry with no providers configured
func emptyRegistry() *providers.Registry {
	return providers.NewRegistry(&config.Config{}, testutil.NewMockCostCalculator())
}

// mockRegistry returns a registry holding only the given mock providers
func mockRegistry(mocks ...*testutil.MockProvider) *providers.Registry {
	r := emptyRegistry()
	for _, m := range mocks {
		r.Register(m)
	}
	return r
}

// analysisTestConfig returns run settings small enough for fast tests
func analysisTestConfig() *config.Config {
	cfg := testutil.SampleConfig()
	cfg.Analysis = config.AnalysisConfig{
		ProviderTimeout:    5 * time.Second,
		RunTimeout:         30 * time.Second,
		MaxConcurrentCalls: 3,
		MaxPrompts:         4,
		MaxCompetitors:     5,
	}
	return cfg
}
