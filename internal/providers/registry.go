// internal/providers/registry.go
package providers

import (
	"fmt"
	"strings"

	"github.com/DeividasMat/firegeo/internal/config"
	"github.com/DeividasMat/firegeo/internal/providers/anthropic"
	"github.com/DeividasMat/firegeo/internal/providers/common"
	"github.com/DeividasMat/firegeo/internal/providers/openai"
	"github.com/DeividasMat/firegeo/internal/providers/perplexity"
)

// Registry holds the providers that are actually configured (API key
// present). A provider missing from the registry is "unavailable" and must
// be skipped by callers, never treated as fatal.
type Registry struct {
	providers map[string]Provider
	order     []string
}

// NewRegistry builds the registry from config. Providers are registered in a
// fixed order so ListConfigured output is deterministic.
func NewRegistry(cfg *config.Config, costs common.CostCalculator) *Registry {
	r := &Registry{providers: make(map[string]Provider)}

	if cfg.OpenAIAPIKey != "" {
		r.Register(openai.NewProvider(cfg, "gpt-4.1", costs))
	}
	if cfg.AnthropicAPIKey != "" {
		r.Register(anthropic.NewProvider(cfg, "claude-sonnet-4-20250514", costs))
	}
	if cfg.PerplexityAPIKey != "" {
		r.Register(perplexity.NewProvider(cfg, "sonar", costs))
	}

	fmt.Printf("[NewRegistry] %d providers configured: %s\n", len(r.order), strings.Join(r.order, ", "))
	return r
}

// Register adds a provider. Later registrations under the same name replace
// earlier ones, which is what tests use to install mocks.
func (r *Registry) Register(p Provider) {
	key := strings.ToLower(p.Name())
	if _, exists := r.providers[key]; !exists {
		r.order = append(r.order, p.Name())
	}
	r.providers[key] = p
}

// ListConfigured returns every configured provider in registration order
func (r *Registry) ListConfigured() []Provider {
	out := make([]Provider, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.providers[strings.ToLower(name)])
	}
	return out
}

// Get returns the provider with the given display name, or nil when that
// provider is not configured. Lookup is case-insensitive.
func (r *Registry) Get(name string) Provider {
	return r.providers[strings.ToLower(name)]
}
