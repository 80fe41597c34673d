// internal/providers/provider.go
package providers

import (
	"context"

	"github.com/DeividasMat/firegeo/internal/providers/common"
)

// Provider is one configured model provider. Implementations wrap a vendor
// SDK or raw HTTP API and report usage through the cost calculator.
type Provider interface {
	Name() string  // canonical display name, e.g. "OpenAI"
	Model() string // model identifier used for calls and cost lookup
	GenerateText(ctx context.Context, req common.TextRequest) (*common.TextResponse, error)
}
