package providers

import (
	"context"

	"github.com/ggonzalez94/defi-explorer/internal/model"
)

type Provider interface {
	Info() model.ProviderInfo
}

// YieldProvider is a source of yield opportunities for a token.
//
// IsSupported must be pure. GetYield returns an empty slice and a nil error
// when the source has no data for the token. A non-nil error means the source
// could not be queried; the returned slice is then empty and the failure has
// already been logged by the provider.
type YieldProvider interface {
	Provider
	IsSupported(chainID int64) bool
	GetYield(ctx context.Context, tokenAddress string, chainID int64) ([]model.YieldData, error)
}
