// Package yield aggregates yield opportunities from every provider that
// supports a chain and caches the merged result per token.
package yield

import (
	"github.com/ggonzalez94/defi-explorer/internal/providers"
)

// Factory maps a chain id to the providers that can serve it. The provider
// list is fixed at construction.
type Factory struct {
	known     map[int64]struct{}
	providers []providers.YieldProvider
}

// NewFactory registers list in order. Chain ids outside knownChains are
// rejected without consulting any provider; an empty knownChains disables
// that check.
func NewFactory(knownChains []int64, list ...providers.YieldProvider) *Factory {
	f := &Factory{
		providers: make([]providers.YieldProvider, 0, len(list)),
	}
	if len(knownChains) > 0 {
		f.known = make(map[int64]struct{}, len(knownChains))
		for _, chainID := range knownChains {
			f.known[chainID] = struct{}{}
		}
	}
	for _, p := range list {
		if p != nil {
			f.providers = append(f.providers, p)
		}
	}
	return f
}

func (f *Factory) ProvidersForChain(chainID int64) []providers.YieldProvider {
	if f.known != nil {
		if _, ok := f.known[chainID]; !ok {
			return nil
		}
	}
	out := make([]providers.YieldProvider, 0, len(f.providers))
	for _, p := range f.providers {
		if p.IsSupported(chainID) {
			out = append(out, p)
		}
	}
	return out
}

func (f *Factory) Providers() []providers.YieldProvider {
	out := make([]providers.YieldProvider, len(f.providers))
	copy(out, f.providers)
	return out
}
