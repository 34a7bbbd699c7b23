package tokenlist

import (
	"context"
	"fmt"
	"sync"

	clierr "github.com/ggonzalez94/defi-explorer/internal/errors"
	"github.com/ggonzalez94/defi-explorer/internal/id"
	"github.com/ggonzalez94/defi-explorer/internal/model"
)

// Constructor builds the Source for one chain.
type Constructor func(chainID int64) (Source, error)

// Registry hands out one Source per chain, built on first use and kept for
// the life of the process.
type Registry struct {
	mu      sync.Mutex
	sources map[int64]Source
	build   Constructor
}

// NewRegistry uses build, or the bundled Catalog when build is nil.
func NewRegistry(build Constructor) *Registry {
	if build == nil {
		build = func(chainID int64) (Source, error) {
			return NewCatalog(chainID), nil
		}
	}
	return &Registry{
		sources: make(map[int64]Source),
		build:   build,
	}
}

func (r *Registry) Source(chainID int64) (Source, error) {
	if _, ok := id.ChainByID(chainID); !ok {
		return nil, clierr.New(clierr.CodeUnsupported, fmt.Sprintf("unsupported chain id: %d", chainID))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if src, ok := r.sources[chainID]; ok {
		return src, nil
	}
	src, err := r.build(chainID)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, "build token source", err)
	}
	r.sources[chainID] = src
	return src, nil
}

// List resolves the chain's Source and returns its tokens narrowed by q.
func (r *Registry) List(ctx context.Context, chainID int64, q Query) ([]model.Token, error) {
	src, err := r.Source(chainID)
	if err != nil {
		return nil, err
	}
	var tokens []model.Token
	if q.Protocol != "" {
		tokens, err = ProtocolTokens(ctx, src, q.Protocol)
	} else {
		tokens, err = src.AllGeneralTokens(ctx)
	}
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, "list tokens", err)
	}
	out := Filter(tokens, Query{BuildingBlock: q.BuildingBlock, Search: q.Search})
	for i := range out {
		if out[i].LogoURL == "" {
			out[i].LogoURL = LogoURL(chainID, out[i].Address)
		}
	}
	return out, nil
}
