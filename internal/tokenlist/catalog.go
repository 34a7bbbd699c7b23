package tokenlist

import (
	"context"
	"sort"
	"strings"

	"github.com/ggonzalez94/defi-explorer/internal/id"
	"github.com/ggonzalez94/defi-explorer/internal/model"
)

// Building blocks a token can be tagged with.
const (
	BlockStablecoin   = "stablecoin"
	BlockWrapped      = "wrapped"
	BlockLiquidStake  = "liquid-staking"
	BlockGovernance   = "governance"
	BlockYieldBearing = "yield-bearing"
)

var buildingBlocksBySymbol = map[string][]string{
	"USDC":   {BlockStablecoin},
	"USDT":   {BlockStablecoin},
	"DAI":    {BlockStablecoin},
	"WETH":   {BlockWrapped},
	"WBTC":   {BlockWrapped},
	"WSTETH": {BlockLiquidStake, BlockYieldBearing},
	"ARB":    {BlockGovernance},
	"GMX":    {BlockGovernance, BlockYieldBearing},
	"PENDLE": {BlockGovernance},
}

// Protocol membership per chain, by token symbol.
var protocolSymbolsByChainID = map[int64]map[string][]string{
	1: {
		"AAVE":     {"USDC", "USDT", "DAI", "WETH"},
		"COMPOUND": {"USDC", "WETH"},
	},
	10: {
		"AAVE": {"USDC", "USDT", "DAI", "WETH"},
	},
	137: {
		"AAVE": {"USDC", "USDT", "WETH"},
	},
	8453: {
		"AAVE":     {"USDC", "WETH"},
		"COMPOUND": {"USDC", "WETH"},
	},
	42161: {
		"AAVE":     {"USDC", "USDT", "DAI", "WETH", "WBTC", "ARB", "WSTETH"},
		"COMPOUND": {"USDC", "USDT", "WETH"},
		"PENDLE":   {"USDC", "WSTETH", "PENDLE"},
		"GMX":      {"WETH", "WBTC", "GMX"},
	},
	43114: {
		"AAVE": {"USDC", "USDT"},
	},
}

// Catalog is the built-in Source backed by the bundled token registry.
type Catalog struct {
	chainID int64
	tokens  []model.Token
}

func NewCatalog(chainID int64) *Catalog {
	protocols := protocolSymbolsByChainID[chainID]
	raw := id.Tokens(chainID)
	tokens := make([]model.Token, 0, len(raw))
	for _, t := range raw {
		symbol := strings.ToUpper(t.Symbol)
		token := model.Token{
			ChainID:        chainID,
			Address:        t.Address,
			Symbol:         t.Symbol,
			Name:           t.Name,
			Decimals:       t.Decimals,
			BuildingBlocks: append([]string(nil), buildingBlocksBySymbol[symbol]...),
			LogoURL:        LogoURL(chainID, t.Address),
		}
		for protocol, symbols := range protocols {
			if containsFold(symbols, symbol) {
				token.Protocols = append(token.Protocols, protocol)
			}
		}
		sort.Strings(token.Protocols)
		tokens = append(tokens, token)
	}
	return &Catalog{chainID: chainID, tokens: tokens}
}

func (c *Catalog) ChainID() int64 { return c.chainID }

func (c *Catalog) AllGeneralTokens(context.Context) ([]model.Token, error) {
	return cloneTokens(c.tokens), nil
}

func (c *Catalog) TokensByProtocol(_ context.Context, protocolID string) ([]model.Token, error) {
	protocolID = normalizeProtocol(protocolID)
	out := make([]model.Token, 0)
	for _, t := range c.tokens {
		if containsFold(t.Protocols, protocolID) {
			out = append(out, cloneToken(t))
		}
	}
	return out, nil
}

func (c *Catalog) AaveTokens(ctx context.Context) ([]model.Token, error) {
	return c.TokensByProtocol(ctx, "AAVE")
}

func (c *Catalog) PendleTokens(ctx context.Context) ([]model.Token, error) {
	return c.TokensByProtocol(ctx, "PENDLE")
}

func (c *Catalog) CompoundTokens(ctx context.Context) ([]model.Token, error) {
	return c.TokensByProtocol(ctx, "COMPOUND")
}

func cloneTokens(in []model.Token) []model.Token {
	out := make([]model.Token, 0, len(in))
	for _, t := range in {
		out = append(out, cloneToken(t))
	}
	return out
}

func cloneToken(t model.Token) model.Token {
	t.Protocols = append([]string(nil), t.Protocols...)
	t.BuildingBlocks = append([]string(nil), t.BuildingBlocks...)
	return t
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}
