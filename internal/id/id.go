package id

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	clierr "github.com/ggonzalez94/defi-explorer/internal/errors"
	"github.com/ggonzalez94/defi-explorer/internal/model"
)

var eip155ChainPattern = regexp.MustCompile(`^eip155:[0-9]+$`)

// DefaultLlamaChainName is used for chain ids missing from the DefiLlama name
// table. Providers that rely on it only support Arbitrum today, so an unknown
// id resolving here is a misrouted query rather than a hard failure.
const DefaultLlamaChainName = "Arbitrum"

type Chain struct {
	Name       string
	Slug       string
	CAIP2      string
	EVMChainID int64
	LlamaName  string
}

func (c Chain) Info() model.ChainInfo {
	return model.ChainInfo{
		ChainID:   c.EVMChainID,
		Name:      c.Name,
		Slug:      c.Slug,
		CAIP2:     c.CAIP2,
		LlamaName: c.LlamaName,
	}
}

type Token struct {
	Symbol   string
	Name     string
	Address  string
	Decimals int
}

var chainBySlug = map[string]Chain{
	"ethereum":  {Name: "Ethereum", Slug: "ethereum", CAIP2: "eip155:1", EVMChainID: 1, LlamaName: "Ethereum"},
	"mainnet":   {Name: "Ethereum", Slug: "ethereum", CAIP2: "eip155:1", EVMChainID: 1, LlamaName: "Ethereum"},
	"base":      {Name: "Base", Slug: "base", CAIP2: "eip155:8453", EVMChainID: 8453, LlamaName: "Base"},
	"arbitrum":  {Name: "Arbitrum One", Slug: "arbitrum", CAIP2: "eip155:42161", EVMChainID: 42161, LlamaName: "Arbitrum"},
	"optimism":  {Name: "Optimism", Slug: "optimism", CAIP2: "eip155:10", EVMChainID: 10, LlamaName: "Optimism"},
	"polygon":   {Name: "Polygon", Slug: "polygon", CAIP2: "eip155:137", EVMChainID: 137, LlamaName: "Polygon"},
	"avalanche": {Name: "Avalanche", Slug: "avalanche", CAIP2: "eip155:43114", EVMChainID: 43114, LlamaName: "Avalanche"},
	"bsc":       {Name: "BNB Chain", Slug: "bsc", CAIP2: "eip155:56", EVMChainID: 56, LlamaName: "BSC"},
}

var chainByID = map[int64]Chain{
	1:     chainBySlug["ethereum"],
	10:    chainBySlug["optimism"],
	56:    chainBySlug["bsc"],
	137:   chainBySlug["polygon"],
	8453:  chainBySlug["base"],
	42161: chainBySlug["arbitrum"],
	43114: chainBySlug["avalanche"],
}

// Bootstrap token registry for the general token list.
var tokenRegistry = map[int64][]Token{
	1: {
		{Symbol: "USDC", Name: "USD Coin", Address: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", Decimals: 6},
		{Symbol: "USDT", Name: "Tether USD", Address: "0xdac17f958d2ee523a2206206994597c13d831ec7", Decimals: 6},
		{Symbol: "DAI", Name: "Dai Stablecoin", Address: "0x6b175474e89094c44da98b954eedeac495271d0f", Decimals: 18},
		{Symbol: "WETH", Name: "Wrapped Ether", Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Decimals: 18},
	},
	8453: {
		{Symbol: "USDC", Name: "USD Coin", Address: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Decimals: 6},
		{Symbol: "DAI", Name: "Dai Stablecoin", Address: "0x50c5725949A6F0c72E6C4a641F24049A917DB0Cb", Decimals: 18},
		{Symbol: "WETH", Name: "Wrapped Ether", Address: "0x4200000000000000000000000000000000000006", Decimals: 18},
	},
	42161: {
		{Symbol: "USDC", Name: "USD Coin", Address: "0xaf88d065e77c8cC2239327C5EDb3A432268e5831", Decimals: 6},
		{Symbol: "USDT", Name: "Tether USD", Address: "0xFd086bC7CD5C481DCC9C85ebe478A1C0b69FCbb9", Decimals: 6},
		{Symbol: "DAI", Name: "Dai Stablecoin", Address: "0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1", Decimals: 18},
		{Symbol: "WETH", Name: "Wrapped Ether", Address: "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1", Decimals: 18},
		{Symbol: "WBTC", Name: "Wrapped BTC", Address: "0x2f2a2543B76A4166549F7aaB2e75Bef0aefC5B0f", Decimals: 8},
		{Symbol: "ARB", Name: "Arbitrum", Address: "0x912CE59144191C1204E64559FE8253a0e49E6548", Decimals: 18},
		{Symbol: "wstETH", Name: "Wrapped liquid staked Ether", Address: "0x5979D7b546E38E414F7E9822514be443A4800529", Decimals: 18},
		{Symbol: "GMX", Name: "GMX", Address: "0xfc5A1A6EB076a2C7aD06eD22C90d7E710E35ad0a", Decimals: 18},
		{Symbol: "PENDLE", Name: "Pendle", Address: "0x0c880f6761F1af8d9Aa9C466984b80DAb9a8c9e8", Decimals: 18},
	},
	10: {
		{Symbol: "USDC", Name: "USD Coin", Address: "0x0b2C639c533813f4Aa9D7837CAf62653d097Ff85", Decimals: 6},
		{Symbol: "USDT", Name: "Tether USD", Address: "0x94b008aA00579c1307B0EF2c499aD98a8ce58e58", Decimals: 6},
		{Symbol: "DAI", Name: "Dai Stablecoin", Address: "0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1", Decimals: 18},
		{Symbol: "WETH", Name: "Wrapped Ether", Address: "0x4200000000000000000000000000000000000006", Decimals: 18},
	},
	137: {
		{Symbol: "USDC", Name: "USD Coin", Address: "0x3c499c542cef5e3811e1192ce70d8cc03d5c3359", Decimals: 6},
		{Symbol: "USDT", Name: "Tether USD", Address: "0xc2132D05D31c914a87C6611C10748AEb04B58e8F", Decimals: 6},
		{Symbol: "WETH", Name: "Wrapped Ether", Address: "0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619", Decimals: 18},
	},
	56: {
		{Symbol: "USDC", Name: "USD Coin", Address: "0x8ac76a51cc950d9822d68b83fe1ad97b32cd580d", Decimals: 18},
		{Symbol: "USDT", Name: "Tether USD", Address: "0x55d398326f99059fF775485246999027B3197955", Decimals: 18},
	},
	43114: {
		{Symbol: "USDC", Name: "USD Coin", Address: "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E", Decimals: 6},
		{Symbol: "USDT", Name: "Tether USD", Address: "0x9702230A8Ea53601f5cD2dc00fDBc13d4dF4A8c7", Decimals: 6},
	},
}

// ParseChain accepts a slug, a numeric chain id or an eip155 CAIP-2 id.
// Only chains in the registry are accepted.
func ParseChain(input string) (Chain, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Chain{}, clierr.New(clierr.CodeUsage, "chain is required")
	}
	norm := strings.ToLower(raw)

	if chain, ok := chainBySlug[norm]; ok {
		return chain, nil
	}
	if eip155ChainPattern.MatchString(norm) {
		norm = strings.TrimPrefix(norm, "eip155:")
	}
	if n, err := strconv.ParseInt(norm, 10, 64); err == nil {
		if chain, ok := chainByID[n]; ok {
			return chain, nil
		}
		return Chain{}, clierr.New(clierr.CodeUnsupported, fmt.Sprintf("unsupported chain id: %d", n))
	}
	return Chain{}, clierr.New(clierr.CodeUsage, fmt.Sprintf("unsupported chain input: %s", input))
}

func ChainByID(chainID int64) (Chain, bool) {
	chain, ok := chainByID[chainID]
	return chain, ok
}

// KnownChainIDs returns the configured chain ids in ascending order.
func KnownChainIDs() []int64 {
	out := make([]int64, 0, len(chainByID))
	for chainID := range chainByID {
		out = append(out, chainID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func Chains() []Chain {
	ids := KnownChainIDs()
	out := make([]Chain, 0, len(ids))
	for _, chainID := range ids {
		out = append(out, chainByID[chainID])
	}
	return out
}

// LlamaChainName resolves the chain name DefiLlama uses in its query strings.
func LlamaChainName(chainID int64) string {
	if chain, ok := chainByID[chainID]; ok && chain.LlamaName != "" {
		return chain.LlamaName
	}
	return DefaultLlamaChainName
}

func IsAddress(input string) bool {
	return common.IsHexAddress(strings.TrimSpace(input))
}

// NormalizeAddress returns the lowercase hex form used for comparisons and
// cache keys.
func NormalizeAddress(input string) (string, error) {
	raw := strings.TrimSpace(input)
	if !common.IsHexAddress(raw) {
		return "", clierr.New(clierr.CodeUsage, fmt.Sprintf("invalid token address: %s", input))
	}
	return strings.ToLower(common.HexToAddress(raw).Hex()), nil
}

// ChecksumAddress returns the EIP-55 form, or the input unchanged when it is
// not a hex address.
func ChecksumAddress(input string) string {
	raw := strings.TrimSpace(input)
	if !common.IsHexAddress(raw) {
		return raw
	}
	return common.HexToAddress(raw).Hex()
}

// Tokens returns the bootstrap token registry for a chain.
func Tokens(chainID int64) []Token {
	src := tokenRegistry[chainID]
	out := make([]Token, 0, len(src))
	for _, t := range src {
		out = append(out, Token{
			Symbol:   t.Symbol,
			Name:     t.Name,
			Address:  strings.ToLower(strings.TrimSpace(t.Address)),
			Decimals: t.Decimals,
		})
	}
	return out
}

func LookupByAddress(chainID int64, address string) (Token, bool) {
	for _, t := range Tokens(chainID) {
		if strings.EqualFold(t.Address, strings.TrimSpace(address)) {
			return t, true
		}
	}
	return Token{}, false
}

func LookupBySymbol(chainID int64, symbol string) (Token, bool) {
	for _, t := range Tokens(chainID) {
		if strings.EqualFold(t.Symbol, strings.TrimSpace(symbol)) {
			return t, true
		}
	}
	return Token{}, false
}

// ResolveTokenAddress accepts a hex address or a registry symbol and returns
// the normalized address.
func ResolveTokenAddress(chainID int64, input string) (string, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return "", clierr.New(clierr.CodeUsage, "token is required")
	}
	if strings.HasPrefix(strings.ToLower(raw), "0x") {
		return NormalizeAddress(raw)
	}
	if t, ok := LookupBySymbol(chainID, raw); ok {
		return t.Address, nil
	}
	return "", clierr.New(clierr.CodeUsage, fmt.Sprintf("unknown token symbol %q on chain %d", raw, chainID))
}
