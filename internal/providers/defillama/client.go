package defillama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	clierr "github.com/ggonzalez94/defi-explorer/internal/errors"
	"github.com/ggonzalez94/defi-explorer/internal/id"
	"github.com/ggonzalez94/defi-explorer/internal/model"
	"github.com/ggonzalez94/defi-explorer/internal/proxy"
)

const Name = "defillama"

// supportedChains lists every chain id the adapter answers for. The pools
// endpoint covers many more; new chains need link templates checked first.
var supportedChains = map[int64]struct{}{
	42161: {},
}

// protocolAllowlist is matched as a case-insensitive substring of the pool project.
var protocolAllowlist = []string{
	"aave",
	"compound",
	"pendle",
	"uniswap",
	"curve",
	"balancer",
	"camelot",
	"gmx",
	"radiant",
	"silo",
	"dolomite",
	"lido",
	"stargate",
	"sushiswap",
}

var typeKeywords = []struct {
	kind     model.YieldType
	keywords []string
}{
	{kind: model.YieldTypeLending, keywords: []string{"aave", "compound", "radiant", "silo", "dolomite", "lend"}},
	{kind: model.YieldTypeStaking, keywords: []string{"lido", "stake", "gmx", "rocket"}},
	{kind: model.YieldTypeFarming, keywords: []string{"curve", "convex", "beefy", "yearn", "pendle", "farm"}},
}

var trailingParen = regexp.MustCompile(`\s*\([^)]*\)\s*$`)

type Client struct {
	transport proxy.Transport
	logger    *slog.Logger
}

type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func New(transport proxy.Transport, opts ...Option) *Client {
	c := &Client{
		transport: transport,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("provider", Name)
	return c
}

func (c *Client) Info() model.ProviderInfo {
	chains := make([]int64, 0, len(supportedChains))
	for chainID := range supportedChains {
		chains = append(chains, chainID)
	}
	sort.Slice(chains, func(i, j int) bool { return chains[i] < chains[j] })
	return model.ProviderInfo{
		Name:         Name,
		Type:         "yields",
		RequiresKey:  false,
		Chains:       chains,
		Capabilities: []string{"yield.pools"},
	}
}

func (c *Client) IsSupported(chainID int64) bool {
	_, ok := supportedChains[chainID]
	return ok
}

type poolEntry struct {
	Pool         string   `json:"pool"`
	Chain        string   `json:"chain"`
	Project      string   `json:"project"`
	Symbol       string   `json:"symbol"`
	Underlying   []string `json:"underlyingTokens"`
	RewardTokens []string `json:"rewardTokens"`
	APYBase      *float64 `json:"apyBase"`
	APYReward    *float64 `json:"apyReward"`
	APY          *float64 `json:"apy"`
	TVLUSD       *float64 `json:"tvlUsd"`
	IL7d         *float64 `json:"il7d"`
	PoolMeta     string   `json:"poolMeta"`
	URL          string   `json:"url"`
}

// GetYield returns the allow-listed pools on chainID whose underlying tokens
// include tokenAddress, sorted by APY descending.
func (c *Client) GetYield(ctx context.Context, tokenAddress string, chainID int64) (out []model.YieldData, err error) {
	out = []model.YieldData{}
	token := strings.ToLower(strings.TrimSpace(tokenAddress))
	if token == "" || !c.IsSupported(chainID) {
		return out, nil
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("yield lookup panicked", "token", token, "chain_id", chainID, "panic", fmt.Sprint(r))
			out = []model.YieldData{}
			err = clierr.New(clierr.CodeInternal, fmt.Sprintf("defillama adapter panic: %v", r))
		}
	}()

	chainName := id.LlamaChainName(chainID)
	pools, err := c.fetchPools(ctx, chainName)
	if err != nil {
		c.logger.Warn("fetch pools failed", "token", token, "chain_id", chainID, "error", err)
		return []model.YieldData{}, clierr.Wrap(clierr.CodeUnavailable, "fetch defillama pools", err)
	}

	for _, p := range pools {
		if !matchesPool(p, token, chainName) {
			continue
		}
		if p.APY == nil || !finite(*p.APY) {
			continue
		}
		out = append(out, model.YieldData{
			Protocol: p.Project,
			APY:      *p.APY,
			Type:     classify(p.Project),
			Link:     poolLink(p, token, chainName),
			PairInfo: pairInfo(p),
			Details:  poolDetails(p),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].APY > out[j].APY })
	return out, nil
}

// fetchPools returns nil without error when the payload carries no usable pool list.
func (c *Client) fetchPools(ctx context.Context, chainName string) ([]poolEntry, error) {
	req := proxy.Request{
		Endpoint: "/pools?chain=" + url.QueryEscape(chainName),
		Method:   http.MethodGet,
	}
	var raw json.RawMessage
	if err := c.transport.Forward(ctx, req, &raw); err != nil {
		return nil, err
	}

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		c.logger.Warn("pools payload is not an object", "error", err)
		return nil, nil
	}
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || data[0] != '[' {
		c.logger.Warn("pools payload has no data array")
		return nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		c.logger.Warn("decode pools array", "error", err)
		return nil, nil
	}
	pools := make([]poolEntry, 0, len(items))
	skipped := 0
	for _, item := range items {
		var p poolEntry
		if err := json.Unmarshal(item, &p); err != nil {
			skipped++
			continue
		}
		pools = append(pools, p)
	}
	if skipped > 0 {
		c.logger.Debug("skipped malformed pools", "count", skipped)
	}
	return pools, nil
}

func matchesPool(p poolEntry, token, chainName string) bool {
	if len(p.Underlying) == 0 {
		return false
	}
	if p.Chain != "" && !strings.EqualFold(strings.TrimSpace(p.Chain), chainName) {
		return false
	}
	found := false
	for _, u := range p.Underlying {
		if strings.EqualFold(strings.TrimSpace(u), token) {
			found = true
			break
		}
	}
	return found && allowedProject(p.Project)
}

func allowedProject(project string) bool {
	project = strings.ToLower(project)
	for _, candidate := range protocolAllowlist {
		if strings.Contains(project, candidate) {
			return true
		}
	}
	return false
}

func classify(project string) model.YieldType {
	project = strings.ToLower(project)
	for _, group := range typeKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(project, kw) {
				return group.kind
			}
		}
	}
	return model.YieldTypeLiquidity
}

func isPendle(project string) bool {
	return strings.Contains(strings.ToLower(project), "pendle")
}

func pairInfo(p poolEntry) string {
	symbol := strings.TrimSpace(trailingParen.ReplaceAllString(p.Symbol, ""))
	if symbol == "" {
		return ""
	}
	switch {
	case isPendle(p.Project):
		return symbol + " (PT)"
	case strings.ContainsAny(symbol, "-/"):
		return symbol
	default:
		return symbol + " on " + p.Project
	}
}

func poolLink(p poolEntry, token, chainName string) string {
	if u := strings.TrimSpace(p.URL); u != "" {
		return u
	}
	project := strings.ToLower(p.Project)
	chainSlug := strings.ToLower(chainName)
	pool := url.PathEscape(p.Pool)
	switch {
	case strings.Contains(project, "aave"):
		return fmt.Sprintf("https://app.aave.com/reserve-overview/?underlyingAsset=%s&marketName=proto_%s_v3", token, chainSlug)
	case strings.Contains(project, "pendle"):
		return fmt.Sprintf("https://app.pendle.finance/trade/markets/%s/swap?view=pt&chain=%s", pool, chainSlug)
	case strings.Contains(project, "uniswap"):
		return fmt.Sprintf("https://app.uniswap.org/explore/pools/%s/%s", chainSlug, pool)
	case strings.Contains(project, "camelot"):
		return fmt.Sprintf("https://app.camelot.exchange/pools/%s", pool)
	case strings.Contains(project, "balancer"):
		return fmt.Sprintf("https://app.balancer.fi/#/%s/pool/%s", chainSlug, pool)
	case strings.Contains(project, "curve"):
		return fmt.Sprintf("https://curve.fi/#/%s/pools/%s/deposit", chainSlug, pool)
	}
	return "https://defillama.com/yields/pool/" + pool
}

func poolDetails(p poolEntry) map[string]string {
	details := map[string]string{
		"tvl": "$" + humanize.Comma(int64(math.Round(numOrZero(p.TVLUSD)))),
	}
	if isNumber(p.APYBase) && isNumber(p.APYReward) {
		details["base apy"] = percent(*p.APYBase)
		details["reward apy"] = percent(*p.APYReward)
	}
	if isNumber(p.IL7d) {
		details["IL (7d)"] = percent(*p.IL7d)
	}
	if len(p.RewardTokens) > 0 {
		details["rewards"] = strings.Join(p.RewardTokens, ", ")
	}
	return details
}

func percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

func isNumber(v *float64) bool {
	return v != nil && finite(*v)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func numOrZero(v *float64) float64 {
	if !isNumber(v) {
		return 0
	}
	return *v
}
