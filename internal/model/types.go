package model

import "time"

const EnvelopeVersion = "v1"

type Envelope struct {
	Version  string       `json:"version"`
	Success  bool         `json:"success"`
	Data     any          `json:"data,omitempty"`
	Error    *ErrorBody   `json:"error"`
	Warnings []string     `json:"warnings,omitempty"`
	Meta     EnvelopeMeta `json:"meta"`
}

type ErrorBody struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

type EnvelopeMeta struct {
	RequestID string           `json:"request_id"`
	Timestamp time.Time        `json:"timestamp"`
	Command   string           `json:"command"`
	Providers []ProviderStatus `json:"providers,omitempty"`
	Cache     CacheStatus      `json:"cache"`
	Partial   bool             `json:"partial"`
}

type ProviderStatus struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	Items     int    `json:"items"`
	LatencyMS int64  `json:"latency_ms"`
}

type CacheStatus struct {
	Status string `json:"status"`
	AgeMS  int64  `json:"age_ms"`
}

type ProviderInfo struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	RequiresKey  bool     `json:"requires_key"`
	Chains       []int64  `json:"chains"`
	Capabilities []string `json:"capabilities"`
}

// YieldType classifies a yield opportunity.
type YieldType string

const (
	YieldTypeLending   YieldType = "lending"
	YieldTypeLiquidity YieldType = "liquidity"
	YieldTypeStaking   YieldType = "staking"
	YieldTypeFarming   YieldType = "farming"
)

// YieldData is the normalized shape every yield provider emits. APY is a
// percentage in source units and is always finite.
type YieldData struct {
	Protocol string            `json:"protocol"`
	APY      float64           `json:"apy"`
	Type     YieldType         `json:"type"`
	Link     string            `json:"link"`
	PairInfo string            `json:"pairInfo,omitempty"`
	Details  map[string]string `json:"details,omitempty"`
}

type ChainInfo struct {
	ChainID   int64  `json:"chain_id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	CAIP2     string `json:"caip2"`
	LlamaName string `json:"llama_name"`
}

type Token struct {
	ChainID        int64    `json:"chain_id"`
	Address        string   `json:"address"`
	Symbol         string   `json:"symbol"`
	Name           string   `json:"name"`
	Decimals       int      `json:"decimals"`
	Protocols      []string `json:"protocols,omitempty"`
	BuildingBlocks []string `json:"building_blocks,omitempty"`
	LogoURL        string   `json:"logo_url,omitempty"`
}
