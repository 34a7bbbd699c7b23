package tokenlist

import (
	"strings"

	"github.com/ggonzalez94/defi-explorer/internal/model"
)

// Query narrows a token list. Empty fields match everything.
type Query struct {
	Protocol      string
	BuildingBlock string
	Search        string
}

// Filter keeps tokens matching every non-empty field of q, preserving order.
// Search matches symbol or name by substring and address by prefix, all
// case-insensitively.
func Filter(tokens []model.Token, q Query) []model.Token {
	protocol := strings.TrimSpace(q.Protocol)
	block := strings.TrimSpace(q.BuildingBlock)
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]model.Token, 0, len(tokens))
	for _, t := range tokens {
		if protocol != "" && !containsFold(t.Protocols, protocol) {
			continue
		}
		if block != "" && !containsFold(t.BuildingBlocks, block) {
			continue
		}
		if search != "" && !matchesSearch(t, search) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matchesSearch(t model.Token, search string) bool {
	if strings.Contains(strings.ToLower(t.Symbol), search) || strings.Contains(strings.ToLower(t.Name), search) {
		return true
	}
	return strings.HasPrefix(search, "0x") && strings.HasPrefix(strings.ToLower(t.Address), search)
}
