package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	clierr "github.com/ggonzalez94/defi-explorer/internal/errors"
	"github.com/ggonzalez94/defi-explorer/internal/id"
	"github.com/ggonzalez94/defi-explorer/internal/model"
	"github.com/ggonzalez94/defi-explorer/internal/tokenlist"
	"github.com/ggonzalez94/defi-explorer/internal/yield"
)

type handlers struct {
	agg    *yield.Aggregator
	tokens *tokenlist.Registry
	logger *slog.Logger
}

type yieldsResponse struct {
	ChainID   int64                  `json:"chain_id"`
	Token     string                 `json:"token"`
	Symbol    string                 `json:"symbol,omitempty"`
	Status    yield.Status           `json:"status"`
	Data      []model.YieldData      `json:"data"`
	Cache     model.CacheStatus      `json:"cache"`
	Providers []model.ProviderStatus `json:"providers,omitempty"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) listChains(w http.ResponseWriter, r *http.Request) {
	chains := id.Chains()
	out := make([]model.ChainInfo, 0, len(chains))
	for _, c := range chains {
		out = append(out, c.Info())
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) listTokens(w http.ResponseWriter, r *http.Request) {
	chain, err := id.ParseChain(chi.URLParam(r, "chainID"))
	if err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()
	tokens, err := h.tokens.List(r.Context(), chain.EVMChainID, tokenlist.Query{
		Protocol:      q.Get("protocol"),
		BuildingBlock: q.Get("block"),
		Search:        q.Get("q"),
	})
	if err != nil {
		h.logger.Warn("list tokens failed", "chain_id", chain.EVMChainID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

func (h *handlers) tokenYields(w http.ResponseWriter, r *http.Request) {
	chain, err := id.ParseChain(chi.URLParam(r, "chainID"))
	if err != nil {
		writeError(w, err)
		return
	}
	token, err := id.ResolveTokenAddress(chain.EVMChainID, chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, err)
		return
	}
	res := h.agg.Aggregate(r.Context(), token, chain.EVMChainID)
	resp := yieldsResponse{
		ChainID:   chain.EVMChainID,
		Token:     token,
		Status:    res.Status,
		Data:      res.Data,
		Cache:     res.Cache,
		Providers: res.Providers,
	}
	if known, ok := id.LookupByAddress(chain.EVMChainID, token); ok {
		resp.Symbol = known.Symbol
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) listProviders(w http.ResponseWriter, r *http.Request) {
	list := h.agg.Factory().Providers()
	out := make([]model.ProviderInfo, 0, len(list))
	for _, p := range list {
		out = append(out, p.Info())
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	body := map[string]string{"error": err.Error()}
	if e, ok := clierr.As(err); ok {
		body["type"] = clierr.TypeName(e.Code)
	}
	writeJSON(w, clierr.HTTPStatus(err), body)
}
