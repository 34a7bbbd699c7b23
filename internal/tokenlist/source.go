// Package tokenlist serves the per-chain token lists the explorer browses.
package tokenlist

import (
	"context"
	"sort"
	"strings"

	"github.com/ggonzalez94/defi-explorer/internal/model"
)

// Source lists the tokens known on one chain.
type Source interface {
	AllGeneralTokens(ctx context.Context) ([]model.Token, error)
	// TokensByProtocol expects an upper-case protocol id such as "AAVE".
	TokensByProtocol(ctx context.Context, protocolID string) ([]model.Token, error)
}

// Protocol-specific getters. A Source implements the ones it has curated data for.
type AaveSource interface {
	AaveTokens(ctx context.Context) ([]model.Token, error)
}

type PendleSource interface {
	PendleTokens(ctx context.Context) ([]model.Token, error)
}

type CompoundSource interface {
	CompoundTokens(ctx context.Context) ([]model.Token, error)
}

// Accessor reads a protocol's tokens from a Source. ok is false when the
// Source does not implement the protocol getter.
type Accessor func(ctx context.Context, src Source) (tokens []model.Token, ok bool, err error)

var accessors = map[string]Accessor{
	"AAVE": func(ctx context.Context, src Source) ([]model.Token, bool, error) {
		s, ok := src.(AaveSource)
		if !ok {
			return nil, false, nil
		}
		tokens, err := s.AaveTokens(ctx)
		return tokens, true, err
	},
	"PENDLE": func(ctx context.Context, src Source) ([]model.Token, bool, error) {
		s, ok := src.(PendleSource)
		if !ok {
			return nil, false, nil
		}
		tokens, err := s.PendleTokens(ctx)
		return tokens, true, err
	},
	"COMPOUND": func(ctx context.Context, src Source) ([]model.Token, bool, error) {
		s, ok := src.(CompoundSource)
		if !ok {
			return nil, false, nil
		}
		tokens, err := s.CompoundTokens(ctx)
		return tokens, true, err
	},
}

// AccessorFor returns the typed getter registered for protocolID.
func AccessorFor(protocolID string) (Accessor, bool) {
	a, ok := accessors[normalizeProtocol(protocolID)]
	return a, ok
}

// AccessorProtocols lists protocol ids with a dedicated getter, sorted.
func AccessorProtocols() []string {
	out := make([]string, 0, len(accessors))
	for k := range accessors {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ProtocolTokens prefers the protocol's dedicated getter and falls back to
// TokensByProtocol when the Source has none.
func ProtocolTokens(ctx context.Context, src Source, protocolID string) ([]model.Token, error) {
	protocolID = normalizeProtocol(protocolID)
	if a, ok := accessors[protocolID]; ok {
		tokens, handled, err := a(ctx, src)
		if handled {
			return tokens, err
		}
	}
	return src.TokensByProtocol(ctx, protocolID)
}

func normalizeProtocol(protocolID string) string {
	return strings.ToUpper(strings.TrimSpace(protocolID))
}
