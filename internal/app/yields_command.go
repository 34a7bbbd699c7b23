package app

import (
	"fmt"

	"github.com/spf13/cobra"

	clierr "github.com/ggonzalez94/defi-explorer/internal/errors"
	"github.com/ggonzalez94/defi-explorer/internal/id"
	"github.com/ggonzalez94/defi-explorer/internal/yield"
)

func (s *runtimeState) newYieldsCommand() *cobra.Command {
	var chainArg, tokenArg string
	var strict bool
	cmd := &cobra.Command{
		Use:   "yields",
		Short: "Aggregate yield opportunities for a token across providers",
		Example: "  defi-explorer yields --chain arbitrum --token USDC\n" +
			"  defi-explorer yields --chain 42161 --token 0xaf88d065e77c8cc2239327c5edb3a432268e5831 --strict",
		RunE: func(cmd *cobra.Command, args []string) error {
			s.resetCommandDiagnostics()
			chain, err := id.ParseChain(chainArg)
			if err != nil {
				return err
			}
			token, err := id.ResolveTokenAddress(chain.EVMChainID, tokenArg)
			if err != nil {
				return err
			}

			res := s.aggregator.Aggregate(cmd.Context(), token, chain.EVMChainID)
			warnings := yieldWarnings(res, chain)
			partial := res.Status == yield.StatusPartial || res.Status == yield.StatusFailed
			if (strict || s.settings.Strict) && partial {
				s.captureCommandDiagnostics(warnings, res.Providers, partial)
				return clierr.New(clierr.CodePartialStrict, fmt.Sprintf("yield aggregation %s", res.Status))
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), res.Data, warnings, res.Cache, res.Providers, partial)
		},
	}
	cmd.Flags().StringVar(&chainArg, "chain", "", "Chain id/name/CAIP-2")
	cmd.Flags().StringVar(&tokenArg, "token", "", "Token address or registry symbol")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when any provider fails")
	_ = cmd.MarkFlagRequired("chain")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

func yieldWarnings(res yield.Result, chain id.Chain) []string {
	var warnings []string
	if res.Status == yield.StatusNoProviders {
		warnings = append(warnings, fmt.Sprintf("no yield provider supports chain %s", chain.Slug))
	}
	for _, p := range res.Providers {
		if p.Status != "ok" {
			warnings = append(warnings, fmt.Sprintf("provider %s: %s", p.Name, p.Status))
		}
	}
	return warnings
}
