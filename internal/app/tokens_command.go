package app

import (
	"github.com/spf13/cobra"

	"github.com/ggonzalez94/defi-explorer/internal/id"
	"github.com/ggonzalez94/defi-explorer/internal/tokenlist"
)

func (s *runtimeState) newTokensCommand() *cobra.Command {
	root := &cobra.Command{Use: "tokens", Short: "Token list commands"}
	var chainArg string
	var q tokenlist.Query
	list := &cobra.Command{
		Use:   "list",
		Short: "List known tokens for a chain",
		Example: "  defi-explorer tokens list --chain arbitrum --protocol aave --block stablecoin\n" +
			"  defi-explorer tokens list --chain base --search 0x8335",
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, err := id.ParseChain(chainArg)
			if err != nil {
				return err
			}
			tokens, err := s.tokens.List(cmd.Context(), chain.EVMChainID, q)
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), tokens, nil, cacheMetaBypass(), nil, false)
		},
	}
	list.Flags().StringVar(&chainArg, "chain", "", "Chain id/name/CAIP-2")
	list.Flags().StringVar(&q.Protocol, "protocol", "", "Only tokens supported by a protocol (aave, compound, pendle, gmx)")
	list.Flags().StringVar(&q.BuildingBlock, "block", "", "Only tokens tagged with a building block (stablecoin, wrapped, ...)")
	list.Flags().StringVar(&q.Search, "search", "", "Match symbol or name, or an address prefix")
	_ = list.MarkFlagRequired("chain")
	root.AddCommand(list)
	return root
}
