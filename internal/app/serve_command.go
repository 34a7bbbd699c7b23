package app

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	clierr "github.com/ggonzalez94/defi-explorer/internal/errors"
	"github.com/ggonzalez94/defi-explorer/internal/server"
)

func (s *runtimeState) newServeCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the explorer HTTP API and the yields proxy",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = s.settings.ListenAddr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			router := server.NewRouter(server.Deps{
				Aggregator: s.aggregator,
				Tokens:     s.tokens,
				Forwarder:  s.forwarder,
				Logger:     s.logger,
				Origins:    s.settings.FrontendOrigins,
			})
			if err := server.ListenAndServe(ctx, addr, router, s.logger); err != nil {
				return clierr.Wrap(clierr.CodeInternal, "serve", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to server.addr or $PORT)")
	return cmd
}
