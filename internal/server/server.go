// Package server exposes the explorer HTTP API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ggonzalez94/defi-explorer/internal/middleware"
	"github.com/ggonzalez94/defi-explorer/internal/proxy"
	"github.com/ggonzalez94/defi-explorer/internal/tokenlist"
	"github.com/ggonzalez94/defi-explorer/internal/yield"
)

const shutdownTimeout = 30 * time.Second

type Deps struct {
	Aggregator *yield.Aggregator
	Tokens     *tokenlist.Registry
	Forwarder  *proxy.Forwarder
	Logger     *slog.Logger
	Origins    []string
}

func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	h := &handlers{agg: d.Aggregator, tokens: d.Tokens, logger: d.Logger}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Recover(d.Logger))
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(d.Origins))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/yields", proxy.Handler(d.Forwarder, d.Logger))
		r.Get("/chains", h.listChains)
		r.Get("/chains/{chainID}/tokens", h.listTokens)
		r.Get("/chains/{chainID}/tokens/{address}/yields", h.tokenYields)
		r.Get("/providers", h.listProviders)
	})
	return r
}

// ListenAndServe runs the server until ctx is cancelled, then drains it.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
