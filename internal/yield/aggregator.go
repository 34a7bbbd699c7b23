package yield

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ggonzalez94/defi-explorer/internal/cache"
	clierr "github.com/ggonzalez94/defi-explorer/internal/errors"
	"github.com/ggonzalez94/defi-explorer/internal/metrics"
	"github.com/ggonzalez94/defi-explorer/internal/model"
	"github.com/ggonzalez94/defi-explorer/internal/providers"
)

const DefaultProviderTimeout = 10 * time.Second

type Status string

const (
	StatusOK          Status = "ok"
	StatusPartial     Status = "partial"
	StatusEmpty       Status = "empty"
	StatusFailed      Status = "failed"
	StatusNoProviders Status = "no_providers"
	StatusInvalid     Status = "invalid"
)

const (
	providerOK      = "ok"
	providerError   = "error"
	providerTimeout = "timeout"
	providerPanic   = "panic"
)

// Result is an aggregation outcome. Data is never nil.
type Result struct {
	Data      []model.YieldData
	Status    Status
	Cache     model.CacheStatus
	Providers []model.ProviderStatus
}

type Aggregator struct {
	factory         *Factory
	store           *cache.Store
	logger          *slog.Logger
	providerTimeout time.Duration
	now             func() time.Time
	flight          singleflight.Group
}

type Option func(*Aggregator)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithProviderTimeout bounds each provider call. Non-positive values keep the default.
func WithProviderTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.providerTimeout = d
		}
	}
}

func NewAggregator(factory *Factory, store *cache.Store, opts ...Option) *Aggregator {
	if store == nil {
		store = cache.New(cache.DefaultTTL)
	}
	if factory == nil {
		factory = NewFactory(nil)
	}
	a := &Aggregator{
		factory:         factory,
		store:           store,
		logger:          slog.Default(),
		providerTimeout: DefaultProviderTimeout,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Aggregator) Factory() *Factory { return a.factory }

// GetAllYields returns the merged yields for a token, sorted by APY
// descending. Failures surface as an empty slice.
func (a *Aggregator) GetAllYields(ctx context.Context, tokenAddress string, chainID int64) []model.YieldData {
	return a.Aggregate(ctx, tokenAddress, chainID).Data
}

func (a *Aggregator) Aggregate(ctx context.Context, tokenAddress string, chainID int64) Result {
	token := strings.TrimSpace(tokenAddress)
	if token == "" {
		return a.finish(Result{
			Data:   []model.YieldData{},
			Status: StatusInvalid,
			Cache:  model.CacheStatus{Status: "bypass"},
		})
	}

	if hit := a.store.Get(token, chainID); hit.Hit {
		metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
		status := StatusOK
		if len(hit.Value) == 0 {
			status = StatusEmpty
		}
		return a.finish(Result{
			Data:   hit.Value,
			Status: status,
			Cache:  model.CacheStatus{Status: "hit", AgeMS: hit.Age.Milliseconds()},
		})
	}
	metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()

	// Concurrent misses for one key share a fetch. The shared fetch must not
	// die with whichever caller happened to start it.
	shared := context.WithoutCancel(ctx)
	v, _, _ := a.flight.Do(cache.Key(token, chainID), func() (any, error) {
		return a.fetch(shared, token, chainID), nil
	})
	return a.finish(v.(Result))
}

func (a *Aggregator) finish(res Result) Result {
	if res.Data == nil {
		res.Data = []model.YieldData{}
	}
	metrics.AggregationsTotal.WithLabelValues(string(res.Status)).Inc()
	return res
}

func (a *Aggregator) fetch(ctx context.Context, token string, chainID int64) Result {
	supporting := a.factory.ProvidersForChain(chainID)
	if len(supporting) == 0 {
		a.logger.Debug("no yield providers for chain", "chain_id", chainID)
		return Result{
			Data:   []model.YieldData{},
			Status: StatusNoProviders,
			Cache:  model.CacheStatus{Status: "miss"},
		}
	}

	results := make([][]model.YieldData, len(supporting))
	statuses := make([]model.ProviderStatus, len(supporting))
	var g errgroup.Group
	for i, p := range supporting {
		g.Go(func() error {
			results[i], statuses[i] = a.call(ctx, p, token, chainID)
			return nil
		})
	}
	_ = g.Wait()

	data := make([]model.YieldData, 0)
	succeeded := 0
	for i, st := range statuses {
		if st.Status == providerOK {
			succeeded++
		}
		data = append(data, results[i]...)
	}
	sort.SliceStable(data, func(i, j int) bool { return data[i].APY > data[j].APY })

	res := Result{
		Data:      data,
		Providers: statuses,
		Cache:     model.CacheStatus{Status: "miss"},
	}
	switch {
	case succeeded == 0:
		res.Status = StatusFailed
	case succeeded < len(statuses):
		res.Status = StatusPartial
	case len(data) == 0:
		res.Status = StatusEmpty
	default:
		res.Status = StatusOK
	}

	// An outage is not cached; a provider that answered "nothing" is.
	if succeeded > 0 {
		a.store.Set(token, chainID, data)
		metrics.CacheEntries.Set(float64(a.store.Len()))
		res.Cache = model.CacheStatus{Status: "write"}
	}
	return res
}

type outcome struct {
	items []model.YieldData
	err   error
}

type panicError struct{ value any }

func (e panicError) Error() string { return fmt.Sprintf("provider panic: %v", e.value) }

func (a *Aggregator) call(ctx context.Context, p providers.YieldProvider, token string, chainID int64) ([]model.YieldData, model.ProviderStatus) {
	name := p.Info().Name
	start := a.now()

	pctx, cancel := context.WithTimeout(ctx, a.providerTimeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: panicError{value: r}}
			}
		}()
		items, err := p.GetYield(pctx, token, chainID)
		done <- outcome{items: items, err: err}
	}()

	var res outcome
	select {
	case res = <-done:
	case <-pctx.Done():
		res = outcome{err: clierr.Wrap(clierr.CodeUnavailable, "provider timed out", pctx.Err())}
	}

	elapsed := a.now().Sub(start)
	st := model.ProviderStatus{Name: name, Status: providerOK, LatencyMS: elapsed.Milliseconds()}
	if res.err != nil {
		var pe panicError
		switch {
		case errors.As(res.err, &pe):
			st.Status = providerPanic
			a.logger.Error("yield provider panicked", "provider", name, "chain_id", chainID, "token", token, "panic", fmt.Sprint(pe.value))
		case errors.Is(res.err, context.DeadlineExceeded):
			st.Status = providerTimeout
			a.logger.Warn("yield provider timed out", "provider", name, "chain_id", chainID, "token", token, "timeout", a.providerTimeout)
		default:
			st.Status = providerError
			a.logger.Warn("yield provider failed", "provider", name, "chain_id", chainID, "token", token, "error", res.err)
		}
		res.items = nil
	}
	st.Items = len(res.items)

	metrics.ProviderFetchTotal.WithLabelValues(name, st.Status).Inc()
	metrics.ProviderFetchDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	return res.items, st
}
