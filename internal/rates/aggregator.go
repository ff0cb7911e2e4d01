// Package rates aggregates shipping rates across every registered carrier.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/parcelgrid/shipping/internal/cache"
	"github.com/parcelgrid/shipping/internal/telemetry"
	"github.com/parcelgrid/shipping/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultCarrierTimeout bounds each carrier's rate call during fan-out.
const DefaultCarrierTimeout = 5 * time.Second

// Aggregator fans one rate request out to every registered carrier,
// tolerating per-carrier failure, and caches merged results.
type Aggregator struct {
	registry       *carrier.Registry
	store          cache.Store // nil disables caching
	logger         *otelzap.Logger
	metrics        *telemetry.Metrics
	carrierTimeout time.Duration
	rateTTL        time.Duration
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithCarrierTimeout overrides the per-carrier fan-out timeout.
func WithCarrierTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.carrierTimeout = d
		}
	}
}

// WithRateTTL overrides the cache TTL for merged rate lists.
func WithRateTTL(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.rateTTL = d
		}
	}
}

// New creates a rate aggregator. store may be nil, in which case every
// lookup is a miss and nothing is written back.
func New(registry *carrier.Registry, store cache.Store, logger *otelzap.Logger, metrics *telemetry.Metrics, opts ...Option) *Aggregator {
	a := &Aggregator{
		registry:       registry,
		store:          store,
		logger:         logger,
		metrics:        metrics,
		carrierTimeout: DefaultCarrierTimeout,
		rateTTL:        cache.RateTTL,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetRates returns the merged, ascending-by-charge rate list for a
// request. Carrier and cache faults degrade gracefully: a carrier that
// fails or times out simply contributes no rates, and if every carrier
// fails the response carries an empty list rather than an error.
func (a *Aggregator) GetRates(ctx context.Context, req *carrier.RateRequest) (*carrier.RateResponse, error) {
	key := cache.RateKey(req)

	if cached, ok := a.readCache(ctx, key); ok {
		return cached, nil
	}

	adapters := a.registry.All()

	// One result slot per adapter keeps the merge order tied to
	// registration order, not completion order.
	collected := make([][]carrier.Rate, len(adapters))

	g, gctx := errgroup.WithContext(ctx)
	for i, ad := range adapters {
		g.Go(func() error {
			rates, err := a.fetchRates(gctx, ad, req)
			if err != nil {
				// Failure isolation: this carrier contributes zero
				// rates, siblings are unaffected.
				a.logger.Warn("Carrier rate call failed",
					zap.String("carrier", ad.Name()),
					zap.Error(err),
				)
				a.metrics.RecordError(ad.Name(), errorType(err))
				return nil
			}
			collected[i] = rates
			return nil
		})
	}
	g.Wait()

	merged := make([]carrier.Rate, 0)
	for _, rates := range collected {
		merged = append(merged, rates...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].TotalCharge < merged[j].TotalCharge
	})

	resp := &carrier.RateResponse{
		ShipFrom: req.ShipFrom,
		ShipTo:   req.ShipTo,
		Packages: req.Packages,
		Rates:    merged,
		Cached:   false,
	}

	if len(merged) > 0 {
		a.writeCache(ctx, key, resp)
	}
	return resp, nil
}

// fetchRates calls one carrier with the per-carrier timeout. The adapter
// call runs in its own goroutine with a buffered result channel, so an
// adapter that ignores context cancellation cannot block the join; its
// late result is discarded.
func (a *Aggregator) fetchRates(ctx context.Context, ad carrier.Adapter, req *carrier.RateRequest) ([]carrier.Rate, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.carrierTimeout)
	defer cancel()

	type outcome struct {
		rates []carrier.Rate
		err   error
	}
	ch := make(chan outcome, 1)

	start := time.Now()
	go func() {
		rates, err := ad.GetRates(callCtx, req)
		ch <- outcome{rates: rates, err: err}
	}()

	select {
	case out := <-ch:
		a.metrics.RecordRequest("get_rates", ad.Name(), requestStatus(out.err), time.Since(start).Seconds())
		return out.rates, out.err
	case <-callCtx.Done():
		a.metrics.RecordRequest("get_rates", ad.Name(), "timeout", time.Since(start).Seconds())
		return nil, callCtx.Err()
	}
}

func (a *Aggregator) readCache(ctx context.Context, key string) (*carrier.RateResponse, bool) {
	if a.store == nil {
		return nil, false
	}
	raw, err := a.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			// An unreachable store is a miss, never a request failure.
			a.logger.Warn("Rate cache read failed", zap.String("key", key), zap.Error(err))
			a.metrics.RecordCacheLookup("rates", "error")
		} else {
			a.metrics.RecordCacheLookup("rates", "miss")
		}
		return nil, false
	}

	var resp carrier.RateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		a.logger.Warn("Rate cache entry corrupt", zap.String("key", key), zap.Error(err))
		a.metrics.RecordCacheLookup("rates", "error")
		return nil, false
	}
	a.metrics.RecordCacheLookup("rates", "hit")
	resp.Cached = true
	return &resp, true
}

func (a *Aggregator) writeCache(ctx context.Context, key string, resp *carrier.RateResponse) {
	if a.store == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		a.logger.Warn("Rate cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := a.store.Set(ctx, key, raw, a.rateTTL); err != nil {
		a.logger.Warn("Rate cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func requestStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case carrier.IsRetryable(err):
		return "unavailable"
	default:
		return "carrier_error"
	}
}
