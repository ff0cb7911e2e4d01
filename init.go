package main

import (
	"context"
	"time"

	"github.com/parcelgrid/shipping/internal/cache"
	"github.com/parcelgrid/shipping/internal/config"
	"github.com/parcelgrid/shipping/internal/labels"
	"github.com/parcelgrid/shipping/internal/rates"
	"github.com/parcelgrid/shipping/internal/telemetry"
	"github.com/parcelgrid/shipping/internal/tracking"
	"github.com/parcelgrid/shipping/pkg/carrier"
	"github.com/parcelgrid/shipping/pkg/carrier/gateway"
	"github.com/parcelgrid/shipping/pkg/carrier/stub"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return func(context.Context) error { return nil }, nil
	}

	_, shutdown, err := telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
	return shutdown, err
}

// initCacheStore connects to redis when configured. A nil store is valid:
// the service runs without caching, just slower.
func initCacheStore(cfg *config.Config, logger *otelzap.Logger) cache.Store {
	if cfg.RedisURL == "" {
		logger.Info("Cache disabled, no REDIS_URL configured")
		return nil
	}
	store, err := cache.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Warn("Cache unavailable, continuing without it", zap.Error(err))
		return nil
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		logger.Warn("Cache unreachable, continuing without it", zap.Error(err))
		store.Close()
		return nil
	}
	return store
}

func initCarrierRegistry(cfg *config.Config, logger *otelzap.Logger) *carrier.Registry {
	registry := carrier.NewRegistry()

	for _, name := range cfg.StubCarriers {
		registry.Register(stub.New(name))
	}

	if cfg.GatewayEnabled {
		gw := gateway.New(gateway.Config{
			Name:    cfg.GatewayName,
			APIKey:  cfg.GatewayAPIKey,
			BaseURL: cfg.GatewayBaseURL,
			UseMock: cfg.GatewayUseMock,
		}, logger)
		registry.Register(gw)
	}

	return registry
}

func initServices(cfg *config.Config, registry *carrier.Registry, store cache.Store, logger *otelzap.Logger) (*rates.Aggregator, *labels.Issuer, *tracking.Service) {
	metrics := telemetry.NewMetrics(nil)

	aggregator := rates.New(registry, store, logger, metrics,
		rates.WithCarrierTimeout(cfg.CarrierTimeout),
		rates.WithRateTTL(cfg.RateCacheTTL),
	)
	issuer := labels.New(registry, logger, metrics)
	tracker := tracking.New(registry, store, logger, metrics,
		tracking.WithTrackingTTL(cfg.TrackingCacheTTL),
	)
	return aggregator, issuer, tracker
}

func initPoller(cfg *config.Config, tracker *tracking.Service, logger *otelzap.Logger) *tracking.Poller {
	return tracking.NewPoller(tracker, cfg.PollSchedule, logger)
}
