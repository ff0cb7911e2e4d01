// Package tracking serves on-demand tracking lookups and refreshes a
// registry of in-flight shipments on a background schedule.
package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/parcelgrid/shipping/internal/cache"
	"github.com/parcelgrid/shipping/internal/telemetry"
	"github.com/parcelgrid/shipping/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Service looks up tracking state and maintains the active-shipment
// registry for the background poller. The registry is process-local and
// in-memory; a restart loses it.
type Service struct {
	registry    *carrier.Registry
	store       cache.Store // nil disables caching
	logger      *otelzap.Logger
	metrics     *telemetry.Metrics
	trackingTTL time.Duration

	mu     sync.Mutex
	active map[string]string // tracking number -> carrier name
}

// Option configures a Service.
type Option func(*Service)

// WithTrackingTTL overrides the cache TTL for tracking snapshots.
func WithTrackingTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.trackingTTL = d
		}
	}
}

// New creates a tracking service. store may be nil.
func New(registry *carrier.Registry, store cache.Store, logger *otelzap.Logger, metrics *telemetry.Metrics, opts ...Option) *Service {
	s := &Service{
		registry:    registry,
		store:       store,
		logger:      logger,
		metrics:     metrics,
		trackingTTL: cache.TrackingTTL,
		active:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetTracking resolves a tracking number: cache first, then each adapter
// in registration order until one succeeds. When every adapter fails, the
// first registered adapter is called one final time unguarded and its
// result or error is propagated verbatim. That fallback means a transient
// failure on the first carrier can surface twice; it is the documented
// policy, not an accident.
func (s *Service) GetTracking(ctx context.Context, trackingNumber string) (*carrier.TrackingResult, error) {
	key := cache.TrackingKey(trackingNumber)

	if cached, ok := s.readCache(ctx, key); ok {
		return cached, nil
	}

	for _, ad := range s.registry.All() {
		result, err := ad.GetTracking(ctx, trackingNumber)
		if err != nil {
			s.logger.Debug("Tracking probe failed, trying next carrier",
				zap.String("carrier", ad.Name()),
				zap.String("tracking_number", trackingNumber),
				zap.Error(err),
			)
			continue
		}
		s.writeCache(ctx, key, result)
		return result, nil
	}

	first, ok := s.registry.First()
	if !ok {
		return nil, fmt.Errorf("%w: %s", carrier.ErrTrackingNotFound, trackingNumber)
	}
	return first.GetTracking(ctx, trackingNumber)
}

// Register adds a shipment to the active-tracking registry so the poller
// refreshes it until it is delivered.
func (s *Service) Register(trackingNumber, carrierName string) {
	s.mu.Lock()
	s.active[trackingNumber] = carrierName
	s.metrics.ActiveTracked.Set(float64(len(s.active)))
	s.mu.Unlock()

	s.logger.Info("Registered shipment for tracking",
		zap.String("tracking_number", trackingNumber),
		zap.String("carrier", carrierName),
	)
}

// Unregister removes a shipment from the active-tracking registry.
func (s *Service) Unregister(trackingNumber string) {
	s.mu.Lock()
	delete(s.active, trackingNumber)
	s.metrics.ActiveTracked.Set(float64(len(s.active)))
	s.mu.Unlock()
}

// Active returns a snapshot of the registry.
func (s *Service) Active() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make(map[string]string, len(s.active))
	for tn, name := range s.active {
		snapshot[tn] = name
	}
	return snapshot
}

// PollUpdates refreshes every registered shipment concurrently. Each entry
// is isolated: a missing carrier or a failed call leaves that entry
// untouched until the next cycle and never affects siblings. A shipment
// observed as delivered is deregistered and not polled again.
func (s *Service) PollUpdates(ctx context.Context) {
	entries := s.Active()
	if len(entries) == 0 {
		s.logger.Debug("No active shipments to poll")
		return
	}

	s.metrics.PollCyclesTotal.Inc()
	s.logger.Info("Polling tracking updates", zap.Int("shipments", len(entries)))

	g, gctx := errgroup.WithContext(ctx)
	for trackingNumber, carrierName := range entries {
		g.Go(func() error {
			s.pollOne(gctx, trackingNumber, carrierName)
			return nil
		})
	}
	g.Wait()
}

func (s *Service) pollOne(ctx context.Context, trackingNumber, carrierName string) {
	ad, err := s.registry.Get(carrierName)
	if err != nil {
		s.logger.Warn("No adapter for registered shipment, skipping",
			zap.String("tracking_number", trackingNumber),
			zap.String("carrier", carrierName),
		)
		return
	}

	start := time.Now()
	result, err := ad.GetTracking(ctx, trackingNumber)
	s.metrics.RecordRequest("poll_tracking", carrierName, requestStatus(err), time.Since(start).Seconds())
	if err != nil {
		s.logger.Warn("Tracking poll failed for shipment",
			zap.String("tracking_number", trackingNumber),
			zap.String("carrier", carrierName),
			zap.Error(err),
		)
		return
	}

	s.writeCache(ctx, cache.TrackingKey(trackingNumber), result)

	if result.Status.Terminal() {
		s.Unregister(trackingNumber)
		s.logger.Info("Shipment delivered, deregistered from polling",
			zap.String("tracking_number", trackingNumber),
			zap.String("carrier", carrierName),
		)
	}
}

func (s *Service) readCache(ctx context.Context, key string) (*carrier.TrackingResult, bool) {
	if s.store == nil {
		return nil, false
	}
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Tracking cache read failed", zap.String("key", key), zap.Error(err))
			s.metrics.RecordCacheLookup("tracking", "error")
		} else {
			s.metrics.RecordCacheLookup("tracking", "miss")
		}
		return nil, false
	}

	var result carrier.TrackingResult
	if err := json.Unmarshal(raw, &result); err != nil {
		s.logger.Warn("Tracking cache entry corrupt", zap.String("key", key), zap.Error(err))
		s.metrics.RecordCacheLookup("tracking", "error")
		return nil, false
	}
	s.metrics.RecordCacheLookup("tracking", "hit")
	return &result, true
}

func (s *Service) writeCache(ctx context.Context, key string, result *carrier.TrackingResult) {
	if s.store == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		s.logger.Warn("Tracking cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.store.Set(ctx, key, raw, s.trackingTTL); err != nil {
		s.logger.Warn("Tracking cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func requestStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
