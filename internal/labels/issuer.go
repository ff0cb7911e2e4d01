// Package labels issues shipping labels, routing each request to the
// carrier that owns its service code.
package labels

import (
	"context"
	"time"

	"github.com/parcelgrid/shipping/internal/telemetry"
	"github.com/parcelgrid/shipping/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Issuer creates shipments through the carrier registry.
type Issuer struct {
	registry *carrier.Registry
	logger   *otelzap.Logger
	metrics  *telemetry.Metrics
}

// New creates a label issuer.
func New(registry *carrier.Registry, logger *otelzap.Logger, metrics *telemetry.Metrics) *Issuer {
	return &Issuer{
		registry: registry,
		logger:   logger,
		metrics:  metrics,
	}
}

// CreateLabel routes a single shipment request to the adapter matching its
// service code and returns the issued label. A carrier failure propagates
// to the caller; there is no retry.
func (s *Issuer) CreateLabel(ctx context.Context, req *carrier.ShipmentRequest) (*carrier.ShipmentResult, error) {
	ad, err := s.registry.ResolveServiceCode(req.ServiceCode)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := ad.CreateShipment(ctx, req)
	s.metrics.RecordRequest("create_label", ad.Name(), status(err), time.Since(start).Seconds())
	if err != nil {
		s.logger.Error("Shipment creation failed",
			zap.String("carrier", ad.Name()),
			zap.String("service_code", req.ServiceCode),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("Label issued",
		zap.String("carrier", ad.Name()),
		zap.String("tracking_number", result.TrackingNumber),
	)
	return result, nil
}

// CreateBatch issues all shipments concurrently with per-item failure
// isolation: one failed item becomes a failure record instead of aborting
// its siblings. Results keep input order and carry explicit indices.
// Empty input is rejected before any carrier is contacted.
func (s *Issuer) CreateBatch(ctx context.Context, reqs []*carrier.ShipmentRequest) (*carrier.BatchResult, error) {
	if len(reqs) == 0 {
		return nil, carrier.ErrEmptyBatch
	}

	results := make([]carrier.BatchItemResult, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		if req == nil {
			// A null array element decodes to a nil request. It becomes a
			// failure record like any other bad item, never a panic.
			results[i] = carrier.BatchItemResult{
				Index:   i,
				Success: false,
				Error:   "shipment request is null",
			}
			continue
		}
		g.Go(func() error {
			shipment, err := s.CreateLabel(gctx, req)
			if err != nil {
				results[i] = carrier.BatchItemResult{
					Index:   i,
					Success: false,
					Error:   err.Error(),
				}
				return nil
			}
			results[i] = carrier.BatchItemResult{
				Index:    i,
				Success:  true,
				Shipment: shipment,
			}
			return nil
		})
	}
	g.Wait()

	batch := &carrier.BatchResult{Results: results}
	for _, r := range results {
		if r.Success {
			batch.TotalSucceeded++
		} else {
			batch.TotalFailed++
		}
	}

	s.logger.Info("Batch labels issued",
		zap.Int("total", len(reqs)),
		zap.Int("succeeded", batch.TotalSucceeded),
		zap.Int("failed", batch.TotalFailed),
	)
	return batch, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
