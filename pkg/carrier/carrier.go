// Package carrier provides an abstraction layer for shipping carriers.
package carrier

import (
	"context"
)

// Adapter defines the interface that all shipping carrier backends must implement.
type Adapter interface {
	// Name returns the carrier identifier (e.g., "ups", "fedex", "gateway").
	Name() string

	// GetRates returns shipping rate quotes for a rate request.
	GetRates(ctx context.Context, req *RateRequest) ([]Rate, error)

	// CreateShipment creates a shipment with the carrier and returns the
	// issued label. Tracking numbers are globally unique per carrier.
	CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResult, error)

	// GetTracking retrieves the tracking state for a tracking number.
	// Returns an error wrapping ErrTrackingNotFound when the number is
	// unknown to this carrier.
	GetTracking(ctx context.Context, trackingNumber string) (*TrackingResult, error)

	// ValidateAddress performs a best-effort validation of an address.
	ValidateAddress(ctx context.Context, addr *Address) (*AddressValidation, error)
}
