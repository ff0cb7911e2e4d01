package gateway

import (
	"context"
	"fmt"
)

// APIClient defines the interface for shipping-gateway API operations.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// GetRates fetches shipping rates from the gateway API
	GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error)

	// CreateShipment creates a new shipment and label
	CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error)

	// GetTracking retrieves tracking information
	GetTracking(ctx context.Context, trackingNumber string) (*TrackingResponse, error)

	// ValidateAddress checks a shipping address
	ValidateAddress(ctx context.Context, req *AddressPayload) (*ValidationResponse, error)
}

// ============================================================================
// API Request/Response Types (match the gateway REST API structure)
// ============================================================================

// AddressPayload is the wire form of a postal address.
type AddressPayload struct {
	Line1       string `json:"line1"`
	Line2       string `json:"line2,omitempty"`
	City        string `json:"city"`
	Province    string `json:"province"`
	PostalCode  string `json:"postal_code"`
	Country     string `json:"country"` // ISO 3166-1 alpha-2 code
	Warehouse   string `json:"warehouse,omitempty"`
	ContactName string `json:"contact_name,omitempty"`
}

// PackagePayload is the wire form of a parcel.
type PackagePayload struct {
	Length        float64 `json:"length"`
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	DimensionUnit string  `json:"dimension_unit"`
	Weight        float64 `json:"weight"`
	WeightUnit    string  `json:"weight_unit"`
}

// RatesRequest represents a gateway rate quote request.
// POST /rates endpoint
type RatesRequest struct {
	Origin      AddressPayload   `json:"origin"`
	Destination AddressPayload   `json:"destination"`
	Packages    []PackagePayload `json:"packages"`
}

// RatesResponse represents the gateway rate quote response.
type RatesResponse struct {
	Rates []RatePayload `json:"rates"`
}

// RatePayload represents a single shipping rate option.
type RatePayload struct {
	ServiceCode       string `json:"service_code"`
	ServiceName       string `json:"service_name"`
	TotalCharge       int64  `json:"total_charge"` // minor currency units
	Currency          string `json:"currency"`
	TransitDays       int    `json:"transit_days,omitempty"`
	EstimatedDelivery string `json:"estimated_delivery,omitempty"` // RFC 3339
	Guaranteed        bool   `json:"guaranteed"`
	SaturdayDelivery  bool   `json:"saturday_delivery"`
}

// ShipmentRequest represents a gateway shipment creation request.
// POST /shipments endpoint
type ShipmentRequest struct {
	Origin      AddressPayload   `json:"origin"`
	Destination AddressPayload   `json:"destination"`
	Packages    []PackagePayload `json:"packages"`
	ServiceCode string           `json:"service_code"`
	LabelFormat string           `json:"label_format,omitempty"`
}

// ShipmentResponse represents the gateway shipment creation response.
type ShipmentResponse struct {
	TrackingNumber    string `json:"tracking_number"`
	LabelURL          string `json:"label_url"`
	LabelFormat       string `json:"label_format"`
	EstimatedDelivery string `json:"estimated_delivery,omitempty"` // RFC 3339
}

// TrackingResponse represents the gateway tracking response.
// GET /tracking/{tracking_number} endpoint
type TrackingResponse struct {
	TrackingNumber    string         `json:"tracking_number"`
	Status            string         `json:"status"`
	EstimatedDelivery string         `json:"estimated_delivery,omitempty"` // RFC 3339
	Events            []EventPayload `json:"events"`
}

// EventPayload represents a single tracking scan event.
type EventPayload struct {
	Timestamp   string `json:"timestamp"` // RFC 3339
	Status      string `json:"status"`
	Description string `json:"description"`
	Location    string `json:"location,omitempty"`
}

// ValidationResponse represents the gateway address validation response.
// POST /address/validate endpoint
type ValidationResponse struct {
	Valid       bool             `json:"valid"`
	Corrected   *AddressPayload  `json:"corrected,omitempty"`
	Suggestions []AddressPayload `json:"suggestions,omitempty"`
	IsPOBox     bool             `json:"is_po_box"`
}

// APIError represents an error from the gateway API.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("gateway API error (%s): %s", e.Code, e.Message)
}
