// Package gateway integrates a REST shipping-gateway backend as a carrier
// adapter. The gateway multiplexes several downstream carriers behind a
// single JSON API.
package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/parcelgrid/shipping/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const defaultName = "gateway"

// Config holds gateway configuration.
type Config struct {
	Name    string // carrier name reported to the registry, defaults to "gateway"
	APIKey  string
	BaseURL string
	UseMock bool // when true, uses a mock API client
}

// Client is the shipping-gateway carrier adapter.
// It implements the carrier.Adapter interface and delegates
// API calls to the underlying APIClient (mock or HTTP).
type Client struct {
	config    Config
	name      string
	apiClient APIClient
	logger    *otelzap.Logger
}

// New creates a new gateway client.
// If cfg.UseMock is true, it uses a mock API client for testing.
// Otherwise, it uses the real HTTP API client.
func New(cfg Config, logger *otelzap.Logger) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Timeout: 30 * time.Second,
		})
	}

	return NewWithAPIClient(cfg, apiClient, logger)
}

// NewWithAPIClient creates a new gateway client with a custom API client.
// This is useful for injecting mock clients in tests.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger) *Client {
	name := cfg.Name
	if name == "" {
		name = defaultName
	}
	return &Client{
		config:    cfg,
		name:      name,
		apiClient: apiClient,
		logger:    logger,
	}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return c.name
}

// GetRates returns shipping rates from the gateway.
func (c *Client) GetRates(ctx context.Context, req *carrier.RateRequest) ([]carrier.Rate, error) {
	c.logger.Debug("Getting gateway rates",
		zap.String("origin_postal", req.ShipFrom.PostalCode),
		zap.String("destination_postal", req.ShipTo.PostalCode),
		zap.Int("package_count", len(req.Packages)),
	)

	apiReq := &RatesRequest{
		Origin:      addressToPayload(req.ShipFrom),
		Destination: addressToPayload(req.ShipTo),
		Packages:    packagesToPayload(req.Packages),
	}

	apiResp, err := c.apiClient.GetRates(ctx, apiReq)
	if err != nil {
		c.logger.Error("Gateway API error", zap.Error(err))
		return nil, c.wrapError("RATES_FAILED", err)
	}

	rates := make([]carrier.Rate, len(apiResp.Rates))
	for i, r := range apiResp.Rates {
		rates[i] = carrier.Rate{
			Carrier:           c.name,
			ServiceName:       r.ServiceName,
			ServiceCode:       r.ServiceCode,
			TotalCharge:       r.TotalCharge,
			Currency:          r.Currency,
			EstimatedDelivery: parseTimestamp(r.EstimatedDelivery),
			Guaranteed:        r.Guaranteed,
			SaturdayDelivery:  r.SaturdayDelivery,
		}
		if r.TransitDays > 0 {
			days := r.TransitDays
			rates[i].TransitDays = &days
		}
	}
	return rates, nil
}

// CreateShipment creates a shipment and label with the gateway.
func (c *Client) CreateShipment(ctx context.Context, req *carrier.ShipmentRequest) (*carrier.ShipmentResult, error) {
	c.logger.Info("Creating gateway shipment",
		zap.String("service_code", req.ServiceCode),
		zap.String("destination_postal", req.ShipTo.PostalCode),
	)

	apiReq := &ShipmentRequest{
		Origin:      addressToPayload(req.ShipFrom),
		Destination: addressToPayload(req.ShipTo),
		Packages:    packagesToPayload(req.Packages),
		ServiceCode: req.ServiceCode,
		LabelFormat: string(req.LabelFormat),
	}

	apiResp, err := c.apiClient.CreateShipment(ctx, apiReq)
	if err != nil {
		c.logger.Error("Gateway API error", zap.Error(err))
		return nil, c.wrapError("SHIPMENT_FAILED", err)
	}

	return &carrier.ShipmentResult{
		TrackingNumber:    apiResp.TrackingNumber,
		Carrier:           c.name,
		LabelURL:          apiResp.LabelURL,
		LabelFormat:       carrier.LabelFormat(apiResp.LabelFormat),
		EstimatedDelivery: parseTimestamp(apiResp.EstimatedDelivery),
	}, nil
}

// GetTracking retrieves tracking state from the gateway.
func (c *Client) GetTracking(ctx context.Context, trackingNumber string) (*carrier.TrackingResult, error) {
	apiResp, err := c.apiClient.GetTracking(ctx, trackingNumber)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 404 {
			return nil, carrier.NewCarrierError(c.name, "TRACKING_NOT_FOUND", apiErr.Message).
				WithStatusCode(404).
				WithCause(carrier.ErrTrackingNotFound)
		}
		c.logger.Error("Gateway API error", zap.Error(err))
		return nil, c.wrapError("TRACKING_FAILED", err)
	}

	events := make([]carrier.TrackingEvent, len(apiResp.Events))
	for i, e := range apiResp.Events {
		var ts time.Time
		if parsed := parseTimestamp(e.Timestamp); parsed != nil {
			ts = *parsed
		}
		events[i] = carrier.TrackingEvent{
			Timestamp:   ts,
			Status:      carrier.TrackingStatus(e.Status),
			Description: e.Description,
			Location:    e.Location,
		}
	}

	return &carrier.TrackingResult{
		TrackingNumber:    apiResp.TrackingNumber,
		Carrier:           c.name,
		Status:            carrier.TrackingStatus(apiResp.Status),
		EstimatedDelivery: parseTimestamp(apiResp.EstimatedDelivery),
		Events:            events,
	}, nil
}

// ValidateAddress checks an address with the gateway.
func (c *Client) ValidateAddress(ctx context.Context, addr *carrier.Address) (*carrier.AddressValidation, error) {
	payload := addressToPayload(*addr)
	apiResp, err := c.apiClient.ValidateAddress(ctx, &payload)
	if err != nil {
		c.logger.Error("Gateway API error", zap.Error(err))
		return nil, c.wrapError("VALIDATION_FAILED", err)
	}

	validation := &carrier.AddressValidation{
		Valid:       apiResp.Valid,
		Suggestions: make([]carrier.Address, len(apiResp.Suggestions)),
		IsPOBox:     apiResp.IsPOBox,
	}
	if apiResp.Corrected != nil {
		corrected := payloadToAddress(*apiResp.Corrected)
		validation.Corrected = &corrected
	}
	for i, s := range apiResp.Suggestions {
		validation.Suggestions[i] = payloadToAddress(s)
	}
	return validation, nil
}

func (c *Client) wrapError(code string, err error) error {
	retryable := false
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 500 {
		retryable = true
	}
	return carrier.NewCarrierError(c.name, code, "gateway call failed").
		WithCause(err).
		WithRetryable(retryable)
}

// ============================================================================
// Conversion helpers
// ============================================================================

func addressToPayload(addr carrier.Address) AddressPayload {
	return AddressPayload{
		Line1:       addr.Line1,
		Line2:       addr.Line2,
		City:        addr.City,
		Province:    addr.Province,
		PostalCode:  addr.PostalCode,
		Country:     addr.CountryCode,
		Warehouse:   addr.Warehouse,
		ContactName: addr.ContactName,
	}
}

func payloadToAddress(p AddressPayload) carrier.Address {
	return carrier.Address{
		Line1:       p.Line1,
		Line2:       p.Line2,
		City:        p.City,
		Province:    p.Province,
		PostalCode:  p.PostalCode,
		CountryCode: p.Country,
		Warehouse:   p.Warehouse,
		ContactName: p.ContactName,
	}
}

func packagesToPayload(pkgs []carrier.Package) []PackagePayload {
	result := make([]PackagePayload, len(pkgs))
	for i, p := range pkgs {
		result[i] = PackagePayload{
			Length:        p.Length,
			Width:         p.Width,
			Height:        p.Height,
			DimensionUnit: string(p.DimensionUnit),
			Weight:        p.Weight,
			WeightUnit:    string(p.WeightUnit),
		}
	}
	return result
}

func parseTimestamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	return nil
}
