package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnGetRates        func(ctx context.Context, req *RatesRequest) (*RatesResponse, error)
	OnCreateShipment  func(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error)
	OnGetTracking     func(ctx context.Context, trackingNumber string) (*TrackingResponse, error)
	OnValidateAddress func(ctx context.Context, req *AddressPayload) (*ValidationResponse, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

func (m *MockAPIClient) simulate() error {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}
	if m.SimulateErrors {
		return &APIError{Code: "MOCK_ERROR", Message: "Simulated API error"}
	}
	return nil
}

// GetRates returns mock shipping rates.
func (m *MockAPIClient) GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGetRates != nil {
		return m.OnGetRates(ctx, req)
	}

	return &RatesResponse{
		Rates: []RatePayload{
			{
				ServiceCode:       "GW_GROUND",
				ServiceName:       "Gateway Ground",
				TotalCharge:       1099,
				Currency:          "USD",
				TransitDays:       4,
				EstimatedDelivery: time.Now().AddDate(0, 0, 4).Format(time.RFC3339),
			},
			{
				ServiceCode:       "GW_EXPRESS",
				ServiceName:       "Gateway Express",
				TotalCharge:       2899,
				Currency:          "USD",
				TransitDays:       1,
				EstimatedDelivery: time.Now().AddDate(0, 0, 1).Format(time.RFC3339),
				Guaranteed:        true,
			},
		},
	}, nil
}

// CreateShipment returns a mock shipment with a unique tracking number.
func (m *MockAPIClient) CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCreateShipment != nil {
		return m.OnCreateShipment(ctx, req)
	}

	format := req.LabelFormat
	if format == "" {
		format = "pdf"
	}
	trackingNumber := "GW" + uuid.New().String()[:13]

	return &ShipmentResponse{
		TrackingNumber:    trackingNumber,
		LabelURL:          fmt.Sprintf("https://labels.gateway.mock/%s.%s", trackingNumber, format),
		LabelFormat:       format,
		EstimatedDelivery: time.Now().AddDate(0, 0, 3).Format(time.RFC3339),
	}, nil
}

// GetTracking returns mock tracking information.
func (m *MockAPIClient) GetTracking(ctx context.Context, trackingNumber string) (*TrackingResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGetTracking != nil {
		return m.OnGetTracking(ctx, trackingNumber)
	}

	now := time.Now()
	return &TrackingResponse{
		TrackingNumber:    trackingNumber,
		Status:            "in_transit",
		EstimatedDelivery: now.AddDate(0, 0, 2).Format(time.RFC3339),
		Events: []EventPayload{
			{
				Timestamp:   now.Add(-48 * time.Hour).Format(time.RFC3339),
				Status:      "label_created",
				Description: "Shipping label created",
			},
			{
				Timestamp:   now.Add(-24 * time.Hour).Format(time.RFC3339),
				Status:      "picked_up",
				Description: "Picked up by carrier",
				Location:    "Columbus, OH",
			},
			{
				Timestamp:   now.Add(-2 * time.Hour).Format(time.RFC3339),
				Status:      "in_transit",
				Description: "In transit to destination facility",
				Location:    "Indianapolis, IN",
			},
		},
	}, nil
}

// ValidateAddress returns a mock validation result.
func (m *MockAPIClient) ValidateAddress(ctx context.Context, req *AddressPayload) (*ValidationResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnValidateAddress != nil {
		return m.OnValidateAddress(ctx, req)
	}

	return &ValidationResponse{Valid: true}, nil
}
