package stub_test

import (
	"context"
	"errors"
	"testing"

	"github.com/parcelgrid/shipping/pkg/carrier"
	"github.com/parcelgrid/shipping/pkg/carrier/stub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rateReq = &carrier.RateRequest{
	ShipFrom: carrier.Address{PostalCode: "43215", CountryCode: "US"},
	ShipTo:   carrier.Address{PostalCode: "60601", CountryCode: "US"},
	Packages: []carrier.Package{
		{Weight: 5, WeightUnit: carrier.WeightLB, Length: 12, Width: 8, Height: 6, DimensionUnit: carrier.DimensionIN},
	},
}

func TestStub_GetRates(t *testing.T) {
	adapter := stub.New("velocity")

	rates, err := adapter.GetRates(context.Background(), rateReq)
	require.NoError(t, err)
	require.Len(t, rates, 2)

	for _, r := range rates {
		assert.Equal(t, "velocity", r.Carrier)
		assert.Equal(t, "USD", r.Currency)
		assert.Positive(t, r.TotalCharge)
	}
	assert.Equal(t, "VELOCITY_GROUND", rates[0].ServiceCode)
	assert.Equal(t, "VELOCITY_EXPRESS", rates[1].ServiceCode)

	// Deterministic pricing: same request, same charges.
	again, err := adapter.GetRates(context.Background(), rateReq)
	require.NoError(t, err)
	assert.Equal(t, rates[0].TotalCharge, again[0].TotalCharge)
	assert.Equal(t, rates[1].TotalCharge, again[1].TotalCharge)
}

func TestStub_GetRates_Error(t *testing.T) {
	boom := errors.New("carrier down")
	adapter := stub.New("velocity", stub.WithError(boom))

	_, err := adapter.GetRates(context.Background(), rateReq)
	assert.ErrorIs(t, err, boom)
}

func TestStub_CreateShipment_UniqueTrackingNumbers(t *testing.T) {
	adapter := stub.New("velocity")

	req := &carrier.ShipmentRequest{
		ShipTo:      carrier.Address{City: "Chicago", PostalCode: "60601", CountryCode: "US"},
		ServiceCode: "VELOCITY_GROUND",
	}

	first, err := adapter.CreateShipment(context.Background(), req)
	require.NoError(t, err)
	second, err := adapter.CreateShipment(context.Background(), req)
	require.NoError(t, err)

	assert.NotEqual(t, first.TrackingNumber, second.TrackingNumber)
	assert.Equal(t, carrier.LabelPDF, first.LabelFormat, "default format is pdf")
	assert.Contains(t, first.LabelURL, first.TrackingNumber)
}

func TestStub_GetTracking_IssuedShipment(t *testing.T) {
	adapter := stub.New("velocity")

	shipment, err := adapter.CreateShipment(context.Background(), &carrier.ShipmentRequest{
		ShipTo:      carrier.Address{City: "Chicago"},
		ServiceCode: "VELOCITY_GROUND",
	})
	require.NoError(t, err)

	result, err := adapter.GetTracking(context.Background(), shipment.TrackingNumber)
	require.NoError(t, err)

	assert.Equal(t, shipment.TrackingNumber, result.TrackingNumber)
	assert.Equal(t, "velocity", result.Carrier)
	assert.Equal(t, carrier.StatusLabelCreated, result.Status, "fresh shipment starts at label_created")
	require.NotEmpty(t, result.Events)

	// Events are chronological, oldest first.
	for i := 1; i < len(result.Events); i++ {
		assert.False(t, result.Events[i].Timestamp.Before(result.Events[i-1].Timestamp))
	}
}

func TestStub_GetTracking_Unknown(t *testing.T) {
	adapter := stub.New("velocity")

	_, err := adapter.GetTracking(context.Background(), "NO-SUCH-NUMBER")
	assert.ErrorIs(t, err, carrier.ErrTrackingNotFound)
}

func TestStub_ValidateAddress_POBox(t *testing.T) {
	adapter := stub.New("velocity")

	tests := []struct {
		line1   string
		isPOBox bool
	}{
		{"PO Box 123", true},
		{"po box 456", true},
		{"789 Main Street", false},
	}
	for _, tt := range tests {
		t.Run(tt.line1, func(t *testing.T) {
			result, err := adapter.ValidateAddress(context.Background(), &carrier.Address{Line1: tt.line1})
			require.NoError(t, err)
			assert.True(t, result.Valid)
			assert.Equal(t, tt.isPOBox, result.IsPOBox)
		})
	}
}
