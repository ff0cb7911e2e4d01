package labels_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/parcelgrid/shipping/internal/labels"
	"github.com/parcelgrid/shipping/internal/telemetry"
	"github.com/parcelgrid/shipping/pkg/carrier"
	"github.com/parcelgrid/shipping/pkg/carrier/stub"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIssuer(t *testing.T, adapters ...carrier.Adapter) *labels.Issuer {
	t.Helper()
	registry := carrier.NewRegistry()
	for _, ad := range adapters {
		registry.Register(ad)
	}
	return labels.New(registry, telemetry.NopLogger(), telemetry.NewMetrics(prometheus.NewRegistry()))
}

func shipmentRequest(serviceCode string) *carrier.ShipmentRequest {
	return &carrier.ShipmentRequest{
		ShipFrom: carrier.Address{PostalCode: "43215", CountryCode: "US"},
		ShipTo:   carrier.Address{PostalCode: "60601", CountryCode: "US"},
		Packages: []carrier.Package{
			{Weight: 2, WeightUnit: carrier.WeightLB, Length: 10, Width: 8, Height: 4, DimensionUnit: carrier.DimensionIN},
		},
		ServiceCode: serviceCode,
		LabelFormat: carrier.LabelPDF,
	}
}

func TestIssuer_RoutesByServicePrefix(t *testing.T) {
	issuer := newIssuer(t, stub.New("velocity"), stub.New("northwind"))

	result, err := issuer.CreateLabel(context.Background(), shipmentRequest("NORTHWIND_GROUND"))
	require.NoError(t, err)

	assert.Equal(t, "northwind", result.Carrier)
	assert.True(t, strings.HasPrefix(result.TrackingNumber, "NORTHWIND-"))
}

func TestIssuer_UnmatchedServiceFallsBackToFirst(t *testing.T) {
	issuer := newIssuer(t, stub.New("velocity"), stub.New("northwind"))

	result, err := issuer.CreateLabel(context.Background(), shipmentRequest("DHL_EXPRESS"))
	require.NoError(t, err)

	assert.Equal(t, "velocity", result.Carrier)
}

func TestIssuer_EmptyRegistry(t *testing.T) {
	issuer := newIssuer(t)

	_, err := issuer.CreateLabel(context.Background(), shipmentRequest("VELOCITY_GROUND"))
	assert.ErrorIs(t, err, carrier.ErrCarrierNotFound)
}

func TestIssuer_CarrierErrorPropagates(t *testing.T) {
	boom := errors.New("carrier rejected shipment")
	issuer := newIssuer(t, stub.New("velocity", stub.WithError(boom)))

	_, err := issuer.CreateLabel(context.Background(), shipmentRequest("VELOCITY_GROUND"))
	assert.ErrorIs(t, err, boom)
}

func TestIssuer_EmptyBatchRejected(t *testing.T) {
	issuer := newIssuer(t, stub.New("velocity"))

	_, err := issuer.CreateBatch(context.Background(), nil)
	assert.ErrorIs(t, err, carrier.ErrEmptyBatch)

	_, err = issuer.CreateBatch(context.Background(), []*carrier.ShipmentRequest{})
	assert.ErrorIs(t, err, carrier.ErrEmptyBatch)
}

func TestIssuer_MixedBatch(t *testing.T) {
	issuer := newIssuer(t,
		stub.New("velocity"),
		stub.New("northwind", stub.WithError(errors.New("northwind offline"))),
	)

	reqs := []*carrier.ShipmentRequest{
		shipmentRequest("VELOCITY_GROUND"),
		shipmentRequest("NORTHWIND_GROUND"),
		shipmentRequest("VELOCITY_EXPRESS"),
	}

	batch, err := issuer.CreateBatch(context.Background(), reqs)
	require.NoError(t, err, "individual failures must not abort the batch")

	require.Len(t, batch.Results, 3)
	assert.Equal(t, 2, batch.TotalSucceeded)
	assert.Equal(t, 1, batch.TotalFailed)

	for i, item := range batch.Results {
		assert.Equal(t, i, item.Index)
	}

	assert.True(t, batch.Results[0].Success)
	assert.Equal(t, "velocity", batch.Results[0].Shipment.Carrier)

	assert.False(t, batch.Results[1].Success)
	assert.Nil(t, batch.Results[1].Shipment)
	assert.Contains(t, batch.Results[1].Error, "northwind offline")

	assert.True(t, batch.Results[2].Success)
	assert.Equal(t, "velocity", batch.Results[2].Shipment.Carrier)
}

func TestIssuer_BatchNilItem(t *testing.T) {
	issuer := newIssuer(t, stub.New("velocity"))

	reqs := []*carrier.ShipmentRequest{
		shipmentRequest("VELOCITY_GROUND"),
		nil,
		shipmentRequest("VELOCITY_EXPRESS"),
	}

	batch, err := issuer.CreateBatch(context.Background(), reqs)
	require.NoError(t, err, "a null item is a per-item failure, not a panic")

	require.Len(t, batch.Results, 3)
	assert.Equal(t, 2, batch.TotalSucceeded)
	assert.Equal(t, 1, batch.TotalFailed)

	assert.False(t, batch.Results[1].Success)
	assert.Equal(t, 1, batch.Results[1].Index)
	assert.Nil(t, batch.Results[1].Shipment)
	assert.Contains(t, batch.Results[1].Error, "null")
}

func TestIssuer_BatchAllFail(t *testing.T) {
	issuer := newIssuer(t, stub.New("velocity", stub.WithError(errors.New("down"))))

	reqs := []*carrier.ShipmentRequest{
		shipmentRequest("VELOCITY_GROUND"),
		shipmentRequest("VELOCITY_EXPRESS"),
	}

	batch, err := issuer.CreateBatch(context.Background(), reqs)
	require.NoError(t, err)

	assert.Equal(t, 0, batch.TotalSucceeded)
	assert.Equal(t, 2, batch.TotalFailed)
}
