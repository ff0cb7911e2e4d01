package server_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/parcelgrid/shipping/internal/labels"
	"github.com/parcelgrid/shipping/internal/rates"
	"github.com/parcelgrid/shipping/internal/server"
	"github.com/parcelgrid/shipping/internal/telemetry"
	"github.com/parcelgrid/shipping/internal/tracking"
	"github.com/parcelgrid/shipping/pkg/carrier"
	"github.com/parcelgrid/shipping/pkg/carrier/stub"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	handler http.Handler
	tracker *tracking.Service
}

func newFixture(t *testing.T, adapters ...carrier.Adapter) *fixture {
	t.Helper()

	registry := carrier.NewRegistry()
	for _, ad := range adapters {
		registry.Register(ad)
	}

	logger := telemetry.NopLogger()
	metrics := telemetry.NewMetrics(prometheus.NewRegistry())

	aggregator := rates.New(registry, nil, logger, metrics)
	issuer := labels.New(registry, logger, metrics)
	tracker := tracking.New(registry, nil, logger, metrics)

	srv := server.New(server.Config{Port: 0}, registry, aggregator, issuer, tracker, logger)
	return &fixture{handler: srv.Handler(), tracker: tracker}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func rateRequestBody() map[string]any {
	return map[string]any{
		"shipFrom": map[string]any{"postalCode": "43215", "countryCode": "US"},
		"shipTo":   map[string]any{"postalCode": "60601", "countryCode": "US"},
		"packages": []map[string]any{
			{"weight": 5, "weightUnit": "lb", "length": 12, "width": 8, "height": 6, "dimensionUnit": "in"},
		},
	}
}

func shipmentBody(serviceCode string) map[string]any {
	body := rateRequestBody()
	body["serviceCode"] = serviceCode
	body["labelFormat"] = "pdf"
	return body
}

func TestHealth(t *testing.T) {
	f := newFixture(t, stub.New("velocity"))

	rec := f.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMetricsExposed(t *testing.T) {
	f := newFixture(t, stub.New("velocity"))

	rec := f.do(t, http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRates_Success(t *testing.T) {
	f := newFixture(t, stub.New("velocity"), stub.New("northwind"))

	rec := f.do(t, http.MethodPost, "/rates", rateRequestBody())
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[carrier.RateResponse](t, rec)
	require.Len(t, resp.Rates, 4)
	assert.False(t, resp.Cached)
	for i := 1; i < len(resp.Rates); i++ {
		assert.LessOrEqual(t, resp.Rates[i-1].TotalCharge, resp.Rates[i].TotalCharge)
	}
}

func TestRates_AllCarriersDownIsStillOK(t *testing.T) {
	f := newFixture(t, stub.New("velocity", stub.WithError(errors.New("down"))))

	rec := f.do(t, http.MethodPost, "/rates", rateRequestBody())
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[carrier.RateResponse](t, rec)
	assert.Empty(t, resp.Rates)
}

func TestRates_BadRequest(t *testing.T) {
	f := newFixture(t, stub.New("velocity"))

	rec := f.do(t, http.MethodPost, "/rates", map[string]any{
		"shipFrom": map[string]any{"postalCode": "43215", "countryCode": "US"},
		"shipTo":   map[string]any{"postalCode": "60601", "countryCode": "US"},
		"packages": []map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/rates", strings.NewReader("{not json"))
	rec2 := httptest.NewRecorder()
	f.handler.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusBadRequest, rec2.Code)
}

func TestValidateAddress(t *testing.T) {
	f := newFixture(t, stub.New("velocity"))

	rec := f.do(t, http.MethodPost, "/validate-address", map[string]any{
		"line1":       "PO Box 42",
		"city":        "Columbus",
		"postalCode":  "43215",
		"countryCode": "US",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	v := decode[carrier.AddressValidation](t, rec)
	assert.True(t, v.Valid)
	assert.True(t, v.IsPOBox)
}

func TestValidateAddress_NoCarriers(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/validate-address", map[string]any{
		"line1": "100 Main St", "city": "Columbus", "postalCode": "43215", "countryCode": "US",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	v := decode[carrier.AddressValidation](t, rec)
	assert.False(t, v.Valid)
}

func TestCreateLabel_RegistersForTracking(t *testing.T) {
	f := newFixture(t, stub.New("velocity"), stub.New("northwind"))

	rec := f.do(t, http.MethodPost, "/labels", shipmentBody("NORTHWIND_GROUND"))
	require.Equal(t, http.StatusCreated, rec.Code)

	result := decode[carrier.ShipmentResult](t, rec)
	assert.Equal(t, "northwind", result.Carrier)
	assert.NotEmpty(t, result.TrackingNumber)
	assert.NotEmpty(t, result.LabelURL)

	assert.Equal(t, "northwind", f.tracker.Active()[result.TrackingNumber],
		"issued label enters the poller registry")
}

func TestCreateLabel_NoCarriers(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/labels", shipmentBody("VELOCITY_GROUND"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateLabel_CarrierFailure(t *testing.T) {
	f := newFixture(t, stub.New("velocity", stub.WithError(errors.New("upstream rejected"))))

	rec := f.do(t, http.MethodPost, "/labels", shipmentBody("VELOCITY_GROUND"))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestCreateBatch(t *testing.T) {
	f := newFixture(t,
		stub.New("velocity"),
		stub.New("northwind", stub.WithError(errors.New("northwind offline"))),
	)

	rec := f.do(t, http.MethodPost, "/labels/batch", map[string]any{
		"shipments": []map[string]any{
			shipmentBody("VELOCITY_GROUND"),
			shipmentBody("NORTHWIND_GROUND"),
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	batch := decode[carrier.BatchResult](t, rec)
	assert.Equal(t, 1, batch.TotalSucceeded)
	assert.Equal(t, 1, batch.TotalFailed)
	require.Len(t, batch.Results, 2)

	assert.Len(t, f.tracker.Active(), 1, "only successful items are registered")
}

func TestCreateBatch_NullElement(t *testing.T) {
	f := newFixture(t, stub.New("velocity"))

	req := httptest.NewRequest(http.MethodPost, "/labels/batch",
		strings.NewReader(`{"shipments":[null]}`))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	batch := decode[carrier.BatchResult](t, rec)
	assert.Equal(t, 0, batch.TotalSucceeded)
	assert.Equal(t, 1, batch.TotalFailed)
	require.Len(t, batch.Results, 1)
	assert.False(t, batch.Results[0].Success)

	assert.Empty(t, f.tracker.Active())
}

func TestCreateBatch_Empty(t *testing.T) {
	f := newFixture(t, stub.New("velocity"))

	rec := f.do(t, http.MethodPost, "/labels/batch", map[string]any{"shipments": []map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTracking_RoundTrip(t *testing.T) {
	f := newFixture(t, stub.New("velocity"))

	created := f.do(t, http.MethodPost, "/labels", shipmentBody("VELOCITY_GROUND"))
	require.Equal(t, http.StatusCreated, created.Code)
	shipment := decode[carrier.ShipmentResult](t, created)

	rec := f.do(t, http.MethodGet, "/tracking/"+shipment.TrackingNumber, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	result := decode[carrier.TrackingResult](t, rec)
	assert.Equal(t, shipment.TrackingNumber, result.TrackingNumber)
	assert.Equal(t, carrier.StatusLabelCreated, result.Status)
	assert.NotEmpty(t, result.Events)
}

func TestTracking_NotFound(t *testing.T) {
	f := newFixture(t, stub.New("velocity"))

	rec := f.do(t, http.MethodGet, "/tracking/UNKNOWN-123", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	resp := decode[map[string]string](t, rec)
	assert.Contains(t, resp["error"], "UNKNOWN-123")
}
