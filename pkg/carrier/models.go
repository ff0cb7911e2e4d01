package carrier

import (
	"time"
)

// TrackingStatus represents the normalized status of a tracked shipment.
type TrackingStatus string

const (
	StatusLabelCreated   TrackingStatus = "label_created"
	StatusPickedUp       TrackingStatus = "picked_up"
	StatusInTransit      TrackingStatus = "in_transit"
	StatusOutForDelivery TrackingStatus = "out_for_delivery"
	StatusDelivered      TrackingStatus = "delivered"
)

// Terminal reports whether no further updates are expected for this status.
// Only delivered shipments stop being polled.
func (s TrackingStatus) Terminal() bool {
	return s == StatusDelivered
}

// WeightUnit represents weight measurement unit.
type WeightUnit string

const (
	WeightLB WeightUnit = "lb"
	WeightKG WeightUnit = "kg"
	WeightOZ WeightUnit = "oz"
)

// DimensionUnit represents dimension measurement unit.
type DimensionUnit string

const (
	DimensionIN DimensionUnit = "in"
	DimensionCM DimensionUnit = "cm"
)

// LabelFormat represents the format of shipping labels.
type LabelFormat string

const (
	LabelPDF LabelFormat = "pdf"
	LabelPNG LabelFormat = "png"
	LabelZPL LabelFormat = "zpl"
)

// Address represents a ship-from or ship-to postal address.
type Address struct {
	Line1       string `json:"line1"`
	Line2       string `json:"line2,omitempty"`
	City        string `json:"city"`
	Province    string `json:"province"`
	PostalCode  string `json:"postalCode"`
	CountryCode string `json:"countryCode"` // ISO 3166-1 alpha-2, e.g. "US", "CA"
	Warehouse   string `json:"warehouse,omitempty"`
	ContactName string `json:"contactName,omitempty"`
}

// Package represents one parcel in a rate or shipment request.
type Package struct {
	Weight        float64       `json:"weight"`
	WeightUnit    WeightUnit    `json:"weightUnit"`
	Length        float64       `json:"length"`
	Width         float64       `json:"width"`
	Height        float64       `json:"height"`
	DimensionUnit DimensionUnit `json:"dimensionUnit"`
}

// RateRequest is the input for a multi-carrier rate quote.
type RateRequest struct {
	ShipFrom Address   `json:"shipFrom"`
	ShipTo   Address   `json:"shipTo"`
	Packages []Package `json:"packages"`
}

// Rate is one shipping rate option produced by a carrier. Rates are
// immutable once created; aggregation only collects and sorts them.
type Rate struct {
	Carrier           string     `json:"carrier"`
	ServiceName       string     `json:"serviceName"`
	ServiceCode       string     `json:"serviceCode"`
	TotalCharge       int64      `json:"totalCharge"` // minor currency units
	Currency          string     `json:"currency"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery,omitempty"`
	TransitDays       *int       `json:"transitDays,omitempty"`
	Guaranteed        bool       `json:"guaranteed"`
	SaturdayDelivery  bool       `json:"saturdayDelivery"`
}

// RateResponse is the aggregated response for a rate request. Rates are
// ordered ascending by TotalCharge. Cached indicates the response came
// from the cache store rather than a live carrier fan-out.
type RateResponse struct {
	ShipFrom Address   `json:"shipFrom"`
	ShipTo   Address   `json:"shipTo"`
	Packages []Package `json:"packages"`
	Rates    []Rate    `json:"rates"`
	Cached   bool      `json:"cached"`
}

// ShipmentRequest is the input for creating a shipment and label.
type ShipmentRequest struct {
	ShipFrom    Address     `json:"shipFrom"`
	ShipTo      Address     `json:"shipTo"`
	Packages    []Package   `json:"packages"`
	ServiceCode string      `json:"serviceCode"`
	LabelFormat LabelFormat `json:"labelFormat"`
}

// ShipmentResult is the carrier's answer to a successful shipment
// creation. Immutable once issued.
type ShipmentResult struct {
	TrackingNumber    string      `json:"trackingNumber"`
	Carrier           string      `json:"carrier"`
	LabelURL          string      `json:"labelUrl"`
	LabelFormat       LabelFormat `json:"labelFormat"`
	EstimatedDelivery *time.Time  `json:"estimatedDelivery,omitempty"`
}

// TrackingEvent is one scan event in a shipment's history.
type TrackingEvent struct {
	Timestamp   time.Time      `json:"timestamp"`
	Status      TrackingStatus `json:"status"`
	Description string         `json:"description"`
	Location    string         `json:"location,omitempty"`
}

// TrackingResult is a full tracking snapshot for one shipment. Events are
// chronological, oldest first. Each successful carrier call produces a
// fresh snapshot that replaces any cached value.
type TrackingResult struct {
	TrackingNumber    string          `json:"trackingNumber"`
	Carrier           string          `json:"carrier"`
	Status            TrackingStatus  `json:"status"`
	EstimatedDelivery *time.Time      `json:"estimatedDelivery,omitempty"`
	Events            []TrackingEvent `json:"events"`
}

// AddressValidation is the result of a best-effort address check.
type AddressValidation struct {
	Valid       bool      `json:"valid"`
	Corrected   *Address  `json:"corrected"`
	Suggestions []Address `json:"suggestions"`
	IsPOBox     bool      `json:"isPOBox"`
}

// BatchItemResult is the outcome of one shipment in a batch. Index refers
// to the position in the input list and survives transport reordering.
type BatchItemResult struct {
	Index    int             `json:"index"`
	Success  bool            `json:"success"`
	Shipment *ShipmentResult `json:"shipment,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// BatchResult aggregates per-item outcomes of a batch label run.
// Results are ordered to match the input.
type BatchResult struct {
	TotalSucceeded int               `json:"totalSucceeded"`
	TotalFailed    int               `json:"totalFailed"`
	Results        []BatchItemResult `json:"results"`
}
