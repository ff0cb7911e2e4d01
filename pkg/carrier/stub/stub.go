// Package stub provides a reference carrier adapter with deterministic
// behavior. It backs local development and tests, and doubles as the
// canonical example of the carrier.Adapter contract.
package stub

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parcelgrid/shipping/pkg/carrier"
)

// Option configures a stub adapter.
type Option func(*Adapter)

// WithDelay makes every call sleep for d before responding, honoring
// context cancellation. Used to exercise timeout and ordering behavior.
func WithDelay(d time.Duration) Option {
	return func(a *Adapter) { a.delay = d }
}

// WithError makes every call fail with err.
func WithError(err error) Option {
	return func(a *Adapter) { a.err = err }
}

// WithRates overrides the canned rates returned by GetRates.
func WithRates(rates []carrier.Rate) Option {
	return func(a *Adapter) { a.rates = rates }
}

// Adapter is a deterministic in-memory carrier.
type Adapter struct {
	name  string
	delay time.Duration
	err   error
	rates []carrier.Rate

	mu        sync.Mutex
	shipments map[string]issuedShipment
}

type issuedShipment struct {
	issuedAt time.Time
	shipTo   carrier.Address
}

// New creates a stub adapter with the given carrier name.
func New(name string, opts ...Option) *Adapter {
	a := &Adapter{
		name:      name,
		shipments: make(map[string]issuedShipment),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the carrier name.
func (a *Adapter) Name() string {
	return a.name
}

func (a *Adapter) wait(ctx context.Context) error {
	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return a.err
}

// GetRates returns two deterministic rate options priced from the total
// billed weight of the request.
func (a *Adapter) GetRates(ctx context.Context, req *carrier.RateRequest) ([]carrier.Rate, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}
	if a.rates != nil {
		return a.rates, nil
	}

	var weight float64
	for _, pkg := range req.Packages {
		weight += pkg.Weight
	}

	now := time.Now()
	ground := now.Add(5 * 24 * time.Hour)
	express := now.Add(2 * 24 * time.Hour)
	groundDays, expressDays := 5, 2

	return []carrier.Rate{
		{
			Carrier:           a.name,
			ServiceName:       fmt.Sprintf("%s Ground", a.name),
			ServiceCode:       fmt.Sprintf("%s_GROUND", strings.ToUpper(a.name)),
			TotalCharge:       899 + int64(weight*120),
			Currency:          "USD",
			EstimatedDelivery: &ground,
			TransitDays:       &groundDays,
		},
		{
			Carrier:           a.name,
			ServiceName:       fmt.Sprintf("%s Express", a.name),
			ServiceCode:       fmt.Sprintf("%s_EXPRESS", strings.ToUpper(a.name)),
			TotalCharge:       2499 + int64(weight*180),
			Currency:          "USD",
			EstimatedDelivery: &express,
			TransitDays:       &expressDays,
			Guaranteed:        true,
		},
	}, nil
}

// CreateShipment issues a unique tracking number and remembers the
// shipment so this adapter's own GetTracking can resolve it later.
func (a *Adapter) CreateShipment(ctx context.Context, req *carrier.ShipmentRequest) (*carrier.ShipmentResult, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}

	format := req.LabelFormat
	if format == "" {
		format = carrier.LabelPDF
	}

	now := time.Now()
	trackingNumber := fmt.Sprintf("%s-%s", strings.ToUpper(a.name), uuid.New().String())
	estimated := now.Add(5 * 24 * time.Hour)

	a.mu.Lock()
	a.shipments[trackingNumber] = issuedShipment{issuedAt: now, shipTo: req.ShipTo}
	a.mu.Unlock()

	return &carrier.ShipmentResult{
		TrackingNumber:    trackingNumber,
		Carrier:           a.name,
		LabelURL:          fmt.Sprintf("https://labels.%s.example/%s.%s", a.name, trackingNumber, format),
		LabelFormat:       format,
		EstimatedDelivery: &estimated,
	}, nil
}

// statusLadder is the progression a stub shipment walks through, one step
// per elapsed day since issuance.
var statusLadder = []carrier.TrackingStatus{
	carrier.StatusLabelCreated,
	carrier.StatusPickedUp,
	carrier.StatusInTransit,
	carrier.StatusOutForDelivery,
	carrier.StatusDelivered,
}

// GetTracking resolves tracking numbers issued by this adapter. The status
// advances deterministically with the shipment's age.
func (a *Adapter) GetTracking(ctx context.Context, trackingNumber string) (*carrier.TrackingResult, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}

	a.mu.Lock()
	sh, ok := a.shipments[trackingNumber]
	a.mu.Unlock()
	if !ok {
		return nil, carrier.NewCarrierError(a.name, "TRACKING_NOT_FOUND",
			fmt.Sprintf("unknown tracking number %s", trackingNumber)).
			WithStatusCode(404).
			WithCause(carrier.ErrTrackingNotFound)
	}

	step := int(time.Since(sh.issuedAt).Hours() / 24)
	if step >= len(statusLadder) {
		step = len(statusLadder) - 1
	}

	events := make([]carrier.TrackingEvent, 0, step+1)
	for i := 0; i <= step; i++ {
		events = append(events, carrier.TrackingEvent{
			Timestamp:   sh.issuedAt.Add(time.Duration(i) * 24 * time.Hour),
			Status:      statusLadder[i],
			Description: string(statusLadder[i]),
			Location:    sh.shipTo.City,
		})
	}

	estimated := sh.issuedAt.Add(5 * 24 * time.Hour)
	return &carrier.TrackingResult{
		TrackingNumber:    trackingNumber,
		Carrier:           a.name,
		Status:            statusLadder[step],
		EstimatedDelivery: &estimated,
		Events:            events,
	}, nil
}

// ValidateAddress always reports valid and flags PO-box lines with a
// case-insensitive substring check on the first address line.
func (a *Adapter) ValidateAddress(ctx context.Context, addr *carrier.Address) (*carrier.AddressValidation, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}
	return &carrier.AddressValidation{
		Valid:       true,
		Suggestions: []carrier.Address{},
		IsPOBox:     strings.Contains(strings.ToLower(addr.Line1), "po box"),
	}, nil
}
