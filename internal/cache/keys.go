package cache

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/parcelgrid/shipping/pkg/carrier"
)

// Reference TTLs for cached responses.
const (
	RateTTL     = 10 * time.Minute
	TrackingTTL = 30 * time.Minute
)

// RateKey builds the cache key for a rate request. It is a pure function
// of ship-from postal, ship-to postal, ship-to country, and the ordered
// package list: identical requests always map to the identical key.
//
// Format: shipping:rates:<fromPostal>:<toPostal>:<toCountry>:<pkgHash>
// where each package contributes "<weight><wu>-<l>x<w>x<h><du>" and
// multiple packages are pipe-joined, e.g. "5lb-12x8x6in|10lb-20x15x10in".
func RateKey(req *carrier.RateRequest) string {
	parts := make([]string, len(req.Packages))
	for i, pkg := range req.Packages {
		parts[i] = fmt.Sprintf("%s%s-%sx%sx%s%s",
			formatDecimal(pkg.Weight), pkg.WeightUnit,
			formatDecimal(pkg.Length), formatDecimal(pkg.Width), formatDecimal(pkg.Height),
			pkg.DimensionUnit,
		)
	}
	return fmt.Sprintf("shipping:rates:%s:%s:%s:%s",
		req.ShipFrom.PostalCode,
		req.ShipTo.PostalCode,
		req.ShipTo.CountryCode,
		strings.Join(parts, "|"),
	)
}

// TrackingKey builds the cache key for a tracking number.
func TrackingKey(trackingNumber string) string {
	return "shipping:tracking:" + trackingNumber
}

// formatDecimal renders a measurement without trailing zeros, so that
// 5.0 and 5 produce the same key.
func formatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
