// Package pricing implements the deterministic quote computation for a
// booking. Quote is a pure function of the event, the service and the
// booking options: the service carrying the pricing tables is always an
// explicit parameter, and no function in this package reads ambient
// state. Callers persist the returned breakdown verbatim; it is never
// recomputed later.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/event-service-booking/internal/model"
)

// ErrInvalidInput is returned when a quote cannot be computed from the
// given event and service: missing coordinates on either side, an end
// time not after the start time, or a non-positive base price.
// Handlers translate it into an HTTP 400 response.
var ErrInvalidInput = errors.New("invalid quote input")

// Options carries the per-booking choices that are not derivable from
// the event or the service.
type Options struct {
	AlcoholService bool // whether the booking requests alcohol handling
}

// earthRadiusKm is the sphere radius used by the haversine formula.
const earthRadiusKm = 6371.0

// one is the identity multiplier applied when no seasonal or special
// date entry matches.
var one = decimal.NewFromInt(1)

// Quote computes the full itemized price for booking svc against e.
// The breakdown is built in a fixed order: distance fee, extra-hours
// fee and child surcharge are added to the base price, the seasonal
// and special-date multipliers scale that sum into the subtotal, the
// platform fee is a tiered commission on the subtotal, and the alcohol
// fee is a flat add-on that joins only at the total. All monetary
// values are rounded to two decimal places.
func Quote(e *model.Event, svc *model.Service, opts Options) (model.PricingBreakdown, error) {
	var b model.PricingBreakdown
	if e == nil || svc == nil {
		return b, fmt.Errorf("%w: event and service are required", ErrInvalidInput)
	}
	if e.Location.Latitude == nil || e.Location.Longitude == nil {
		return b, fmt.Errorf("%w: event coordinates missing", ErrInvalidInput)
	}
	if svc.Location.Latitude == nil || svc.Location.Longitude == nil {
		return b, fmt.Errorf("%w: service coordinates missing", ErrInvalidInput)
	}
	if !e.EndTime.After(e.StartTime) {
		return b, fmt.Errorf("%w: end time must be after start time", ErrInvalidInput)
	}
	if !svc.BasePrice.IsPositive() {
		return b, fmt.Errorf("%w: service base price missing", ErrInvalidInput)
	}

	distance := HaversineKm(
		*e.Location.Latitude, *e.Location.Longitude,
		*svc.Location.Latitude, *svc.Location.Longitude,
	)

	b.BasePrice = svc.BasePrice.Round(2)
	b.DistanceFee = DistanceFee(distance, svc.ServiceAreaKm, svc.DistanceFeePerKm)
	b.ExtraHoursFee = ExtraHoursFee(ExtraHours(e.StartTime, e.EndTime, svc.DurationHours), svc.ExtraHourPrice)
	b.ChildSurcharge = svc.AgeGroups.ChildPrice.
		Mul(decimal.NewFromInt(int64(ChildCount(e.GuestList, svc.AgeGroups)))).
		Round(2)
	b.SeasonalMultiplier = SeasonalMultiplier(svc, e.Date)
	b.SpecialDateMultiplier = SpecialDateMultiplier(svc, e.Date)

	b.Subtotal = b.BasePrice.
		Add(b.DistanceFee).
		Add(b.ExtraHoursFee).
		Add(b.ChildSurcharge).
		Mul(b.SeasonalMultiplier).
		Mul(b.SpecialDateMultiplier).
		Round(2)

	b.AlcoholFee = decimal.Zero
	if opts.AlcoholService {
		b.AlcoholFee = svc.Alcohol.PricePerPerson.
			Mul(decimal.NewFromInt(int64(e.Guests.Total))).
			Round(2)
	}

	// The tier rate is resolved once and reused so the fee and the
	// total cannot drift apart.
	rate := PlatformFeeRate(b.Subtotal)
	b.PlatformFee = b.Subtotal.Mul(rate).Round(2)
	b.Total = b.Subtotal.Add(b.AlcoholFee).Add(b.PlatformFee)
	return b, nil
}

// HaversineKm returns the great-circle distance in kilometres between
// two coordinates given in decimal degrees.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// DistanceFee charges feePerKm for every kilometre beyond the service
// area. Distances inside the area cost nothing.
func DistanceFee(distanceKm, serviceAreaKm float64, feePerKm decimal.Decimal) decimal.Decimal {
	excess := distanceKm - serviceAreaKm
	if excess <= 0 {
		return decimal.Zero
	}
	return feePerKm.Mul(decimal.NewFromFloat(excess)).Round(2)
}

// ExtraHours returns the hours of the event span exceeding the
// service's included duration, never negative.
func ExtraHours(start, end time.Time, includedHours float64) decimal.Decimal {
	span := end.Sub(start).Hours()
	extra := span - includedHours
	if extra <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(extra)
}

// ExtraHoursFee multiplies the extra hours by the per-hour price.
func ExtraHoursFee(extraHours, pricePerHour decimal.Decimal) decimal.Decimal {
	return pricePerHour.Mul(extraHours).Round(2)
}

// ChildCount counts the guests whose age falls inside the service's
// child band, bounds inclusive.
func ChildCount(guests []model.Guest, bands model.AgeGroups) int {
	n := 0
	for _, g := range guests {
		if g.Age >= bands.ChildMin && g.Age <= bands.ChildMax {
			n++
		}
	}
	return n
}

// SeasonalMultiplier looks up the multiplier for the date's calendar
// month in the given service's seasonal table, defaulting to 1.
func SeasonalMultiplier(svc *model.Service, date time.Time) decimal.Decimal {
	month := int(date.UTC().Month())
	for _, r := range svc.SeasonalPricing {
		if r.Month == month {
			return r.Multiplier
		}
	}
	return one
}

// SpecialDateMultiplier looks up an exact-date multiplier in the given
// service's special-date table, comparing at day granularity in UTC
// and defaulting to 1.
func SpecialDateMultiplier(svc *model.Service, date time.Time) decimal.Decimal {
	y, m, d := date.UTC().Date()
	for _, r := range svc.SpecialDates {
		ry, rm, rd := r.Date.UTC().Date()
		if ry == y && rm == m && rd == d {
			return r.Multiplier
		}
	}
	return one
}

// PlatformFeeRate returns the tiered commission rate for a subtotal:
// 3% above 20000, 4% above 10000, otherwise 5%. Tier boundaries are
// strict greater-than.
func PlatformFeeRate(subtotal decimal.Decimal) decimal.Decimal {
	switch {
	case subtotal.GreaterThan(decimal.NewFromInt(20000)):
		return decimal.NewFromFloat(0.03)
	case subtotal.GreaterThan(decimal.NewFromInt(10000)):
		return decimal.NewFromFloat(0.04)
	default:
		return decimal.NewFromFloat(0.05)
	}
}
