package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AgeGroups defines the child age band of a service and the flat
// surcharge applied per guest falling inside it (inclusive bounds).
type AgeGroups struct {
	ChildMin   int             `json:"child_min"`
	ChildMax   int             `json:"child_max"`
	ChildPrice decimal.Decimal `json:"child_price"`
}

// AlcoholOptions describes whether a service offers alcohol handling
// and the per-guest fee charged when a booking requests it.
type AlcoholOptions struct {
	Available      bool            `json:"available"`
	PricePerPerson decimal.Decimal `json:"price_per_person"`
}

// SeasonalRate maps a calendar month (1..12) to a price multiplier.
// The service's seasonal table is stored as a JSON column, hence the
// json tags on this and the sibling rate types.
type SeasonalRate struct {
	Month      int             `json:"month"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

// SpecialDateRate maps an exact calendar date to a price multiplier.
// Matching is performed at day granularity in UTC.
type SpecialDateRate struct {
	Date       time.Time       `json:"date"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

// Service is a provider's bookable offering as stored in the
// `services` table. It carries every pricing rule the quote engine
// needs; during quote computation the service is a read-only input.
//
// Fields:
//  ID                – primary key identifier.
//  ProviderID        – owning provider (users.id).
//  Category          – top-level category (food-drink, entertainment, venue, organization).
//  Subcategory       – finer classification within the category.
//  Name, Description – presentation fields.
//  BasePrice         – price before fees and multipliers.
//  DurationHours     – hours included in the base price.
//  ExtraHourPrice    – fee per hour beyond DurationHours.
//  ServiceAreaKm     – radius covered without a distance fee.
//  DistanceFeePerKm  – fee per km beyond ServiceAreaKm.
//  AgeGroups         – child band and surcharge.
//  Alcohol           – alcohol availability and per-person fee.
//  SeasonalPricing   – per-month multipliers (JSON column).
//  SpecialDates      – per-date multipliers (JSON column).
//  Location          – provider base used for distance computation.
//  Active            – whether the service can currently be booked.
//  CreatedAt         – timestamp of creation.
type Service struct {
	ID               uint64            // services.id
	ProviderID       uint64            // services.provider_id
	Category         string            // services.category
	Subcategory      string            // services.subcategory
	Name             string            // services.name
	Description      string            // services.description
	BasePrice        decimal.Decimal   // services.base_price
	DurationHours    float64           // services.duration_hours
	ExtraHourPrice   decimal.Decimal   // services.extra_hour_price
	ServiceAreaKm    float64           // services.service_area_km
	DistanceFeePerKm decimal.Decimal   // services.distance_fee_per_km
	AgeGroups        AgeGroups         // services.child_min/child_max/child_price
	Alcohol          AlcoholOptions    // services.alcohol_available/alcohol_price_per_person
	SeasonalPricing  []SeasonalRate    // services.seasonal_pricing (JSON)
	SpecialDates     []SpecialDateRate // services.special_dates (JSON)
	Location         Location          // services.latitude/longitude
	Active           bool              // services.active
	CreatedAt        time.Time         // services.created_at
}
