package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Occasion enumerates the event occasions accepted by the platform.
type Occasion string

const (
	OccasionBirthday  Occasion = "birthday"
	OccasionWedding   Occasion = "wedding"
	OccasionCorporate Occasion = "corporate"
	OccasionOther     Occasion = "other"
)

// ValidOccasion reports whether s is one of the accepted occasion values.
func ValidOccasion(s string) bool {
	switch Occasion(s) {
	case OccasionBirthday, OccasionWedding, OccasionCorporate, OccasionOther:
		return true
	}
	return false
}

// Location holds the address and geocoordinates of an event venue or a
// provider's base of operations. Coordinates are nullable because older
// records may predate geocoding; pricing refuses to quote without them.
type Location struct {
	Address   string   // street address
	City      string   // city name
	Latitude  *float64 // decimal degrees, nullable
	Longitude *float64 // decimal degrees, nullable
}

// Guest is a single entry of an event's guest roster. Age drives the
// child surcharge and DrinksAlcohol is informational for providers.
type Guest struct {
	ID            uint64 // event_guests.id
	Name          string // event_guests.name
	Age           int    // event_guests.age
	DrinksAlcohol bool   // event_guests.drinks_alcohol
}

// GuestSummary carries the aggregate counts stored directly on the
// events table alongside the per-guest roster rows.
type GuestSummary struct {
	Total    int // events.guest_total
	Adults   int // events.guest_adults
	Children int // events.guest_children
}

// LineItem is one entry of the event's embedded service ledger
// (`event_services` table). A line item is the event-side mirror of
// exactly one booking: provider, category and totals must always match
// the booking that created it, and its status tracks the booking's
// status. Line items are only ever written by the booking lifecycle
// and the reconciler, never mutated independently.
//
// The unique key (event_id, provider_id, category, subcategory) makes
// the mirror write an idempotent upsert and disambiguates providers
// holding more than one booking on the same event.
type LineItem struct {
	ID          uint64          // event_services.id
	EventID     uint64          // event_services.event_id
	ProviderID  uint64          // event_services.provider_id
	Category    string          // event_services.category
	Subcategory string          // event_services.subcategory
	BasePrice   decimal.Decimal // event_services.base_price
	DistanceFee decimal.Decimal // event_services.distance_fee
	ExtraHours  decimal.Decimal // event_services.extra_hours
	TotalPrice  decimal.Decimal // event_services.total_price
	Status      BookingStatus   // event_services.status, mirrors bookings.status
}

// Event represents a client's planned occasion as stored in the
// `events` table, together with its guest roster and service ledger.
//
// Fields:
//  ID        – primary key identifier.
//  ClientID  – owning client (users.id).
//  Theme     – free-form theme description.
//  Occasion  – one of the Occasion values.
//  Date      – calendar date of the event.
//  StartTime – when the event starts.
//  EndTime   – when the event ends; must be after StartTime.
//  Location  – venue address and coordinates.
//  Guests    – aggregate guest counts.
//  GuestList – per-guest roster used for the child surcharge.
//  Services  – the service ledger (one line item per booking).
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type Event struct {
	ID        uint64       // events.id
	ClientID  uint64       // events.client_id
	Theme     string       // events.theme
	Occasion  Occasion     // events.occasion
	Date      time.Time    // events.date
	StartTime time.Time    // events.start_time
	EndTime   time.Time    // events.end_time
	Location  Location     // events.address/city/latitude/longitude
	Guests    GuestSummary // events.guest_total/guest_adults/guest_children
	GuestList []Guest      // event_guests rows
	Services  []LineItem   // event_services rows
	CreatedAt time.Time    // events.created_at
	UpdatedAt time.Time    // events.updated_at
}
