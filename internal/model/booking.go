package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus enumerates the lifecycle states of a booking. A
// booking starts in pending; completed and cancelled are terminal.
// No endpoint currently transitions a booking to completed, but the
// state stays in the model so the mirror and listings handle it.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// Terminal reports whether the status permits no further transitions.
func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

// BookingDetails is the frozen snapshot of the event facts a booking
// was quoted against. Once the booking is created these values never
// change; re-quoting requires a new booking.
type BookingDetails struct {
	Date           time.Time       // bookings.date
	StartTime      time.Time       // bookings.start_time
	EndTime        time.Time       // bookings.end_time
	GuestCount     int             // bookings.guest_count
	ChildCount     int             // bookings.child_count
	DistanceKm     float64         // bookings.distance_km
	ExtraHours     decimal.Decimal // bookings.extra_hours
	AlcoholService bool            // bookings.alcohol_service
}

// PricingBreakdown is the itemized quote produced by the pricing
// engine and persisted verbatim on the booking. The breakdown is
// immutable after creation and is never recomputed from the event or
// the service. Total always equals Subtotal + AlcoholFee + PlatformFee.
type PricingBreakdown struct {
	BasePrice             decimal.Decimal // bookings.base_price
	DistanceFee           decimal.Decimal // bookings.distance_fee
	ExtraHoursFee         decimal.Decimal // bookings.extra_hours_fee
	ChildSurcharge        decimal.Decimal // bookings.child_surcharge
	SeasonalMultiplier    decimal.Decimal // bookings.seasonal_multiplier
	SpecialDateMultiplier decimal.Decimal // bookings.special_date_multiplier
	AlcoholFee            decimal.Decimal // bookings.alcohol_fee, flat add-on outside the multipliers
	Subtotal              decimal.Decimal // bookings.subtotal
	PlatformFee           decimal.Decimal // bookings.platform_fee
	Total                 decimal.Decimal // bookings.total
}

// Booking is the unit of commitment between one event and one
// service, as stored in the `bookings` table. The booking record is
// the source of truth for both status and price; the owning event's
// line item is a derived projection of it.
//
// Fields:
//  ID         – primary key identifier.
//  Reference  – externally shareable UUID reference.
//  EventID    – event being serviced.
//  ServiceID  – service booked.
//  ProviderID – provider owning the service (denormalized for listings).
//  ClientID   – client owning the event (denormalized for listings).
//  Details    – frozen quote inputs.
//  Pricing    – frozen itemized price.
//  Status     – lifecycle state.
//  CreatedAt  – timestamp of creation.
//  UpdatedAt  – timestamp of last status change.
type Booking struct {
	ID         uint64           // bookings.id
	Reference  string           // bookings.reference (uuid)
	EventID    uint64           // bookings.event_id
	ServiceID  uint64           // bookings.service_id
	ProviderID uint64           // bookings.provider_id
	ClientID   uint64           // bookings.client_id
	Details    BookingDetails   // frozen snapshot columns
	Pricing    PricingBreakdown // frozen pricing columns
	Status     BookingStatus    // bookings.status
	CreatedAt  time.Time        // bookings.created_at
	UpdatedAt  time.Time        // bookings.updated_at
}
