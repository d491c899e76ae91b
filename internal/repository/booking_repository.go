package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/event-service-booking/internal/model"
)

// BookingRepo provides access to the bookings table. The booking row
// is the source of truth for both status and price: the frozen
// snapshot and pricing columns are written exactly once at creation,
// and the status column is the only field updated afterwards.
type BookingRepo struct{ db *sql.DB }

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, reference, event_id, service_id, provider_id, client_id,
       date, start_time, end_time, guest_count, child_count, distance_km, extra_hours, alcohol_service,
       base_price, distance_fee, extra_hours_fee, child_surcharge,
       seasonal_multiplier, special_date_multiplier, alcohol_fee, subtotal, platform_fee, total,
       status, created_at, updated_at`

// Create inserts a booking with its frozen snapshot and pricing
// breakdown, then queries the row back to populate timestamps.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings
        (reference, event_id, service_id, provider_id, client_id,
         date, start_time, end_time, guest_count, child_count, distance_km, extra_hours, alcohol_service,
         base_price, distance_fee, extra_hours_fee, child_surcharge,
         seasonal_multiplier, special_date_multiplier, alcohol_fee, subtotal, platform_fee, total,
         status)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, q,
		b.Reference, b.EventID, b.ServiceID, b.ProviderID, b.ClientID,
		b.Details.Date, b.Details.StartTime, b.Details.EndTime,
		b.Details.GuestCount, b.Details.ChildCount, b.Details.DistanceKm,
		b.Details.ExtraHours, b.Details.AlcoholService,
		b.Pricing.BasePrice, b.Pricing.DistanceFee, b.Pricing.ExtraHoursFee, b.Pricing.ChildSurcharge,
		b.Pricing.SeasonalMultiplier, b.Pricing.SpecialDateMultiplier,
		b.Pricing.AlcoholFee, b.Pricing.Subtotal, b.Pricing.PlatformFee, b.Pricing.Total,
		string(b.Status))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM bookings WHERE id = ?`, b.ID).
		Scan(&b.CreatedAt, &b.UpdatedAt)
}

// GetByID loads a single booking. ErrNotFound is returned when it
// does not exist.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	return scanBooking(row)
}

// UpdateStatusExpected transitions a booking's status only when its
// current status is one of the expected pre-states. When the
// predicate matches no row, the booking either does not exist
// (ErrNotFound) or sits in a different state (ErrStaleState); the
// distinction is resolved with a follow-up existence check. This is
// the serialization point for concurrent transitions: of two racing
// updates, exactly one observes its expected pre-state.
func (r *BookingRepo) UpdateStatusExpected(ctx context.Context, id uint64, from []model.BookingStatus, to model.BookingStatus) error {
	if len(from) == 0 {
		return errors.New("expected pre-states required")
	}
	placeholders := make([]string, 0, len(from))
	args := []interface{}{string(to), id}
	for _, st := range from {
		placeholders = append(placeholders, "?")
		args = append(args, string(st))
	}
	q := `UPDATE bookings SET status = ?, updated_at = NOW() WHERE id = ? AND status IN (` +
		strings.Join(placeholders, ",") + `)`
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists uint64
		err := r.db.QueryRowContext(ctx, `SELECT id FROM bookings WHERE id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return ErrStaleState
	}
	return nil
}

// HasActiveForLedgerKey reports whether a non-cancelled booking
// already occupies the (event, provider, category, subcategory) slot
// a new booking would mirror into. Category and subcategory live on
// the service row, so the check joins through it.
func (r *BookingRepo) HasActiveForLedgerKey(ctx context.Context, eventID, providerID uint64, category, subcategory string) (bool, error) {
	const q = `SELECT b.id FROM bookings b
        JOIN services s ON s.id = b.service_id
        WHERE b.event_id = ? AND b.provider_id = ?
          AND s.category = ? AND s.subcategory = ?
          AND b.status <> 'cancelled'
        LIMIT 1`
	var id uint64
	err := r.db.QueryRowContext(ctx, q, eventID, providerID, category, subcategory).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListByClient returns a client's bookings, newest first.
func (r *BookingRepo) ListByClient(ctx context.Context, clientID uint64) ([]model.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE client_id = ? ORDER BY created_at DESC`, clientID)
}

// ListByProvider returns a provider's bookings, newest first.
func (r *BookingRepo) ListByProvider(ctx context.Context, providerID uint64) ([]model.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE provider_id = ? ORDER BY created_at DESC`, providerID)
}

// ListAll returns every booking, newest first. Admin use only.
func (r *BookingRepo) ListAll(ctx context.Context) ([]model.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY created_at DESC`)
}

func (r *BookingRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func scanBooking(s scanner) (*model.Booking, error) {
	var b model.Booking
	var status string
	err := s.Scan(
		&b.ID, &b.Reference, &b.EventID, &b.ServiceID, &b.ProviderID, &b.ClientID,
		&b.Details.Date, &b.Details.StartTime, &b.Details.EndTime,
		&b.Details.GuestCount, &b.Details.ChildCount, &b.Details.DistanceKm,
		&b.Details.ExtraHours, &b.Details.AlcoholService,
		&b.Pricing.BasePrice, &b.Pricing.DistanceFee, &b.Pricing.ExtraHoursFee, &b.Pricing.ChildSurcharge,
		&b.Pricing.SeasonalMultiplier, &b.Pricing.SpecialDateMultiplier,
		&b.Pricing.AlcoholFee, &b.Pricing.Subtotal, &b.Pricing.PlatformFee, &b.Pricing.Total,
		&status, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	b.Status = model.BookingStatus(status)
	return &b, nil
}
