package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/event-service-booking/internal/model"
)

// EventRepo provides CRUD operations for events, their guest rosters
// and their service ledgers. An event row aggregates the event_guests
// and event_services tables; all timestamps are stored in UTC.
//
// The service ledger (event_services) is only ever written through
// UpsertLineItem so the mirror stays an idempotent projection of the
// booking that created each line item.
type EventRepo struct{ db *sql.DB }

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying handle for callers that need to open a
// transaction across repositories.
func (r *EventRepo) DB() *sql.DB { return r.db }

const eventColumns = `id, client_id, theme, occasion, date, start_time, end_time,
       address, city, latitude, longitude, guest_total, guest_adults, guest_children,
       created_at, updated_at`

// Create inserts an event together with its guest roster in one
// transaction and populates the generated ID on the provided model.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `INSERT INTO events
        (client_id, theme, occasion, date, start_time, end_time, address, city,
         latitude, longitude, guest_total, guest_adults, guest_children)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`
	res, err := tx.ExecContext(ctx, q,
		e.ClientID, e.Theme, string(e.Occasion), e.Date, e.StartTime, e.EndTime,
		e.Location.Address, e.Location.City, e.Location.Latitude, e.Location.Longitude,
		e.Guests.Total, e.Guests.Adults, e.Guests.Children)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)

	if err := insertGuestsTx(ctx, tx, e.ID, e.GuestList); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// insertGuestsTx bulk-inserts roster rows for an event. Passing an
// empty slice has no effect and returns nil.
func insertGuestsTx(ctx context.Context, tx *sql.Tx, eventID uint64, guests []model.Guest) error {
	if len(guests) == 0 {
		return nil
	}
	query := `INSERT INTO event_guests (event_id, name, age, drinks_alcohol) VALUES `
	args := make([]interface{}, 0, len(guests)*4)
	for i, g := range guests {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, eventID, g.Name, g.Age, g.DrinksAlcohol)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetByID loads an event with its guest roster and service ledger.
// ErrNotFound is returned when no event with the given ID exists.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if err != nil {
		return nil, err
	}
	if e.GuestList, err = r.guestsByEvent(ctx, id); err != nil {
		return nil, err
	}
	items, err := r.lineItemsByEvents(ctx, []uint64{id})
	if err != nil {
		return nil, err
	}
	e.Services = items[id]
	return e, nil
}

// Update rewrites the mutable fields of an event and replaces its
// guest roster. The service ledger is untouched: line items belong to
// the booking lifecycle.
func (r *EventRepo) Update(ctx context.Context, e *model.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `UPDATE events SET theme=?, occasion=?, date=?, start_time=?, end_time=?,
        address=?, city=?, latitude=?, longitude=?,
        guest_total=?, guest_adults=?, guest_children=?
        WHERE id=?`
	res, err := tx.ExecContext(ctx, q,
		e.Theme, string(e.Occasion), e.Date, e.StartTime, e.EndTime,
		e.Location.Address, e.Location.City, e.Location.Latitude, e.Location.Longitude,
		e.Guests.Total, e.Guests.Adults, e.Guests.Children, e.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// The row may exist with identical values; verify before
		// reporting not found.
		var exists uint64
		if err := tx.QueryRowContext(ctx, `SELECT id FROM events WHERE id=?`, e.ID).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM event_guests WHERE event_id=?`, e.ID); err != nil {
		return err
	}
	if err := insertGuestsTx(ctx, tx, e.ID, e.GuestList); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Delete removes an event together with its roster and ledger rows.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `DELETE FROM event_guests WHERE event_id=?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM event_services WHERE event_id=?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ListByClient returns a client's events, newest first, with their
// service ledgers populated.
func (r *EventRepo) ListByClient(ctx context.Context, clientID uint64) ([]model.Event, error) {
	return r.list(ctx,
		`SELECT `+eventColumns+` FROM events WHERE client_id = ? ORDER BY created_at DESC`,
		clientID)
}

// ListByProvider returns events on which the provider holds at least
// one non-cancelled line item, newest event date first.
func (r *EventRepo) ListByProvider(ctx context.Context, providerID uint64) ([]model.Event, error) {
	const q = `SELECT DISTINCT ` + eventColumnsPrefixed + `
               FROM events e
               JOIN event_services es ON es.event_id = e.id
               WHERE es.provider_id = ? AND es.status <> 'cancelled'
               ORDER BY e.date DESC`
	return r.list(ctx, q, providerID)
}

// ListAll returns every event, newest first. Admin use only; scoping
// is enforced by the caller.
func (r *EventRepo) ListAll(ctx context.Context) ([]model.Event, error) {
	return r.list(ctx, `SELECT `+eventColumns+` FROM events ORDER BY created_at DESC`)
}

const eventColumnsPrefixed = `e.id, e.client_id, e.theme, e.occasion, e.date, e.start_time, e.end_time,
       e.address, e.city, e.latitude, e.longitude, e.guest_total, e.guest_adults, e.guest_children,
       e.created_at, e.updated_at`

func (r *EventRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]model.Event, 0)
	index := make(map[uint64]int)
	ids := make([]uint64, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		index[e.ID] = len(events)
		ids = append(ids, e.ID)
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return events, nil
	}
	items, err := r.lineItemsByEvents(ctx, ids)
	if err != nil {
		return nil, err
	}
	for id, li := range items {
		if idx, ok := index[id]; ok {
			events[idx].Services = li
		}
	}
	return events, nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanEvent.
type scanner interface{ Scan(dest ...interface{}) error }

func scanEvent(s scanner) (*model.Event, error) {
	var e model.Event
	var occasion string
	var lat, lon sql.NullFloat64
	err := s.Scan(
		&e.ID, &e.ClientID, &e.Theme, &occasion, &e.Date, &e.StartTime, &e.EndTime,
		&e.Location.Address, &e.Location.City, &lat, &lon,
		&e.Guests.Total, &e.Guests.Adults, &e.Guests.Children,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	e.Occasion = model.Occasion(occasion)
	if lat.Valid {
		v := lat.Float64
		e.Location.Latitude = &v
	}
	if lon.Valid {
		v := lon.Float64
		e.Location.Longitude = &v
	}
	return &e, nil
}

// guestsByEvent loads the roster rows for one event ordered by id.
func (r *EventRepo) guestsByEvent(ctx context.Context, eventID uint64) ([]model.Guest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, age, drinks_alcohol FROM event_guests WHERE event_id = ? ORDER BY id`,
		eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	guests := make([]model.Guest, 0)
	for rows.Next() {
		var g model.Guest
		if err := rows.Scan(&g.ID, &g.Name, &g.Age, &g.DrinksAlcohol); err != nil {
			return nil, err
		}
		guests = append(guests, g)
	}
	return guests, rows.Err()
}

// lineItemsByEvents loads ledger rows for a set of events in a single
// query and groups them by event ID.
func (r *EventRepo) lineItemsByEvents(ctx context.Context, eventIDs []uint64) (map[uint64][]model.LineItem, error) {
	if len(eventIDs) == 0 {
		return map[uint64][]model.LineItem{}, nil
	}
	placeholders := make([]string, 0, len(eventIDs))
	args := make([]interface{}, 0, len(eventIDs))
	for _, id := range eventIDs {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	q := `SELECT id, event_id, provider_id, category, subcategory,
                 base_price, distance_fee, extra_hours, total_price, status
          FROM event_services
          WHERE event_id IN (` + strings.Join(placeholders, ",") + `)
          ORDER BY event_id, id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uint64][]model.LineItem)
	for rows.Next() {
		var li model.LineItem
		var status string
		if err := rows.Scan(
			&li.ID, &li.EventID, &li.ProviderID, &li.Category, &li.Subcategory,
			&li.BasePrice, &li.DistanceFee, &li.ExtraHours, &li.TotalPrice, &status,
		); err != nil {
			return nil, err
		}
		li.Status = model.BookingStatus(status)
		out[li.EventID] = append(out[li.EventID], li)
	}
	return out, rows.Err()
}

// UpsertLineItem writes one ledger entry keyed by
// (event_id, provider_id, category, subcategory). The statement is
// idempotent: replaying it after a booking status change converges the
// mirror to the booking's current state, which is exactly what the
// reconciler relies on.
func (r *EventRepo) UpsertLineItem(ctx context.Context, li *model.LineItem) error {
	const q = `INSERT INTO event_services
        (event_id, provider_id, category, subcategory, base_price, distance_fee, extra_hours, total_price, status)
        VALUES (?,?,?,?,?,?,?,?,?)
        ON DUPLICATE KEY UPDATE
        base_price = VALUES(base_price),
        distance_fee = VALUES(distance_fee),
        extra_hours = VALUES(extra_hours),
        total_price = VALUES(total_price),
        status = VALUES(status)`
	_, err := r.db.ExecContext(ctx, q,
		li.EventID, li.ProviderID, li.Category, li.Subcategory,
		li.BasePrice, li.DistanceFee, li.ExtraHours, li.TotalPrice, string(li.Status))
	return err
}
