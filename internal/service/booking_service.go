// Package service implements the booking lifecycle, the chat thread
// rules and the ledger reconciler on top of the repository layer.
// Handlers stay thin: every ownership decision is delegated to the
// access package and every state transition lives here.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-service-booking/internal/access"
	"github.com/iliyamo/event-service-booking/internal/model"
	"github.com/iliyamo/event-service-booking/internal/pricing"
	"github.com/iliyamo/event-service-booking/internal/queue"
	"github.com/iliyamo/event-service-booking/internal/repository"
)

// EventStore is the slice of the event repository the lifecycle needs.
type EventStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Event, error)
	UpsertLineItem(ctx context.Context, li *model.LineItem) error
}

// ServiceStore loads provider services for quoting and mirroring.
type ServiceStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Service, error)
}

// BookingStore is the persistence contract for bookings. Update
// operations carry the expected pre-states so concurrent transitions
// serialize on the row's current status.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	UpdateStatusExpected(ctx context.Context, id uint64, from []model.BookingStatus, to model.BookingStatus) error
	HasActiveForLedgerKey(ctx context.Context, eventID, providerID uint64, category, subcategory string) (bool, error)
	ListByClient(ctx context.Context, clientID uint64) ([]model.Booking, error)
	ListByProvider(ctx context.Context, providerID uint64) ([]model.Booking, error)
	ListAll(ctx context.Context) ([]model.Booking, error)
}

// MirrorQueue receives booking IDs whose event line item could not be
// written and must be repaired later.
type MirrorQueue interface {
	Enqueue(bookingID uint64)
}

// BookingService owns the booking state machine and the dual-write
// contract between a booking and its event's ledger entry. The
// booking row is written first and is authoritative; the line item is
// a best-effort projection handed to the reconciler when the mirror
// write fails. A mirror failure is therefore never surfaced to the
// caller.
type BookingService struct {
	events    EventStore
	services  ServiceStore
	bookings  BookingStore
	mirror    MirrorQueue
	publisher EventPublisher
	log       *logrus.Logger
}

// NewBookingService wires the lifecycle with its collaborators.
func NewBookingService(events EventStore, services ServiceStore, bookings BookingStore, mirror MirrorQueue, publisher EventPublisher, log *logrus.Logger) *BookingService {
	return &BookingService{
		events:    events,
		services:  services,
		bookings:  bookings,
		mirror:    mirror,
		publisher: publisher,
		log:       log,
	}
}

// Create quotes and books a service for the client's event. Ownership
// of the event is re-verified against the freshly loaded row; a
// foreign event is reported as not found so its existence does not
// leak to other tenants. On success the booking is pending and a
// matching line item has been appended to the event's ledger (or
// queued for reconciliation).
func (s *BookingService) Create(ctx context.Context, clientID, eventID, serviceID uint64, opts pricing.Options) (*model.Booking, error) {
	e, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !access.CanViewEvent(clientID, access.RoleClient, e) {
		s.log.WithFields(logrus.Fields{"client_id": clientID, "event_id": eventID}).
			Debug("booking create denied: event owned by another client")
		return nil, repository.ErrNotFound
	}
	svc, err := s.services.GetByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	// One ledger slot per (event, provider, category, subcategory): a
	// second active booking would silently share the first's line item.
	taken, err := s.bookings.HasActiveForLedgerKey(ctx, e.ID, svc.ProviderID, svc.Category, svc.Subcategory)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, repository.ErrDuplicateBooking
	}

	breakdown, err := pricing.Quote(e, svc, opts)
	if err != nil {
		return nil, err
	}
	// Quote validated both coordinate pairs, so the dereferences and
	// helper calls below operate on the same inputs it priced.
	distance := pricing.HaversineKm(
		*e.Location.Latitude, *e.Location.Longitude,
		*svc.Location.Latitude, *svc.Location.Longitude,
	)

	b := &model.Booking{
		Reference:  uuid.NewString(),
		EventID:    e.ID,
		ServiceID:  svc.ID,
		ProviderID: svc.ProviderID,
		ClientID:   clientID,
		Details: model.BookingDetails{
			Date:           e.Date,
			StartTime:      e.StartTime,
			EndTime:        e.EndTime,
			GuestCount:     e.Guests.Total,
			ChildCount:     pricing.ChildCount(e.GuestList, svc.AgeGroups),
			DistanceKm:     distance,
			ExtraHours:     pricing.ExtraHours(e.StartTime, e.EndTime, svc.DurationHours),
			AlcoholService: opts.AlcoholService,
		},
		Pricing: breakdown,
		Status:  model.BookingPending,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}

	s.mirrorLineItem(ctx, b, svc)
	s.publishStatus(ctx, b)
	return b, nil
}

// Confirm transitions a pending booking to confirmed. Only the
// booking's provider may confirm; any other actor gets ErrForbidden.
func (s *BookingService) Confirm(ctx context.Context, providerID, bookingID uint64) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !access.CanConfirmBooking(providerID, b) {
		return nil, repository.ErrForbidden
	}
	return s.transition(ctx, bookingID, []model.BookingStatus{model.BookingPending}, model.BookingConfirmed)
}

// Cancel transitions a pending or confirmed booking to cancelled.
// Either party of the booking may cancel.
func (s *BookingService) Cancel(ctx context.Context, actorID, bookingID uint64) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !access.CanCancelBooking(actorID, b) {
		return nil, repository.ErrForbidden
	}
	return s.transition(ctx, bookingID,
		[]model.BookingStatus{model.BookingPending, model.BookingConfirmed},
		model.BookingCancelled)
}

// List returns the bookings visible to the actor: clients see their
// own, providers see bookings naming them as the provider, admins see
// everything.
func (s *BookingService) List(ctx context.Context, actorID uint64, role access.Role) ([]model.Booking, error) {
	switch role {
	case access.RoleClient:
		return s.bookings.ListByClient(ctx, actorID)
	case access.RoleProvider:
		return s.bookings.ListByProvider(ctx, actorID)
	case access.RoleAdmin:
		return s.bookings.ListAll(ctx)
	}
	return nil, repository.ErrForbidden
}

// transition applies the optimistic status update, reloads the
// authoritative row and mirrors it onto the event ledger.
func (s *BookingService) transition(ctx context.Context, bookingID uint64, from []model.BookingStatus, to model.BookingStatus) (*model.Booking, error) {
	if err := s.bookings.UpdateStatusExpected(ctx, bookingID, from, to); err != nil {
		return nil, err
	}
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		// The status update already committed, so the mirror owes a
		// repair even though the caller sees an error.
		s.log.WithError(err).WithField("booking_id", bookingID).
			Warn("line item mirror deferred: booking reload failed")
		s.mirror.Enqueue(bookingID)
		return nil, err
	}
	svc, err := s.services.GetByID(ctx, b.ServiceID)
	if err != nil {
		// The booking status is already authoritative; repair the
		// mirror later rather than failing the transition.
		s.log.WithError(err).WithField("booking_id", b.ID).
			Warn("line item mirror deferred: service load failed")
		s.mirror.Enqueue(b.ID)
	} else {
		s.mirrorLineItem(ctx, b, svc)
	}
	s.publishStatus(ctx, b)
	return b, nil
}

// mirrorLineItem projects the booking onto the owning event's ledger.
// Failures are logged and queued for reconciliation; the booking row
// already carries the authoritative state.
func (s *BookingService) mirrorLineItem(ctx context.Context, b *model.Booking, svc *model.Service) {
	li := LineItemFromBooking(b, svc)
	if err := s.events.UpsertLineItem(ctx, &li); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"booking_id": b.ID,
			"event_id":   b.EventID,
		}).Warn("line item mirror failed, queued for reconciliation")
		s.mirror.Enqueue(b.ID)
	}
}

// publishStatus emits a booking status event. Publishing is
// fire-and-forget: a broker outage must never fail a transition whose
// database write already succeeded.
func (s *BookingService) publishStatus(ctx context.Context, b *model.Booking) {
	ev := queue.BookingStatusEvent{
		BookingID:  b.ID,
		Reference:  b.Reference,
		EventID:    b.EventID,
		ProviderID: b.ProviderID,
		ClientID:   b.ClientID,
		Status:     string(b.Status),
		Total:      b.Pricing.Total.String(),
		ChangedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.publisher.PublishBookingStatus(ctx, ev); err != nil {
		s.log.WithError(err).WithField("booking_id", b.ID).Warn("booking status publish failed")
	}
}

// LineItemFromBooking derives the event ledger entry from a booking
// and its service. The derivation uses nothing but the two inputs, so
// replaying it at any time converges the mirror to the booking's
// current state. The line item key includes category and subcategory
// to disambiguate providers with several bookings on one event.
func LineItemFromBooking(b *model.Booking, svc *model.Service) model.LineItem {
	return model.LineItem{
		EventID:     b.EventID,
		ProviderID:  b.ProviderID,
		Category:    svc.Category,
		Subcategory: svc.Subcategory,
		BasePrice:   b.Pricing.BasePrice,
		DistanceFee: b.Pricing.DistanceFee,
		ExtraHours:  b.Details.ExtraHours,
		TotalPrice:  b.Pricing.Total,
		Status:      b.Status,
	}
}
