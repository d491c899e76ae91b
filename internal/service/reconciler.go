package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Reconciler repairs event ledger entries that drifted from their
// authoritative bookings. Booking IDs arrive on a buffered channel
// from the lifecycle's failed mirror writes; Run drains them in a
// single goroutine and re-derives each line item from scratch, so a
// repair is safe to repeat any number of times.
type Reconciler struct {
	events   EventStore
	services ServiceStore
	bookings BookingStore
	log      *logrus.Logger

	queue chan uint64
	// pending holds IDs whose repair failed, retried on every tick.
	pending map[uint64]struct{}
}

// reconcileInterval is how often queued repairs are retried.
const reconcileInterval = 30 * time.Second

// NewReconciler builds a reconciler with a bounded repair queue.
func NewReconciler(events EventStore, services ServiceStore, bookings BookingStore, log *logrus.Logger) *Reconciler {
	return &Reconciler{
		events:   events,
		services: services,
		bookings: bookings,
		log:      log,
		queue:    make(chan uint64, 256),
		pending:  map[uint64]struct{}{},
	}
}

// Enqueue registers a booking whose line item needs repair. It never
// blocks the caller: when the queue is full the ID is dropped with a
// warning, and a later transition or manual replay will pick the row
// up again.
func (r *Reconciler) Enqueue(bookingID uint64) {
	select {
	case r.queue <- bookingID:
	default:
		r.log.WithField("booking_id", bookingID).Warn("reconciler queue full, dropping repair request")
	}
}

// Run processes repair requests until the context is cancelled. All
// repairs execute on this goroutine, so a booking is never reconciled
// concurrently with itself.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(reconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case id := <-r.queue:
			r.repair(ctx, id)
		case <-ticker.C:
			for id := range r.pending {
				r.repair(ctx, id)
			}
		}
	}
}

func (r *Reconciler) repair(ctx context.Context, bookingID uint64) {
	if err := r.Reconcile(ctx, bookingID); err != nil {
		r.log.WithError(err).WithField("booking_id", bookingID).Warn("line item repair failed, will retry")
		r.pending[bookingID] = struct{}{}
		return
	}
	delete(r.pending, bookingID)
	r.log.WithField("booking_id", bookingID).Info("line item reconciled")
}

// Reconcile re-derives the event line item for one booking from the
// booking row and its service, and upserts it. The booking is always
// treated as the source of truth; whatever the ledger currently holds
// is overwritten.
func (r *Reconciler) Reconcile(ctx context.Context, bookingID uint64) error {
	b, err := r.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	svc, err := r.services.GetByID(ctx, b.ServiceID)
	if err != nil {
		return err
	}
	li := LineItemFromBooking(b, svc)
	return r.events.UpsertLineItem(ctx, &li)
}
