package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-service-booking/internal/access"
	"github.com/iliyamo/event-service-booking/internal/model"
	"github.com/iliyamo/event-service-booking/internal/pricing"
	"github.com/iliyamo/event-service-booking/internal/queue"
	"github.com/iliyamo/event-service-booking/internal/repository"
)

// ---- in-memory fakes -------------------------------------------------

type fakeEventStore struct {
	events     map[uint64]*model.Event
	lineItems  map[string]model.LineItem
	failUpsert bool
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{
		events:    map[uint64]*model.Event{},
		lineItems: map[string]model.LineItem{},
	}
}

func lineItemKey(li *model.LineItem) string {
	return fmt.Sprintf("%d/%d/%s/%s", li.EventID, li.ProviderID, li.Category, li.Subcategory)
}

func (s *fakeEventStore) GetByID(_ context.Context, id uint64) (*model.Event, error) {
	e, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return e, nil
}

func (s *fakeEventStore) UpsertLineItem(_ context.Context, li *model.LineItem) error {
	if s.failUpsert {
		return errors.New("mirror write refused")
	}
	s.lineItems[lineItemKey(li)] = *li
	return nil
}

type fakeServiceStore struct {
	services map[uint64]*model.Service
}

func (s *fakeServiceStore) GetByID(_ context.Context, id uint64) (*model.Service, error) {
	svc, ok := s.services[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return svc, nil
}

type fakeBookingStore struct {
	bookings  map[uint64]*model.Booking
	services  map[uint64]*model.Service
	nextID    uint64
	getCalls  int
	failGetOn int // 1-based GetByID call that fails; 0 disables
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{
		bookings: map[uint64]*model.Booking{},
		services: map[uint64]*model.Service{},
		nextID:   1,
	}
}

func (s *fakeBookingStore) Create(_ context.Context, b *model.Booking) error {
	b.ID = s.nextID
	s.nextID++
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	s.bookings[b.ID] = &cp
	return nil
}

func (s *fakeBookingStore) GetByID(_ context.Context, id uint64) (*model.Booking, error) {
	s.getCalls++
	if s.failGetOn != 0 && s.getCalls == s.failGetOn {
		return nil, errors.New("booking read failed")
	}
	b, ok := s.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *fakeBookingStore) HasActiveForLedgerKey(_ context.Context, eventID, providerID uint64, category, subcategory string) (bool, error) {
	for _, b := range s.bookings {
		if b.EventID != eventID || b.ProviderID != providerID || b.Status == model.BookingCancelled {
			continue
		}
		svc, ok := s.services[b.ServiceID]
		if ok && svc.Category == category && svc.Subcategory == subcategory {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeBookingStore) UpdateStatusExpected(_ context.Context, id uint64, from []model.BookingStatus, to model.BookingStatus) error {
	b, ok := s.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	for _, f := range from {
		if b.Status == f {
			b.Status = to
			b.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return repository.ErrStaleState
}

func (s *fakeBookingStore) ListByClient(_ context.Context, clientID uint64) ([]model.Booking, error) {
	var out []model.Booking
	for _, b := range s.bookings {
		if b.ClientID == clientID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *fakeBookingStore) ListByProvider(_ context.Context, providerID uint64) ([]model.Booking, error) {
	var out []model.Booking
	for _, b := range s.bookings {
		if b.ProviderID == providerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *fakeBookingStore) ListAll(_ context.Context) ([]model.Booking, error) {
	var out []model.Booking
	for _, b := range s.bookings {
		out = append(out, *b)
	}
	return out, nil
}

type fakeMirrorQueue struct {
	ids []uint64
}

func (q *fakeMirrorQueue) Enqueue(bookingID uint64) { q.ids = append(q.ids, bookingID) }

type fakePublisher struct {
	statusEvents []queue.BookingStatusEvent
	newEvents    []queue.MessageNewEvent
	readEvents   []queue.MessageReadEvent
	errorEvents  []queue.MessageErrorEvent
}

func (p *fakePublisher) PublishMessageNew(_ context.Context, ev queue.MessageNewEvent) error {
	p.newEvents = append(p.newEvents, ev)
	return nil
}

func (p *fakePublisher) PublishMessageRead(_ context.Context, ev queue.MessageReadEvent) error {
	p.readEvents = append(p.readEvents, ev)
	return nil
}

func (p *fakePublisher) PublishMessageError(_ context.Context, ev queue.MessageErrorEvent) error {
	p.errorEvents = append(p.errorEvents, ev)
	return nil
}

func (p *fakePublisher) PublishBookingStatus(_ context.Context, ev queue.BookingStatusEvent) error {
	p.statusEvents = append(p.statusEvents, ev)
	return nil
}

// ---- fixtures --------------------------------------------------------

const (
	clientID   uint64 = 10
	providerID uint64 = 20
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func f64(v float64) *float64 { return &v }

func testEvent() *model.Event {
	date := time.Date(2026, time.June, 20, 0, 0, 0, 0, time.UTC)
	return &model.Event{
		ID:        1,
		ClientID:  clientID,
		Theme:     "garden party",
		Occasion:  model.OccasionBirthday,
		Date:      date,
		StartTime: time.Date(2026, time.June, 20, 16, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, time.June, 20, 20, 0, 0, 0, time.UTC),
		Location: model.Location{
			Address:   "Unter den Linden 1",
			City:      "Berlin",
			Latitude:  f64(52.5200),
			Longitude: f64(13.4050),
		},
		Guests: model.GuestSummary{Total: 12, Adults: 12},
	}
}

func testService() *model.Service {
	return &model.Service{
		ID:               5,
		ProviderID:       providerID,
		Category:         "food-drink",
		Subcategory:      "catering",
		Name:             "Buffet classic",
		BasePrice:        decimal.NewFromInt(1000),
		DurationHours:    4,
		ExtraHourPrice:   decimal.NewFromInt(100),
		ServiceAreaKm:    10,
		DistanceFeePerKm: decimal.NewFromInt(25),
		AgeGroups:        model.AgeGroups{ChildMin: 3, ChildMax: 12, ChildPrice: decimal.NewFromInt(25)},
		Alcohol:          model.AlcoholOptions{Available: true, PricePerPerson: decimal.NewFromInt(15)},
		Location: model.Location{
			Latitude:  f64(52.5200),
			Longitude: f64(13.4050),
		},
		Active: true,
	}
}

type lifecycleFixture struct {
	events   *fakeEventStore
	services *fakeServiceStore
	bookings *fakeBookingStore
	mirror   *fakeMirrorQueue
	pub      *fakePublisher
	svc      *BookingService
}

func newLifecycleFixture() *lifecycleFixture {
	f := &lifecycleFixture{
		events:   newFakeEventStore(),
		services: &fakeServiceStore{services: map[uint64]*model.Service{}},
		bookings: newFakeBookingStore(),
		mirror:   &fakeMirrorQueue{},
		pub:      &fakePublisher{},
	}
	f.events.events[1] = testEvent()
	f.services.services[5] = testService()
	f.bookings.services = f.services.services
	f.svc = NewBookingService(f.events, f.services, f.bookings, f.mirror, f.pub, testLogger())
	return f
}

// ---- tests -----------------------------------------------------------

func TestCreateBooking(t *testing.T) {
	f := newLifecycleFixture()

	b, err := f.svc.Create(context.Background(), clientID, 1, 5, pricing.Options{})
	require.NoError(t, err)

	assert.Equal(t, model.BookingPending, b.Status)
	assert.NotEmpty(t, b.Reference)
	assert.Equal(t, providerID, b.ProviderID)
	// same coordinates, duration fits, no children: quote is base price
	// plus the 5% platform commission.
	assert.True(t, b.Pricing.Subtotal.Equal(decimal.NewFromInt(1000)), "subtotal %s", b.Pricing.Subtotal)
	assert.True(t, b.Pricing.Total.Equal(decimal.NewFromInt(1050)), "total %s", b.Pricing.Total)

	stored, err := f.bookings.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, stored.Status)

	li, ok := f.events.lineItems["1/20/food-drink/catering"]
	require.True(t, ok, "line item was not mirrored")
	assert.Equal(t, model.BookingPending, li.Status)
	assert.True(t, li.TotalPrice.Equal(b.Pricing.Total))

	require.Len(t, f.pub.statusEvents, 1)
	assert.Equal(t, "pending", f.pub.statusEvents[0].Status)
	assert.Empty(t, f.mirror.ids)
}

func TestCreateBookingOnForeignEvent(t *testing.T) {
	f := newLifecycleFixture()

	_, err := f.svc.Create(context.Background(), 99, 1, 5, pricing.Options{})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Empty(t, f.bookings.bookings)
}

func TestCreateBookingInvalidQuote(t *testing.T) {
	f := newLifecycleFixture()
	f.events.events[1].Location.Latitude = nil

	_, err := f.svc.Create(context.Background(), clientID, 1, 5, pricing.Options{})
	assert.ErrorIs(t, err, pricing.ErrInvalidInput)
}

func TestCreateBookingMirrorFailureStillSucceeds(t *testing.T) {
	f := newLifecycleFixture()
	f.events.failUpsert = true

	b, err := f.svc.Create(context.Background(), clientID, 1, 5, pricing.Options{})
	require.NoError(t, err, "a mirror failure must not fail the booking")
	assert.Equal(t, model.BookingPending, b.Status)
	assert.Empty(t, f.events.lineItems)
	require.Equal(t, []uint64{b.ID}, f.mirror.ids, "booking must be queued for reconciliation")

	// Once the ledger accepts writes again, replaying the booking
	// converges the line item to the authoritative row.
	f.events.failUpsert = false
	rec := NewReconciler(f.events, f.services, f.bookings, testLogger())
	require.NoError(t, rec.Reconcile(context.Background(), b.ID))

	li, ok := f.events.lineItems["1/20/food-drink/catering"]
	require.True(t, ok)
	assert.Equal(t, model.BookingPending, li.Status)
	assert.True(t, li.TotalPrice.Equal(b.Pricing.Total))
}

func TestConfirmBooking(t *testing.T) {
	f := newLifecycleFixture()
	b, err := f.svc.Create(context.Background(), clientID, 1, 5, pricing.Options{})
	require.NoError(t, err)

	confirmed, err := f.svc.Confirm(context.Background(), providerID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, confirmed.Status)

	li := f.events.lineItems["1/20/food-drink/catering"]
	assert.Equal(t, model.BookingConfirmed, li.Status, "line item must follow the booking status")
}

func TestConfirmBookingByNonProvider(t *testing.T) {
	f := newLifecycleFixture()
	b, err := f.svc.Create(context.Background(), clientID, 1, 5, pricing.Options{})
	require.NoError(t, err)

	_, err = f.svc.Confirm(context.Background(), clientID, b.ID)
	assert.ErrorIs(t, err, repository.ErrForbidden)

	stored, _ := f.bookings.GetByID(context.Background(), b.ID)
	assert.Equal(t, model.BookingPending, stored.Status)
}

func TestCreateBookingDuplicateServiceRejected(t *testing.T) {
	f := newLifecycleFixture()
	b, err := f.svc.Create(context.Background(), clientID, 1, 5, pricing.Options{})
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), clientID, 1, 5, pricing.Options{})
	assert.ErrorIs(t, err, repository.ErrDuplicateBooking)
	assert.Len(t, f.bookings.bookings, 1, "second booking must not be persisted")

	// Cancelling the first booking frees the ledger slot again.
	_, err = f.svc.Cancel(context.Background(), clientID, b.ID)
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), clientID, 1, 5, pricing.Options{})
	assert.NoError(t, err)
}

func TestConfirmReloadFailureQueuesMirrorRepair(t *testing.T) {
	f := newLifecycleFixture()
	b, err := f.svc.Create(context.Background(), clientID, 1, 5, pricing.Options{})
	require.NoError(t, err)

	// Confirm reads the booking twice: once for the ownership check
	// and once to reload the row after the status update. Failing the
	// second read leaves the committed transition without its mirror.
	f.bookings.failGetOn = f.bookings.getCalls + 2
	_, err = f.svc.Confirm(context.Background(), providerID, b.ID)
	require.Error(t, err)

	stored, err := f.bookings.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, stored.Status, "status update was already committed")
	assert.Contains(t, f.mirror.ids, b.ID, "booking must be queued for reconciliation")

	li := f.events.lineItems["1/20/food-drink/catering"]
	assert.Equal(t, model.BookingPending, li.Status, "mirror is stale until the reconciler replays it")
}

func TestConfirmCancelledBooking(t *testing.T) {
	f := newLifecycleFixture()
	b, err := f.svc.Create(context.Background(), clientID, 1, 5, pricing.Options{})
	require.NoError(t, err)
	_, err = f.svc.Cancel(context.Background(), clientID, b.ID)
	require.NoError(t, err)

	_, err = f.svc.Confirm(context.Background(), providerID, b.ID)
	assert.ErrorIs(t, err, repository.ErrStaleState)
}

func TestCancelConfirmedBooking(t *testing.T) {
	f := newLifecycleFixture()
	b, err := f.svc.Create(context.Background(), clientID, 1, 5, pricing.Options{})
	require.NoError(t, err)
	_, err = f.svc.Confirm(context.Background(), providerID, b.ID)
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(context.Background(), providerID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, cancelled.Status)

	li := f.events.lineItems["1/20/food-drink/catering"]
	assert.Equal(t, model.BookingCancelled, li.Status)
}

func TestCancelByThirdParty(t *testing.T) {
	f := newLifecycleFixture()
	b, err := f.svc.Create(context.Background(), clientID, 1, 5, pricing.Options{})
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), 99, b.ID)
	assert.ErrorIs(t, err, repository.ErrForbidden)
}

func TestListScopes(t *testing.T) {
	f := newLifecycleFixture()
	_, err := f.svc.Create(context.Background(), clientID, 1, 5, pricing.Options{})
	require.NoError(t, err)

	own, err := f.svc.List(context.Background(), clientID, access.RoleClient)
	require.NoError(t, err)
	assert.Len(t, own, 1)

	other, err := f.svc.List(context.Background(), 99, access.RoleClient)
	require.NoError(t, err)
	assert.Empty(t, other)

	incoming, err := f.svc.List(context.Background(), providerID, access.RoleProvider)
	require.NoError(t, err)
	assert.Len(t, incoming, 1)

	all, err := f.svc.List(context.Background(), 0, access.RoleAdmin)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
