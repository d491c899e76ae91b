package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-service-booking/internal/model"
	"github.com/iliyamo/event-service-booking/internal/pricing"
	"github.com/iliyamo/event-service-booking/internal/repository"
)

type fakeMessageStore struct {
	messages map[uint64]*model.Message
	nextID   uint64
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{messages: map[uint64]*model.Message{}, nextID: 1}
}

func (s *fakeMessageStore) Create(_ context.Context, m *model.Message) error {
	m.ID = s.nextID
	s.nextID++
	m.CreatedAt = time.Now().UTC()
	cp := *m
	s.messages[m.ID] = &cp
	return nil
}

func (s *fakeMessageStore) GetByID(_ context.Context, id uint64) (*model.Message, error) {
	m, ok := s.messages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *fakeMessageStore) ListByBooking(_ context.Context, bookingID uint64) ([]model.Message, error) {
	var out []model.Message
	for id := uint64(1); id < s.nextID; id++ {
		if m, ok := s.messages[id]; ok && m.BookingID == bookingID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *fakeMessageStore) MarkRead(_ context.Context, id uint64, at time.Time) (bool, error) {
	m, ok := s.messages[id]
	if !ok || m.ReadAt != nil {
		return false, nil
	}
	m.Read = true
	t := at
	m.ReadAt = &t
	return true, nil
}

type chatFixture struct {
	lifecycle *lifecycleFixture
	messages  *fakeMessageStore
	pub       *fakePublisher
	chat      *ChatService
	booking   *model.Booking
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	lf := newLifecycleFixture()
	b, err := lf.svc.Create(context.Background(), clientID, 1, 5, pricing.Options{})
	require.NoError(t, err)

	f := &chatFixture{
		lifecycle: lf,
		messages:  newFakeMessageStore(),
		pub:       &fakePublisher{},
		booking:   b,
	}
	f.chat = NewChatService(lf.bookings, f.messages, f.pub, testLogger())
	return f
}

func TestSendResolvesRecipient(t *testing.T) {
	f := newChatFixture(t)

	m, err := f.chat.Send(context.Background(), clientID, f.booking.ID, "is Saturday possible?", nil)
	require.NoError(t, err)
	assert.Equal(t, providerID, m.RecipientID, "recipient must be the other participant")
	assert.False(t, m.Read)

	reply, err := f.chat.Send(context.Background(), providerID, f.booking.ID, "yes, after 4pm", nil)
	require.NoError(t, err)
	assert.Equal(t, clientID, reply.RecipientID)

	require.Len(t, f.pub.newEvents, 2)
	assert.Equal(t, f.booking.ID, f.pub.newEvents[0].BookingID)
}

func TestSendByNonParticipant(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.chat.Send(context.Background(), 99, f.booking.ID, "hello", nil)
	assert.ErrorIs(t, err, repository.ErrForbidden)
	assert.Empty(t, f.messages.messages, "rejected message must not be stored")

	require.Len(t, f.pub.errorEvents, 1)
	assert.Equal(t, "forbidden", f.pub.errorEvents[0].Kind)
}

func TestSendOnMissingBooking(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.chat.Send(context.Background(), clientID, 999, "hello", nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Empty(t, f.pub.errorEvents)
}

func TestHistoryRequiresParticipation(t *testing.T) {
	f := newChatFixture(t)
	_, err := f.chat.Send(context.Background(), clientID, f.booking.ID, "first", nil)
	require.NoError(t, err)
	_, err = f.chat.Send(context.Background(), providerID, f.booking.ID, "second", nil)
	require.NoError(t, err)

	msgs, err := f.chat.History(context.Background(), providerID, f.booking.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content)

	_, err = f.chat.History(context.Background(), 99, f.booking.ID)
	assert.ErrorIs(t, err, repository.ErrForbidden)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	f := newChatFixture(t)
	m, err := f.chat.Send(context.Background(), clientID, f.booking.ID, "ping", nil)
	require.NoError(t, err)

	first, err := f.chat.MarkRead(context.Background(), providerID, m.ID)
	require.NoError(t, err)
	assert.True(t, first.Read)
	require.NotNil(t, first.ReadAt)

	second, err := f.chat.MarkRead(context.Background(), providerID, m.ID)
	require.NoError(t, err)
	require.NotNil(t, second.ReadAt)
	assert.Equal(t, *first.ReadAt, *second.ReadAt, "repeat receipt must keep the original timestamp")

	assert.Len(t, f.pub.readEvents, 1, "repeat receipt must not publish again")
}

func TestMarkReadBySender(t *testing.T) {
	f := newChatFixture(t)
	m, err := f.chat.Send(context.Background(), clientID, f.booking.ID, "ping", nil)
	require.NoError(t, err)

	_, err = f.chat.MarkRead(context.Background(), clientID, m.ID)
	assert.ErrorIs(t, err, repository.ErrForbidden)

	stored, _ := f.messages.GetByID(context.Background(), m.ID)
	assert.False(t, stored.Read)
}
