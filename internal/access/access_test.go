package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/event-service-booking/internal/access"
	"github.com/iliyamo/event-service-booking/internal/model"
)

func TestEventPredicates(t *testing.T) {
	e := &model.Event{ID: 1, ClientID: 10}

	assert.True(t, access.CanViewEvent(10, access.RoleClient, e))
	assert.True(t, access.CanViewEvent(99, access.RoleAdmin, e))
	assert.False(t, access.CanViewEvent(11, access.RoleClient, e))
	assert.False(t, access.CanViewEvent(11, access.RoleProvider, e))

	assert.True(t, access.CanModifyEvent(10, access.RoleClient, e))
	assert.False(t, access.CanModifyEvent(11, access.RoleClient, e))
}

func TestBookingPredicates(t *testing.T) {
	b := &model.Booking{ID: 1, ClientID: 10, ProviderID: 20}

	assert.True(t, access.CanConfirmBooking(20, b))
	assert.False(t, access.CanConfirmBooking(10, b), "client must not confirm")
	assert.False(t, access.CanConfirmBooking(30, b))

	assert.True(t, access.CanCancelBooking(10, b))
	assert.True(t, access.CanCancelBooking(20, b))
	assert.False(t, access.CanCancelBooking(30, b))
}

func TestChatParticipants(t *testing.T) {
	b := &model.Booking{ID: 1, ClientID: 10, ProviderID: 20}

	assert.True(t, access.IsParticipant(10, b))
	assert.True(t, access.IsParticipant(20, b))
	assert.False(t, access.IsParticipant(30, b))

	r, ok := access.Recipient(10, b)
	assert.True(t, ok)
	assert.Equal(t, uint64(20), r, "client always resolves to the provider")

	r, ok = access.Recipient(20, b)
	assert.True(t, ok)
	assert.Equal(t, uint64(10), r)

	_, ok = access.Recipient(30, b)
	assert.False(t, ok)
}

func TestCanMarkRead(t *testing.T) {
	m := &model.Message{ID: 5, SenderID: 10, RecipientID: 20}

	assert.True(t, access.CanMarkRead(20, m))
	assert.False(t, access.CanMarkRead(10, m), "sender cannot mark own message read")
}

func TestValidRole(t *testing.T) {
	assert.True(t, access.ValidRole("CLIENT"))
	assert.True(t, access.ValidRole("PROVIDER"))
	assert.True(t, access.ValidRole("ADMIN"))
	assert.False(t, access.ValidRole("client"))
	assert.False(t, access.ValidRole("OWNER"))
}
