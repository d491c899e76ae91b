// Package access centralizes every permission decision of the
// platform. All predicates are stateless functions of an actor and a
// freshly loaded resource; callers must never pass cached or
// client-supplied ownership claims. Handlers translate a denial into
// 403 for mutations, and into the same 404 body as a missing resource
// for reads so that one tenant cannot probe for another's resources.
package access

import "github.com/iliyamo/event-service-booking/internal/model"

// Role is the closed set of actor roles carried in the JWT role claim.
type Role string

const (
	RoleClient   Role = "CLIENT"
	RoleProvider Role = "PROVIDER"
	RoleAdmin    Role = "ADMIN"
)

// ValidRole reports whether s names one of the defined roles.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleClient, RoleProvider, RoleAdmin:
		return true
	}
	return false
}

// CanViewEvent allows the event's owning client and admins.
func CanViewEvent(actorID uint64, role Role, e *model.Event) bool {
	return e.ClientID == actorID || role == RoleAdmin
}

// CanModifyEvent allows updates and deletes to the owning client and
// admins. Identical to CanViewEvent today, kept separate so the two
// policies can diverge without touching call sites.
func CanModifyEvent(actorID uint64, role Role, e *model.Event) bool {
	return e.ClientID == actorID || role == RoleAdmin
}

// CanConfirmBooking allows only the booking's provider.
func CanConfirmBooking(actorID uint64, b *model.Booking) bool {
	return b.ProviderID == actorID
}

// CanCancelBooking allows either party of the booking, never third
// parties or admins acting on others' behalf.
func CanCancelBooking(actorID uint64, b *model.Booking) bool {
	return b.ClientID == actorID || b.ProviderID == actorID
}

// IsParticipant reports whether the user is one of the two chat
// participants of a booking.
func IsParticipant(userID uint64, b *model.Booking) bool {
	return b.ClientID == userID || b.ProviderID == userID
}

// Recipient returns the other participant of the booking's chat
// thread. The second return value is false when the sender is not a
// participant at all.
func Recipient(senderID uint64, b *model.Booking) (uint64, bool) {
	switch senderID {
	case b.ClientID:
		return b.ProviderID, true
	case b.ProviderID:
		return b.ClientID, true
	}
	return 0, false
}

// CanMarkRead allows only the message's recipient to flip the read
// flag.
func CanMarkRead(userID uint64, m *model.Message) bool {
	return m.RecipientID == userID
}
