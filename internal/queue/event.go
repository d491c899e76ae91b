// Package queue defines message payloads exchanged over the message broker.
package queue

import "github.com/iliyamo/event-service-booking/internal/model"

// Exchange is the topic exchange all booking-scoped events are
// published to. Routing keys are prefixed with the booking ID
// ("booking.<id>.message.new", "booking.<id>.status.confirmed", ...)
// so each booking forms a single logical topic: consumers of one
// booking observe its events in publish order, with no ordering
// guarantee across bookings.
const Exchange = "booking.events"

// MessageNewEvent is published after a chat message has been
// persisted. It carries enough information for downstream consumers
// to fan out to connected participants without querying the primary
// database.
type MessageNewEvent struct {
	BookingID   uint64             `json:"booking_id"`
	MessageID   uint64             `json:"message_id"`
	SenderID    uint64             `json:"sender_id"`
	RecipientID uint64             `json:"recipient_id"`
	Content     string             `json:"content"`
	Attachments []model.Attachment `json:"attachments,omitempty"`
	SentAt      string             `json:"sent_at"`
}

// MessageReadEvent notifies a message's sender that the recipient has
// read it. Delivery is fire-and-forget.
type MessageReadEvent struct {
	BookingID uint64 `json:"booking_id"`
	MessageID uint64 `json:"message_id"`
	ReaderID  uint64 `json:"reader_id"`
	ReadAt    string `json:"read_at"`
}

// MessageErrorEvent reports a rejected chat write to the offending
// sender's connection, mirroring the error kinds of the HTTP surface.
type MessageErrorEvent struct {
	BookingID uint64 `json:"booking_id"`
	SenderID  uint64 `json:"sender_id"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
}

// BookingStatusEvent is published whenever a booking changes state,
// including creation. Consumers use it for notifications and
// analytics.
type BookingStatusEvent struct {
	BookingID  uint64 `json:"booking_id"`
	Reference  string `json:"reference"`
	EventID    uint64 `json:"event_id"`
	ProviderID uint64 `json:"provider_id"`
	ClientID   uint64 `json:"client_id"`
	Status     string `json:"status"`
	Total      string `json:"total"`
	ChangedAt  string `json:"changed_at"`
}
