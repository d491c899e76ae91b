package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-service-booking/internal/access"
	"github.com/iliyamo/event-service-booking/internal/model"
	"github.com/iliyamo/event-service-booking/internal/queue"
	"github.com/iliyamo/event-service-booking/internal/repository"
)

// MessageStore is the persistence contract for the chat thread.
type MessageStore interface {
	Create(ctx context.Context, m *model.Message) error
	GetByID(ctx context.Context, id uint64) (*model.Message, error)
	ListByBooking(ctx context.Context, bookingID uint64) ([]model.Message, error)
	MarkRead(ctx context.Context, id uint64, at time.Time) (bool, error)
}

// ChatService guards the per-booking chat thread. Every operation
// reloads the booking and checks participation against it; the client
// never supplies the recipient, it is always derived as the other
// participant.
type ChatService struct {
	bookings  BookingStore
	messages  MessageStore
	publisher EventPublisher
	log       *logrus.Logger
}

// NewChatService wires the chat thread with its collaborators.
func NewChatService(bookings BookingStore, messages MessageStore, publisher EventPublisher, log *logrus.Logger) *ChatService {
	return &ChatService{bookings: bookings, messages: messages, publisher: publisher, log: log}
}

// Send appends a message to the booking's thread. The recipient is
// resolved from the booking; a sender who is not a participant gets
// ErrForbidden and an error event on the broker so a connected socket
// can surface the rejection.
func (s *ChatService) Send(ctx context.Context, senderID, bookingID uint64, content string, attachments []model.Attachment) (*model.Message, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	recipientID, ok := access.Recipient(senderID, b)
	if !ok {
		s.publishError(ctx, bookingID, senderID, "forbidden", "sender is not a participant of this booking")
		return nil, repository.ErrForbidden
	}

	m := &model.Message{
		BookingID:   bookingID,
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		Attachments: attachments,
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, err
	}

	ev := queue.MessageNewEvent{
		BookingID:   bookingID,
		MessageID:   m.ID,
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		Attachments: attachments,
		SentAt:      m.CreatedAt.UTC().Format(time.RFC3339),
	}
	if err := s.publisher.PublishMessageNew(ctx, ev); err != nil {
		s.log.WithError(err).WithField("message_id", m.ID).Warn("message.new publish failed")
	}
	return m, nil
}

// History returns the booking's thread in send order. Unlike event
// reads, a non-participant is told forbidden rather than not found:
// the caller already proved knowledge of the booking ID by being
// routed here with it.
func (s *ChatService) History(ctx context.Context, userID, bookingID uint64) ([]model.Message, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !access.IsParticipant(userID, b) {
		return nil, repository.ErrForbidden
	}
	return s.messages.ListByBooking(ctx, bookingID)
}

// MarkRead flips a message's read receipt. Only the recipient may do
// so, and repeating the call is a no-op that preserves the original
// ReadAt timestamp and emits no second broker event.
func (s *ChatService) MarkRead(ctx context.Context, userID, messageID uint64) (*model.Message, error) {
	m, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if !access.CanMarkRead(userID, m) {
		return nil, repository.ErrForbidden
	}
	if m.Read {
		return m, nil
	}

	now := time.Now().UTC()
	updated, err := s.messages.MarkRead(ctx, messageID, now)
	if err != nil {
		return nil, err
	}
	if !updated {
		// A concurrent call won the receipt; reload for its timestamp.
		return s.messages.GetByID(ctx, messageID)
	}
	m.Read = true
	m.ReadAt = &now

	ev := queue.MessageReadEvent{
		BookingID: m.BookingID,
		MessageID: m.ID,
		ReaderID:  userID,
		ReadAt:    now.Format(time.RFC3339),
	}
	if err := s.publisher.PublishMessageRead(ctx, ev); err != nil {
		s.log.WithError(err).WithField("message_id", m.ID).Warn("message.read publish failed")
	}
	return m, nil
}

func (s *ChatService) publishError(ctx context.Context, bookingID, senderID uint64, kind, msg string) {
	ev := queue.MessageErrorEvent{
		BookingID: bookingID,
		SenderID:  senderID,
		Kind:      kind,
		Message:   msg,
	}
	if err := s.publisher.PublishMessageError(ctx, ev); err != nil {
		s.log.WithError(err).WithField("booking_id", bookingID).Warn("message.error publish failed")
	}
}
