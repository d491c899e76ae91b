package model

import "time"

// AttachmentKind enumerates the media kinds a chat attachment may have.
// Upload handling is external; the platform only ever stores the final
// URL and kind pair.
type AttachmentKind string

const (
	AttachmentImage    AttachmentKind = "image"
	AttachmentDocument AttachmentKind = "document"
	AttachmentOther    AttachmentKind = "other"
)

// Attachment is a single file reference carried by a message. The
// slice of attachments is stored as a JSON column on the messages row.
type Attachment struct {
	URL  string         `json:"url"`
	Kind AttachmentKind `json:"kind"`
}

// Message belongs to exactly one booking. Sender and recipient are
// always the booking's two participants, in either order, and never
// the same user. A message is mutated at most once, when its
// recipient marks it read; it is never deleted.
type Message struct {
	ID          uint64       // messages.id
	BookingID   uint64       // messages.booking_id
	SenderID    uint64       // messages.sender_id
	RecipientID uint64       // messages.recipient_id
	Content     string       // messages.content
	Attachments []Attachment // messages.attachments (JSON)
	Read        bool         // messages.read_flag
	ReadAt      *time.Time   // messages.read_at (nullable)
	CreatedAt   time.Time    // messages.created_at
}
