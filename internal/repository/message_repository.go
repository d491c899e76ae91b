package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/iliyamo/event-service-booking/internal/model"
)

// MessageRepo provides access to booking chat messages. Attachments
// are stored as a JSON array on the row. Messages are append-only
// apart from the single read-receipt update.
type MessageRepo struct{ db *sql.DB }

// NewMessageRepo returns a new MessageRepo bound to the given database.
func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{db: db} }

const messageColumns = `id, booking_id, sender_id, recipient_id, content, attachments, read_flag, read_at, created_at`

// Create inserts a message and populates its generated ID and
// creation timestamp.
func (r *MessageRepo) Create(ctx context.Context, m *model.Message) error {
	attachments, err := json.Marshal(m.Attachments)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (booking_id, sender_id, recipient_id, content, attachments) VALUES (?,?,?,?,?)`,
		m.BookingID, m.SenderID, m.RecipientID, m.Content, attachments)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		`SELECT created_at FROM messages WHERE id = ?`, m.ID).Scan(&m.CreatedAt)
}

// GetByID loads a single message. ErrNotFound is returned when it
// does not exist.
func (r *MessageRepo) GetByID(ctx context.Context, id uint64) (*model.Message, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = ?`, id)
	return scanMessage(row)
}

// ListByBooking returns the messages of a booking's chat thread in
// the order they were accepted.
func (r *MessageRepo) ListByBooking(ctx context.Context, bookingID uint64) ([]model.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE booking_id = ? ORDER BY created_at, id`,
		bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]model.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}

// MarkRead records the read receipt for a message at the given
// instant. The predicate on read_at makes the call idempotent: a
// second call matches no row and returns updated=false, leaving the
// original timestamp untouched.
func (r *MessageRepo) MarkRead(ctx context.Context, id uint64, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET read_flag = 1, read_at = ? WHERE id = ? AND read_at IS NULL`,
		at.UTC(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanMessage(s scanner) (*model.Message, error) {
	var m model.Message
	var attachments []byte
	var readAt sql.NullTime
	err := s.Scan(
		&m.ID, &m.BookingID, &m.SenderID, &m.RecipientID, &m.Content,
		&attachments, &m.Read, &readAt, &m.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &m.Attachments); err != nil {
			return nil, err
		}
	}
	if readAt.Valid {
		t := readAt.Time
		m.ReadAt = &t
	}
	return &m, nil
}
