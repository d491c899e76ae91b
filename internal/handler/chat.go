package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-service-booking/internal/model"
	"github.com/iliyamo/event-service-booking/internal/service"
)

// ChatHandler exposes the per-booking chat thread.
type ChatHandler struct {
	Chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	if chat == nil {
		panic("nil service passed to NewChatHandler")
	}
	return &ChatHandler{Chat: chat}
}

// ----- DTOs -----

type sendMessageReq struct {
	Content     string             `json:"content"`
	Attachments []model.Attachment `json:"attachments"`
}

type messageResp struct {
	ID          uint64             `json:"id"`
	BookingID   uint64             `json:"booking_id"`
	SenderID    uint64             `json:"sender_id"`
	RecipientID uint64             `json:"recipient_id"`
	Content     string             `json:"content"`
	Attachments []model.Attachment `json:"attachments,omitempty"`
	Read        bool               `json:"read"`
	ReadAt      *time.Time         `json:"read_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

func messageToResp(m *model.Message) messageResp {
	return messageResp{
		ID:          m.ID,
		BookingID:   m.BookingID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Content:     m.Content,
		Attachments: m.Attachments,
		Read:        m.Read,
		ReadAt:      m.ReadAt,
		CreatedAt:   m.CreatedAt,
	}
}

// validAttachments checks that every attachment carries a URL and one
// of the known kinds. Uploads happen elsewhere; only the final
// references are accepted here.
func validAttachments(atts []model.Attachment) bool {
	for _, a := range atts {
		if strings.TrimSpace(a.URL) == "" {
			return false
		}
		switch a.Kind {
		case model.AttachmentImage, model.AttachmentDocument, model.AttachmentOther:
		default:
			return false
		}
	}
	return true
}

// ----- endpoints -----

// History returns the booking's thread; participants only.
func (h *ChatHandler) History(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	bookingID, ok := parseIDParam(c, "bookingId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	msgs, err := h.Chat.History(ctx, uid, bookingID)
	if err != nil {
		return writeError(c, err, false)
	}
	out := make([]messageResp, 0, len(msgs))
	for i := range msgs {
		out = append(out, messageToResp(&msgs[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Send appends a message to the booking's thread. The recipient is
// always derived server-side as the other participant.
func (h *ChatHandler) Send(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	bookingID, ok := parseIDParam(c, "bookingId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req sendMessageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" && len(req.Attachments) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content or attachments required"})
	}
	if !validAttachments(req.Attachments) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "attachments need a url and a kind of image, document or other"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	m, err := h.Chat.Send(ctx, uid, bookingID, req.Content, req.Attachments)
	if err != nil {
		return writeError(c, err, false)
	}
	return c.JSON(http.StatusCreated, messageToResp(m))
}

// MarkRead flips the read receipt of a message addressed to the
// caller. Repeating the call answers 200 with the original receipt.
func (h *ChatHandler) MarkRead(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid message id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	m, err := h.Chat.MarkRead(ctx, uid, id)
	if err != nil {
		return writeError(c, err, false)
	}
	return c.JSON(http.StatusOK, messageToResp(m))
}
