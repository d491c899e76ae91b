package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-service-booking/internal/access"
	"github.com/iliyamo/event-service-booking/internal/model"
	"github.com/iliyamo/event-service-booking/internal/pricing"
	"github.com/iliyamo/event-service-booking/internal/service"
)

// BookingHandler exposes the booking lifecycle over HTTP. All
// transition rules live in the service; the handler only shapes
// requests and responses.
type BookingHandler struct {
	Bookings *service.BookingService
}

func NewBookingHandler(bookings *service.BookingService) *BookingHandler {
	if bookings == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{Bookings: bookings}
}

// ----- DTOs -----

type createBookingReq struct {
	EventID        uint64 `json:"event_id"`
	ServiceID      uint64 `json:"service_id"`
	AlcoholService bool   `json:"alcohol_service"`
}

type pricingPart struct {
	BasePrice             string `json:"base_price"`
	DistanceFee           string `json:"distance_fee"`
	ExtraHoursFee         string `json:"extra_hours_fee"`
	ChildSurcharge        string `json:"child_surcharge"`
	SeasonalMultiplier    string `json:"seasonal_multiplier"`
	SpecialDateMultiplier string `json:"special_date_multiplier"`
	AlcoholFee            string `json:"alcohol_fee"`
	Subtotal              string `json:"subtotal"`
	PlatformFee           string `json:"platform_fee"`
	Total                 string `json:"total"`
}

type bookingResp struct {
	ID             uint64      `json:"id"`
	Reference      string      `json:"reference"`
	EventID        uint64      `json:"event_id"`
	ServiceID      uint64      `json:"service_id"`
	ProviderID     uint64      `json:"provider_id"`
	ClientID       uint64      `json:"client_id"`
	Status         string      `json:"status"`
	Date           string      `json:"date"`
	StartTime      string      `json:"start_time"`
	EndTime        string      `json:"end_time"`
	GuestCount     int         `json:"guest_count"`
	ChildCount     int         `json:"child_count"`
	DistanceKm     float64     `json:"distance_km"`
	ExtraHours     string      `json:"extra_hours"`
	AlcoholService bool        `json:"alcohol_service"`
	Pricing        pricingPart `json:"pricing"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func bookingToResp(b *model.Booking) bookingResp {
	return bookingResp{
		ID:             b.ID,
		Reference:      b.Reference,
		EventID:        b.EventID,
		ServiceID:      b.ServiceID,
		ProviderID:     b.ProviderID,
		ClientID:       b.ClientID,
		Status:         string(b.Status),
		Date:           b.Details.Date.Format("2006-01-02"),
		StartTime:      b.Details.StartTime.Format("15:04"),
		EndTime:        b.Details.EndTime.Format("15:04"),
		GuestCount:     b.Details.GuestCount,
		ChildCount:     b.Details.ChildCount,
		DistanceKm:     b.Details.DistanceKm,
		ExtraHours:     b.Details.ExtraHours.String(),
		AlcoholService: b.Details.AlcoholService,
		Pricing: pricingPart{
			BasePrice:             b.Pricing.BasePrice.StringFixed(2),
			DistanceFee:           b.Pricing.DistanceFee.StringFixed(2),
			ExtraHoursFee:         b.Pricing.ExtraHoursFee.StringFixed(2),
			ChildSurcharge:        b.Pricing.ChildSurcharge.StringFixed(2),
			SeasonalMultiplier:    b.Pricing.SeasonalMultiplier.String(),
			SpecialDateMultiplier: b.Pricing.SpecialDateMultiplier.String(),
			AlcoholFee:            b.Pricing.AlcoholFee.StringFixed(2),
			Subtotal:              b.Pricing.Subtotal.StringFixed(2),
			PlatformFee:           b.Pricing.PlatformFee.StringFixed(2),
			Total:                 b.Pricing.Total.StringFixed(2),
		},
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// ----- endpoints -----

// Create quotes and books a service for one of the caller's events.
func (h *BookingHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.EventID == 0 || req.ServiceID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id and service_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	b, err := h.Bookings.Create(ctx, uid, req.EventID, req.ServiceID,
		pricing.Options{AlcoholService: req.AlcoholService})
	if err != nil {
		return writeError(c, err, true)
	}
	return c.JSON(http.StatusCreated, bookingToResp(b))
}

// Confirm moves a pending booking to confirmed; provider only.
func (h *BookingHandler) Confirm(c echo.Context) error {
	return h.transition(c, h.Bookings.Confirm)
}

// Cancel moves a pending or confirmed booking to cancelled; either
// party of the booking.
func (h *BookingHandler) Cancel(c echo.Context) error {
	return h.transition(c, h.Bookings.Cancel)
}

func (h *BookingHandler) transition(c echo.Context, fn func(context.Context, uint64, uint64) (*model.Booking, error)) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	b, err := fn(ctx, uid, id)
	if err != nil {
		return writeError(c, err, false)
	}
	return c.JSON(http.StatusOK, bookingToResp(b))
}

// ListMy returns the calling client's bookings.
func (h *BookingHandler) ListMy(c echo.Context) error {
	return h.list(c, access.RoleClient)
}

// ListForProvider returns the bookings naming the caller as provider.
func (h *BookingHandler) ListForProvider(c echo.Context) error {
	return h.list(c, access.RoleProvider)
}

// ListAll returns every booking; the route is admin-guarded.
func (h *BookingHandler) ListAll(c echo.Context) error {
	return h.list(c, access.RoleAdmin)
}

func (h *BookingHandler) list(c echo.Context, scope access.Role) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	bookings, err := h.Bookings.List(ctx, uid, scope)
	if err != nil {
		return writeError(c, err, true)
	}
	out := make([]bookingResp, 0, len(bookings))
	for i := range bookings {
		out = append(out, bookingToResp(&bookings[i]))
	}
	return c.JSON(http.StatusOK, out)
}
