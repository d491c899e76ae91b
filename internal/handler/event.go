package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-service-booking/internal/access"
	"github.com/iliyamo/event-service-booking/internal/model"
	"github.com/iliyamo/event-service-booking/internal/repository"
)

// EventHandler bundles the event repository for client event CRUD.
type EventHandler struct {
	Events *repository.EventRepo
}

func NewEventHandler(events *repository.EventRepo) *EventHandler {
	if events == nil {
		panic("nil repository passed to NewEventHandler")
	}
	return &EventHandler{Events: events}
}

// ----- DTOs -----

type guestReq struct {
	Name          string `json:"name"`
	Age           int    `json:"age"`
	DrinksAlcohol bool   `json:"drinks_alcohol"`
}

type locationReq struct {
	Address   string   `json:"address"`
	City      string   `json:"city"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type eventReq struct {
	Theme     string      `json:"theme"`
	Occasion  string      `json:"occasion"`
	Date      string      `json:"date"`       // 2006-01-02
	StartTime string      `json:"start_time"` // 15:04
	EndTime   string      `json:"end_time"`   // 15:04
	Location  locationReq `json:"location"`
	Guests    []guestReq  `json:"guests"`
}

type lineItemPart struct {
	ProviderID  uint64 `json:"provider_id"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	BasePrice   string `json:"base_price"`
	DistanceFee string `json:"distance_fee"`
	ExtraHours  string `json:"extra_hours"`
	TotalPrice  string `json:"total_price"`
	Status      string `json:"status"`
}

type eventResp struct {
	ID        uint64         `json:"id"`
	ClientID  uint64         `json:"client_id"`
	Theme     string         `json:"theme"`
	Occasion  string         `json:"occasion"`
	Date      string         `json:"date"`
	StartTime string         `json:"start_time"`
	EndTime   string         `json:"end_time"`
	Location  locationReq    `json:"location"`
	Guests    []guestReq     `json:"guests"`
	Services  []lineItemPart `json:"services"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// eventFromReq validates the request body and builds the model row.
// The aggregate guest counts are derived from the roster; guests
// younger than 18 count as children in the summary, the per-service
// child band is applied later at quote time.
func eventFromReq(clientID uint64, req *eventReq) (*model.Event, string) {
	req.Theme = strings.TrimSpace(req.Theme)
	if req.Theme == "" {
		return nil, "theme required"
	}
	if !model.ValidOccasion(strings.ToLower(strings.TrimSpace(req.Occasion))) {
		return nil, "occasion must be one of birthday, wedding, corporate, other"
	}
	date, err := time.ParseInLocation("2006-01-02", req.Date, time.UTC)
	if err != nil {
		return nil, "date must be formatted 2006-01-02"
	}
	start, err := parseClock(date, req.StartTime)
	if err != nil {
		return nil, "start_time must be formatted 15:04"
	}
	end, err := parseClock(date, req.EndTime)
	if err != nil {
		return nil, "end_time must be formatted 15:04"
	}
	if !end.After(start) {
		return nil, "end_time must be after start_time"
	}

	guests := make([]model.Guest, 0, len(req.Guests))
	children := 0
	for _, g := range req.Guests {
		name := strings.TrimSpace(g.Name)
		if name == "" || g.Age < 0 {
			return nil, "each guest needs a name and a non-negative age"
		}
		if g.Age < 18 {
			children++
		}
		guests = append(guests, model.Guest{Name: name, Age: g.Age, DrinksAlcohol: g.DrinksAlcohol})
	}

	return &model.Event{
		ClientID:  clientID,
		Theme:     req.Theme,
		Occasion:  model.Occasion(strings.ToLower(strings.TrimSpace(req.Occasion))),
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Location: model.Location{
			Address:   strings.TrimSpace(req.Location.Address),
			City:      strings.TrimSpace(req.Location.City),
			Latitude:  req.Location.Latitude,
			Longitude: req.Location.Longitude,
		},
		Guests: model.GuestSummary{
			Total:    len(guests),
			Adults:   len(guests) - children,
			Children: children,
		},
		GuestList: guests,
	}, ""
}

func parseClock(date time.Time, s string) (time.Time, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}

func eventToResp(e *model.Event) eventResp {
	guests := make([]guestReq, 0, len(e.GuestList))
	for _, g := range e.GuestList {
		guests = append(guests, guestReq{Name: g.Name, Age: g.Age, DrinksAlcohol: g.DrinksAlcohol})
	}
	items := make([]lineItemPart, 0, len(e.Services))
	for _, li := range e.Services {
		items = append(items, lineItemPart{
			ProviderID:  li.ProviderID,
			Category:    li.Category,
			Subcategory: li.Subcategory,
			BasePrice:   li.BasePrice.StringFixed(2),
			DistanceFee: li.DistanceFee.StringFixed(2),
			ExtraHours:  li.ExtraHours.String(),
			TotalPrice:  li.TotalPrice.StringFixed(2),
			Status:      string(li.Status),
		})
	}
	return eventResp{
		ID:        e.ID,
		ClientID:  e.ClientID,
		Theme:     e.Theme,
		Occasion:  string(e.Occasion),
		Date:      e.Date.Format("2006-01-02"),
		StartTime: e.StartTime.Format("15:04"),
		EndTime:   e.EndTime.Format("15:04"),
		Location: locationReq{
			Address:   e.Location.Address,
			City:      e.Location.City,
			Latitude:  e.Location.Latitude,
			Longitude: e.Location.Longitude,
		},
		Guests:    guests,
		Services:  items,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// ----- endpoints -----

// Create registers a new event owned by the authenticated client.
func (h *EventHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	e, msg := eventFromReq(uid, &req)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Events.Create(ctx, e); err != nil {
		return writeError(c, err, false)
	}
	return c.JSON(http.StatusCreated, eventToResp(e))
}

// Get returns one event. Other clients' events answer 404, never 403:
// reads do not reveal existence.
func (h *EventHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	e, err := h.Events.GetByID(ctx, id)
	if err != nil {
		return writeError(c, err, true)
	}
	if !access.CanViewEvent(uid, getRole(c), e) {
		return writeError(c, repository.ErrForbidden, true)
	}
	return c.JSON(http.StatusOK, eventToResp(e))
}

// Update replaces the mutable fields and the guest roster of an event
// owned by the caller.
func (h *EventHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	existing, err := h.Events.GetByID(ctx, id)
	if err != nil {
		return writeError(c, err, true)
	}
	if !access.CanModifyEvent(uid, getRole(c), existing) {
		return writeError(c, repository.ErrForbidden, false)
	}

	e, msg := eventFromReq(existing.ClientID, &req)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	e.ID = existing.ID
	if err := h.Events.Update(ctx, e); err != nil {
		return writeError(c, err, false)
	}
	updated, err := h.Events.GetByID(ctx, e.ID)
	if err != nil {
		return writeError(c, err, true)
	}
	return c.JSON(http.StatusOK, eventToResp(updated))
}

// Delete removes an event owned by the caller together with its guest
// roster and service ledger.
func (h *EventHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	existing, err := h.Events.GetByID(ctx, id)
	if err != nil {
		return writeError(c, err, true)
	}
	if !access.CanModifyEvent(uid, getRole(c), existing) {
		return writeError(c, repository.ErrForbidden, false)
	}
	if err := h.Events.Delete(ctx, id); err != nil {
		return writeError(c, err, false)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListMy returns the caller's own events.
func (h *EventHandler) ListMy(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	events, err := h.Events.ListByClient(ctx, uid)
	if err != nil {
		return writeError(c, err, true)
	}
	return c.JSON(http.StatusOK, eventsToResp(events))
}

// ListForProvider returns the events carrying an active line item of
// the calling provider.
func (h *EventHandler) ListForProvider(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	events, err := h.Events.ListByProvider(ctx, uid)
	if err != nil {
		return writeError(c, err, true)
	}
	return c.JSON(http.StatusOK, eventsToResp(events))
}

// ListAll returns every event; the route is admin-guarded.
func (h *EventHandler) ListAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	events, err := h.Events.ListAll(ctx)
	if err != nil {
		return writeError(c, err, true)
	}
	return c.JSON(http.StatusOK, eventsToResp(events))
}

func eventsToResp(events []model.Event) []eventResp {
	out := make([]eventResp, 0, len(events))
	for i := range events {
		out = append(out, eventToResp(&events[i]))
	}
	return out
}
