package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/event-service-booking/internal/model"
	"github.com/iliyamo/event-service-booking/internal/repository"
)

// ServiceHandler manages the provider's service catalog.
type ServiceHandler struct {
	Services *repository.ServiceRepo
}

func NewServiceHandler(services *repository.ServiceRepo) *ServiceHandler {
	if services == nil {
		panic("nil repository passed to NewServiceHandler")
	}
	return &ServiceHandler{Services: services}
}

// serviceCategories is the closed category set offered on the platform.
var serviceCategories = map[string]bool{
	"food-drink":    true,
	"entertainment": true,
	"venue":         true,
	"organization":  true,
}

type serviceReq struct {
	Category         string                  `json:"category"`
	Subcategory      string                  `json:"subcategory"`
	Name             string                  `json:"name"`
	Description      string                  `json:"description"`
	BasePrice        decimal.Decimal         `json:"base_price"`
	DurationHours    float64                 `json:"duration_hours"`
	ExtraHourPrice   decimal.Decimal         `json:"extra_hour_price"`
	ServiceAreaKm    float64                 `json:"service_area_km"`
	DistanceFeePerKm decimal.Decimal         `json:"distance_fee_per_km"`
	AgeGroups        model.AgeGroups         `json:"age_groups"`
	Alcohol          model.AlcoholOptions    `json:"alcohol"`
	SeasonalPricing  []model.SeasonalRate    `json:"seasonal_pricing"`
	SpecialDates     []model.SpecialDateRate `json:"special_dates"`
	Latitude         *float64                `json:"latitude"`
	Longitude        *float64                `json:"longitude"`
}

type serviceResp struct {
	ID               uint64                  `json:"id"`
	ProviderID       uint64                  `json:"provider_id"`
	Category         string                  `json:"category"`
	Subcategory      string                  `json:"subcategory"`
	Name             string                  `json:"name"`
	Description      string                  `json:"description"`
	BasePrice        string                  `json:"base_price"`
	DurationHours    float64                 `json:"duration_hours"`
	ExtraHourPrice   string                  `json:"extra_hour_price"`
	ServiceAreaKm    float64                 `json:"service_area_km"`
	DistanceFeePerKm string                  `json:"distance_fee_per_km"`
	AgeGroups        model.AgeGroups         `json:"age_groups"`
	Alcohol          model.AlcoholOptions    `json:"alcohol"`
	SeasonalPricing  []model.SeasonalRate    `json:"seasonal_pricing"`
	SpecialDates     []model.SpecialDateRate `json:"special_dates"`
	Latitude         *float64                `json:"latitude"`
	Longitude        *float64                `json:"longitude"`
	Active           bool                    `json:"active"`
	CreatedAt        time.Time               `json:"created_at"`
}

func serviceToResp(s *model.Service) serviceResp {
	return serviceResp{
		ID:               s.ID,
		ProviderID:       s.ProviderID,
		Category:         s.Category,
		Subcategory:      s.Subcategory,
		Name:             s.Name,
		Description:      s.Description,
		BasePrice:        s.BasePrice.StringFixed(2),
		DurationHours:    s.DurationHours,
		ExtraHourPrice:   s.ExtraHourPrice.StringFixed(2),
		ServiceAreaKm:    s.ServiceAreaKm,
		DistanceFeePerKm: s.DistanceFeePerKm.StringFixed(2),
		AgeGroups:        s.AgeGroups,
		Alcohol:          s.Alcohol,
		SeasonalPricing:  s.SeasonalPricing,
		SpecialDates:     s.SpecialDates,
		Latitude:         s.Location.Latitude,
		Longitude:        s.Location.Longitude,
		Active:           s.Active,
		CreatedAt:        s.CreatedAt,
	}
}

// Create registers a new bookable service owned by the calling
// provider. Every month entry of the seasonal table must be valid and
// multipliers must be positive, otherwise quotes computed later would
// silently corrupt prices.
func (h *ServiceHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	var req serviceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	req.Category = strings.ToLower(strings.TrimSpace(req.Category))
	req.Subcategory = strings.ToLower(strings.TrimSpace(req.Subcategory))
	req.Name = strings.TrimSpace(req.Name)
	if !serviceCategories[req.Category] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "category must be one of food-drink, entertainment, venue, organization"})
	}
	if req.Subcategory == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "subcategory and name required"})
	}
	if !req.BasePrice.IsPositive() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "base_price must be positive"})
	}
	if req.DurationHours <= 0 || req.ServiceAreaKm < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "duration_hours must be positive and service_area_km non-negative"})
	}
	for _, r := range req.SeasonalPricing {
		if r.Month < 1 || r.Month > 12 || !r.Multiplier.IsPositive() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "seasonal_pricing entries need month 1..12 and a positive multiplier"})
		}
	}
	for _, r := range req.SpecialDates {
		if r.Date.IsZero() || !r.Multiplier.IsPositive() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "special_dates entries need a date and a positive multiplier"})
		}
	}

	svc := &model.Service{
		ProviderID:       uid,
		Category:         req.Category,
		Subcategory:      req.Subcategory,
		Name:             req.Name,
		Description:      strings.TrimSpace(req.Description),
		BasePrice:        req.BasePrice,
		DurationHours:    req.DurationHours,
		ExtraHourPrice:   req.ExtraHourPrice,
		ServiceAreaKm:    req.ServiceAreaKm,
		DistanceFeePerKm: req.DistanceFeePerKm,
		AgeGroups:        req.AgeGroups,
		Alcohol:          req.Alcohol,
		SeasonalPricing:  req.SeasonalPricing,
		SpecialDates:     req.SpecialDates,
		Location:         model.Location{Latitude: req.Latitude, Longitude: req.Longitude},
		Active:           true,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Services.Create(ctx, svc); err != nil {
		return writeError(c, err, false)
	}
	return c.JSON(http.StatusCreated, serviceToResp(svc))
}

// ListMy returns the calling provider's catalog.
func (h *ServiceHandler) ListMy(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	services, err := h.Services.ListByProvider(ctx, uid)
	if err != nil {
		return writeError(c, err, true)
	}
	out := make([]serviceResp, 0, len(services))
	for i := range services {
		out = append(out, serviceToResp(&services[i]))
	}
	return c.JSON(http.StatusOK, out)
}
