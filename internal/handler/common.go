package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-service-booking/internal/access"
	"github.com/iliyamo/event-service-booking/internal/pricing"
	"github.com/iliyamo/event-service-booking/internal/repository"
)

// getUserID extracts the user_id from echo.Context and converts it to
// uint64. JWT claims arrive as float64 after parsing, so every numeric
// shape is accepted.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// getRole reads the role claim placed in context by the JWT middleware.
func getRole(c echo.Context) access.Role {
	if s, ok := c.Get("role").(string); ok {
		return access.Role(s)
	}
	return ""
}

// parseIDParam converts a numeric path parameter into uint64.
func parseIDParam(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// writeError maps domain errors onto the HTTP surface. Forbidden on a
// read collapses to the same 404 body as a missing row so one tenant
// cannot probe another's resources; mutations keep the honest 403.
func writeError(c echo.Context, err error, read bool) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrForbidden):
		if read {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrStaleState):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflicting booking state"})
	case errors.Is(err, repository.ErrDuplicateBooking):
		return c.JSON(http.StatusConflict, echo.Map{"error": "service already booked for this event"})
	case errors.Is(err, pricing.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
