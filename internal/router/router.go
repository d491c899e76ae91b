package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/event-service-booking/internal/access"
	"github.com/iliyamo/event-service-booking/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/event-service-booking/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// Handlers bundles every handler the route table wires up.
type Handlers struct {
	Auth     *handler.AuthHandler
	Events   *handler.EventHandler
	Services *handler.ServiceHandler
	Bookings *handler.BookingHandler
	Chat     *handler.ChatHandler
}

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAPI registers the full authenticated API surface. Routes are
// split into three groups: /v1/auth for credential exchange, /v1 for
// any authenticated role, and role-specific subgroups guarded by
// RequireRole. Ownership of individual rows is enforced inside the
// handlers and services, never by the router.
func RegisterAPI(e *echo.Echo, h Handlers, jwtSecret string) {
	// Credential exchange does not require an existing session.
	auth := e.Group("/v1/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)

	// Every other route requires a valid access token with a known role.
	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(jwtSecret))
	v1.Use(middleware.RequireRole(
		string(access.RoleClient), string(access.RoleProvider), string(access.RoleAdmin)))

	v1.GET("/me", h.Auth.Me)

	// Events: owned by clients; admins may read through the same routes.
	client := v1.Group("", middleware.RequireRole(string(access.RoleClient), string(access.RoleAdmin)))
	client.POST("/events", h.Events.Create)
	client.GET("/events", h.Events.ListMy)
	client.GET("/events/:id", h.Events.Get)
	client.PATCH("/events/:id", h.Events.Update)
	client.DELETE("/events/:id", h.Events.Delete)

	// Bookings: creation is a client action, confirm/cancel are checked
	// against the booking's parties inside the lifecycle.
	client.POST("/bookings", h.Bookings.Create)
	client.GET("/bookings/my", h.Bookings.ListMy)
	v1.PATCH("/bookings/:id/confirm", h.Bookings.Confirm)
	v1.PATCH("/bookings/:id/cancel", h.Bookings.Cancel)

	// Provider catalog and provider-scoped listings.
	provider := v1.Group("/provider", middleware.RequireRole(string(access.RoleProvider)))
	provider.GET("/events", h.Events.ListForProvider)
	provider.GET("/bookings", h.Bookings.ListForProvider)
	v1.POST("/services", h.Services.Create, middleware.RequireRole(string(access.RoleProvider)))
	v1.GET("/services/my", h.Services.ListMy, middleware.RequireRole(string(access.RoleProvider)))

	// Admin oversight listings.
	admin := v1.Group("/admin", middleware.RequireRole(string(access.RoleAdmin)))
	admin.GET("/events", h.Events.ListAll)
	admin.GET("/bookings", h.Bookings.ListAll)

	// Chat: participants are resolved per booking inside the service.
	v1.GET("/chat/:bookingId", h.Chat.History)
	v1.POST("/chat/:bookingId/send", h.Chat.Send)
	v1.PATCH("/chat/messages/:id/read", h.Chat.MarkRead)
}
