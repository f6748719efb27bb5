// Package router registers the HTTP routes of the booking API on an Echo
// instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/summit-hub/booking-api/internal/cache"
	"github.com/summit-hub/booking-api/internal/handler"
	"github.com/summit-hub/booking-api/internal/middleware"
	"github.com/summit-hub/booking-api/internal/model"
)

// Guards builds the middleware chains shared by the protected groups.
type Guards struct {
	JWTSecret string
	Users     middleware.UserLoader
	CSRF      cache.TokenStore
}

// Authenticated requires a bearer token and, for state-changing methods, a
// CSRF token.
func (g Guards) Authenticated() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.Authenticate(g.JWTSecret, g.Users),
		middleware.CSRF(g.CSRF),
	}
}

// Admin is Authenticated plus the ADMIN role.
func (g Guards) Admin() []echo.MiddlewareFunc {
	return append(g.Authenticated(), middleware.RequireRole(model.RoleAdmin))
}

// RegisterRoutes registers routes that sit outside /api.  The health check
// is used by load balancers.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/health", h.Health)
}

// RegisterAuth registers /api/auth.  Registration, login and the CSRF
// token endpoint are public; /me requires a session.
func RegisterAuth(api *echo.Group, a *handler.AuthHandler, guards Guards) {
	g := api.Group("/auth")
	g.GET("/csrf-token", a.CSRFToken)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.GET("/me", a.Me, guards.Authenticated()...)
}
