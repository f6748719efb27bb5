package router

import (
	"github.com/labstack/echo/v4"

	"github.com/summit-hub/booking-api/internal/handler"
	"github.com/summit-hub/booking-api/internal/middleware"
	"github.com/summit-hub/booking-api/internal/model"
)

// StationListPath is the cached station list route.  Station status changes
// purge it.
const StationListPath = "/api/bookings/stations"

// RegisterBookings registers /api/bookings and /api/stations.  Every route
// requires a session; stationCache wraps the station list used by the
// booking form.
func RegisterBookings(api *echo.Group, b *handler.BookingHandler, s *handler.StationHandler,
	guards Guards, stationCache echo.MiddlewareFunc) {
	g := api.Group("/bookings", guards.Authenticated()...)
	g.GET("", b.List)
	g.POST("", b.Create)
	g.GET("/stations", b.StationList, stationCache)
	g.GET("/all", b.ListAll, middleware.RequireRole(model.RoleAdmin))
	g.DELETE("/:id", b.Cancel)

	st := api.Group("/stations", guards.Authenticated()...)
	st.GET("", s.List)
	st.GET("/:id/seats", s.Seats)
	st.POST("/:id/seats/check", s.CheckSeat)
}
