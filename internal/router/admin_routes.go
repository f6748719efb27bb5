package router

import (
	"github.com/labstack/echo/v4"

	"github.com/summit-hub/booking-api/internal/handler"
)

// RegisterAdmin registers /api/admin.  All routes require the ADMIN role.
func RegisterAdmin(api *echo.Group, h *handler.AdminHandler, guards Guards) {
	g := api.Group("/admin", guards.Admin()...)

	g.DELETE("/bookings/:id", h.CancelBooking)
	g.PATCH("/stations/:id/status", h.SetStationStatus)
	g.GET("/actions", h.Actions)
	g.GET("/reports/export", h.Export)

	an := g.Group("/analytics")
	an.GET("/station-occupancy", h.StationOccupancy)
	an.GET("/bookings-by-period", h.BookingsByPeriod)
	an.GET("/real-time-occupancy", h.RealTimeOccupancy)
	an.GET("/peak-hours", h.PeakHours)
}
