package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/summit-hub/booking-api/internal/service"
)

// BookingHandler serves the trader booking endpoints and the admin-wide
// listing.
type BookingHandler struct {
    Bookings *service.BookingService
    Stations *service.StationService
}

func NewBookingHandler(b *service.BookingService, s *service.StationService) *BookingHandler {
    if b == nil || s == nil {
        panic("nil service passed to NewBookingHandler")
    }
    return &BookingHandler{Bookings: b, Stations: s}
}

// List: GET /api/bookings returns the caller's active bookings.
func (h *BookingHandler) List(c echo.Context) error {
    u, err := currentUser(c)
    if err != nil {
        return err
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    out, err := h.Bookings.ListMine(ctx, u.ID)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// Create: POST /api/bookings
func (h *BookingHandler) Create(c echo.Context) error {
    u, err := currentUser(c)
    if err != nil {
        return err
    }
    var req service.BookingRequest
    if err := bind(c, &req); err != nil {
        return err
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    v, err := h.Bookings.Create(ctx, u.ID, req)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusCreated, echo.Map{"booking": v})
}

// Cancel: DELETE /api/bookings/:id cancels one of the caller's bookings.
func (h *BookingHandler) Cancel(c echo.Context) error {
    u, err := currentUser(c)
    if err != nil {
        return err
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    b, err := h.Bookings.Cancel(ctx, u.ID, c.Param("id"))
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "booking cancelled", "booking": b})
}

// ListAll: GET /api/bookings/all?page=&limit= (admin)
func (h *BookingHandler) ListAll(c echo.Context) error {
    page, err := queryInt(c, "page", 1)
    if err != nil {
        return err
    }
    limit, err := queryInt(c, "limit", 50)
    if err != nil {
        return err
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    rows, p, err := h.Bookings.ListAll(ctx, page, limit)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": rows, "pagination": p})
}

// StationList: GET /api/bookings/stations lists stations for the booking form.
func (h *BookingHandler) StationList(c echo.Context) error {
    ctx, cancel := requestContext(c)
    defer cancel()

    out, err := h.Stations.Stations(ctx)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"stations": out})
}
