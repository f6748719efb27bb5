package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/summit-hub/booking-api/internal/service"
)

// StationHandler serves availability.
type StationHandler struct {
    Stations *service.StationService
}

func NewStationHandler(s *service.StationService) *StationHandler {
    return &StationHandler{Stations: s}
}

// List: GET /api/stations
func (h *StationHandler) List(c echo.Context) error {
    ctx, cancel := requestContext(c)
    defer cancel()

    out, err := h.Stations.List(ctx)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"stations": out})
}

// Seats: GET /api/stations/:id/seats?date=&startTime=&endTime=
func (h *StationHandler) Seats(c echo.Context) error {
    ctx, cancel := requestContext(c)
    defer cancel()

    out, err := h.Stations.Seats(ctx, c.Param("id"), service.SeatQuery{
        Date:      c.QueryParam("date"),
        StartTime: c.QueryParam("startTime"),
        EndTime:   c.QueryParam("endTime"),
    })
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, out)
}

// CheckSeat: POST /api/stations/:id/seats/check
func (h *StationHandler) CheckSeat(c echo.Context) error {
    var req service.SeatCheckRequest
    if err := bind(c, &req); err != nil {
        return err
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    out, err := h.Stations.CheckSeat(ctx, c.Param("id"), req)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, out)
}
