package handler

import (
    "bytes"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/summit-hub/booking-api/internal/service"
)

// AdminHandler serves the administrator endpoints.  Routes are guarded by
// the ADMIN role.
type AdminHandler struct {
    Admin *service.AdminService
}

func NewAdminHandler(a *service.AdminService) *AdminHandler {
    return &AdminHandler{Admin: a}
}

type reasonReq struct {
    Reason string `json:"reason"`
}

type statusReq struct {
    Status string `json:"status"`
    Reason string `json:"reason"`
}

// CancelBooking: DELETE /api/admin/bookings/:id with optional {reason}.
func (h *AdminHandler) CancelBooking(c echo.Context) error {
    u, err := currentUser(c)
    if err != nil {
        return err
    }
    var req reasonReq
    if c.Request().ContentLength != 0 {
        if err := bind(c, &req); err != nil {
            return err
        }
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    b, err := h.Admin.CancelBooking(ctx, u.ID, c.Param("id"), req.Reason)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "booking cancelled", "booking": b})
}

// SetStationStatus: PATCH /api/admin/stations/:id/status
func (h *AdminHandler) SetStationStatus(c echo.Context) error {
    u, err := currentUser(c)
    if err != nil {
        return err
    }
    var req statusReq
    if err := bind(c, &req); err != nil {
        return err
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    st, err := h.Admin.SetStationStatus(ctx, u.ID, c.Param("id"), req.Status, req.Reason)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"station": st})
}

// Actions: GET /api/admin/actions?page=&limit=
func (h *AdminHandler) Actions(c echo.Context) error {
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

    rows, p, err := h.Admin.ListActions(ctx, page, limit)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"actions": rows, "pagination": p})
}

// Export: GET /api/admin/reports/export downloads every booking as CSV.
func (h *AdminHandler) Export(c echo.Context) error {
    ctx, cancel := requestContext(c)
    defer cancel()

    // buffered so a failure can still be reported as JSON
    var buf bytes.Buffer
    if err := h.Admin.ExportCSV(ctx, &buf); err != nil {
        return err
    }
    c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="bookings.csv"`)
    return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// StationOccupancy: GET /api/admin/analytics/station-occupancy?days=
func (h *AdminHandler) StationOccupancy(c echo.Context) error {
    days, err := queryInt(c, "days", 0)
    if err != nil {
        return err
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    out, err := h.Admin.StationOccupancy(ctx, days)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"stations": out})
}

// BookingsByPeriod: GET /api/admin/analytics/bookings-by-period?period=&days=
func (h *AdminHandler) BookingsByPeriod(c echo.Context) error {
    days, err := queryInt(c, "days", 7)
    if err != nil {
        return err
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    out, err := h.Admin.BookingsByPeriod(ctx, c.QueryParam("period"), days)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"periods": out})
}

// RealTimeOccupancy: GET /api/admin/analytics/real-time-occupancy
func (h *AdminHandler) RealTimeOccupancy(c echo.Context) error {
    ctx, cancel := requestContext(c)
    defer cancel()

    out, err := h.Admin.RealTimeOccupancy(ctx)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"stations": out})
}

// PeakHours: GET /api/admin/analytics/peak-hours?days=
func (h *AdminHandler) PeakHours(c echo.Context) error {
    days, err := queryInt(c, "days", 0)
    if err != nil {
        return err
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    out, err := h.Admin.PeakHours(ctx, days)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"hours": out})
}
