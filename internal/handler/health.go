package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
)

// Pinger is satisfied by *sqlx.DB.
type Pinger interface {
    PingContext(ctx context.Context) error
}

// HealthHandler reports the state of the database and Redis.
type HealthHandler struct {
    DB    Pinger
    Redis *redis.Client
}

// Health is used by load balancers.  It answers 200 while the database is
// reachable and 503 otherwise; Redis is informational since every Redis
// feature degrades to process memory.
func (h *HealthHandler) Health(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
    defer cancel()

    status := http.StatusOK
    body := echo.Map{"status": "ok", "database": "ok", "redis": "disabled"}
    if h.DB != nil {
        if err := h.DB.PingContext(ctx); err != nil {
            status = http.StatusServiceUnavailable
            body["status"], body["database"] = "degraded", "unreachable"
        }
    }
    if h.Redis != nil {
        body["redis"] = "ok"
        if err := h.Redis.Ping(ctx).Err(); err != nil {
            body["redis"] = "unreachable"
        }
    }
    return c.JSON(status, body)
}
