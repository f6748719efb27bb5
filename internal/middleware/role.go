package middleware

import (
    "github.com/labstack/echo/v4"

    "github.com/summit-hub/booking-api/internal/apperr"
    "github.com/summit-hub/booking-api/internal/model"
)

// RequireRole allows the request only when the authenticated user has one
// of roles.  It must run after Authenticate.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[string(r)] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, _ := c.Get(ctxRole).(string)
            if !allowed[role] {
                return apperr.Forbidden("admin access required")
            }
            return next(c)
        }
    }
}
