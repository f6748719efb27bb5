package middleware

// identity.go holds the context keys set by Authenticate and helpers to
// read them back.

import (
    "github.com/labstack/echo/v4"

    "github.com/summit-hub/booking-api/internal/model"
)

const (
    ctxUser   = "user"
    ctxUserID = "user_id"
    ctxRole   = "role"
)

// CurrentUser returns the authenticated user, if any.
func CurrentUser(c echo.Context) (*model.User, bool) {
    u, ok := c.Get(ctxUser).(*model.User)
    return u, ok && u != nil
}

// userID returns the authenticated user's id, or "anon" for anonymous
// requests.  It feeds rate limit keys.
func userID(c echo.Context) string {
    if s, ok := c.Get(ctxUserID).(string); ok && s != "" {
        return s
    }
    return "anon"
}
