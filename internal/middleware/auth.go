package middleware // middleware provides shared request processing for handlers

import (
    "context"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/summit-hub/booking-api/internal/apperr"
    "github.com/summit-hub/booking-api/internal/model"
    "github.com/summit-hub/booking-api/internal/utils"
)

// UserLoader resolves the subject of a verified token.  It is normally the
// cached loader from the cache package.
type UserLoader interface {
    GetByID(ctx context.Context, id string) (*model.User, error)
}

// Authenticate validates the Bearer token, loads its user and stores the
// user, its id and its role in the context under "user", "user_id" and
// "role".  Missing or invalid tokens and deleted users get 401.
func Authenticate(secret string, users UserLoader) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get(echo.HeaderAuthorization)
            if !strings.HasPrefix(auth, "Bearer ") {
                return apperr.Unauthorized("missing bearer token")
            }
            raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return apperr.Unauthorized("invalid token")
            }
            u, err := users.GetByID(c.Request().Context(), claims.UserID)
            if err != nil || u == nil {
                return apperr.Unauthorized("user not found")
            }

            // role comes from the stored user so demotions apply without
            // waiting for the token to expire
            c.Set(ctxUser, u)
            c.Set(ctxUserID, u.ID)
            c.Set(ctxRole, string(u.Role))
            return next(c)
        }
    }
}
