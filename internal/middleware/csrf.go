package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/summit-hub/booking-api/internal/apperr"
    "github.com/summit-hub/booking-api/internal/cache"
)

// HeaderCSRFToken carries the token issued by GET /api/auth/csrf-token.
const HeaderCSRFToken = "X-CSRF-Token"

// CSRF requires a live, unused token on every state-changing request and
// consumes it.  Safe methods pass through.
func CSRF(store cache.TokenStore) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            switch c.Request().Method {
            case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
            default:
                return next(c)
            }
            tok := c.Request().Header.Get(HeaderCSRFToken)
            ok, err := store.Consume(c.Request().Context(), tok)
            if err != nil {
                return apperr.Internal(err)
            }
            if !ok {
                return apperr.Forbidden("invalid or missing CSRF token")
            }
            return next(c)
        }
    }
}
