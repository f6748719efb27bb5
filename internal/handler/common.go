package handler

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/labstack/gommon/log"

    "github.com/summit-hub/booking-api/internal/apperr"
    "github.com/summit-hub/booking-api/internal/middleware"
    "github.com/summit-hub/booking-api/internal/model"
)

// dbTimeout bounds the database work of a single request.
const dbTimeout = 5 * time.Second

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// currentUser returns the user set by the auth middleware.
func currentUser(c echo.Context) (*model.User, error) {
    u, ok := middleware.CurrentUser(c)
    if !ok {
        return nil, apperr.Unauthorized("authentication required")
    }
    return u, nil
}

// queryInt reads an integer query parameter, returning def when absent.
func queryInt(c echo.Context, name string, def int) (int, error) {
    raw := c.QueryParam(name)
    if raw == "" {
        return def, nil
    }
    n, err := strconv.Atoi(raw)
    if err != nil {
        return 0, apperr.Validation(name + " must be an integer")
    }
    return n, nil
}

// bind decodes the JSON body into v.
func bind(c echo.Context, v interface{}) error {
    if err := c.Bind(v); err != nil {
        return apperr.Validation("invalid request body")
    }
    return nil
}

// ErrorHandler renders every error as {"message": ...}.  Domain errors map
// through apperr, framework errors keep their status, and anything else
// is logged and reported as 500 without detail.
func ErrorHandler(logger *log.Logger) echo.HTTPErrorHandler {
    return func(err error, c echo.Context) {
        if c.Response().Committed {
            return
        }
        status, msg := http.StatusInternalServerError, apperr.InternalMessage

        var he *echo.HTTPError
        var ae *apperr.Error
        switch {
        case errors.As(err, &ae):
            status, msg = apperr.Status(ae), apperr.Message(ae)
            if ae.Kind == apperr.KindInternal {
                logger.Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
            }
        case errors.As(err, &he):
            status = he.Code
            if status >= http.StatusInternalServerError {
                logger.Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
                break
            }
            if m, ok := he.Message.(string); ok {
                msg = m
            } else {
                msg = http.StatusText(status)
            }
        default:
            logger.Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
        }

        if c.Request().Method == http.MethodHead {
            err = c.NoContent(status)
        } else {
            err = c.JSON(status, echo.Map{"message": msg})
        }
        if err != nil {
            logger.Errorf("write error response: %v", err)
        }
    }
}
