package middleware

import (
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/labstack/gommon/log"
)

// RequestLogger logs one line per request through logger.
func RequestLogger(logger *log.Logger) echo.MiddlewareFunc {
    return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogMethod:    true,
        LogURI:       true,
        LogStatus:    true,
        LogLatency:   true,
        LogRemoteIP:  true,
        LogRequestID: true,
        LogError:     true,
        HandleError:  true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            j := log.JSON{
                "id":         v.RequestID,
                "method":     v.Method,
                "uri":        v.URI,
                "status":     v.Status,
                "latency_ms": v.Latency.Milliseconds(),
                "remote_ip":  v.RemoteIP,
                "user":       userID(c),
            }
            if v.Error != nil {
                j["error"] = v.Error.Error()
                logger.Warnj(j)
                return nil
            }
            logger.Infoj(j)
            return nil
        },
    })
}
