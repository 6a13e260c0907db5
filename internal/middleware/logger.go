package middleware

import (
    "errors"
    "net/http"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/happycoon/coffee-table-reservation/internal/metrics"
)

const headerRequestID = "X-Request-ID"

// RequestLogger assigns every request an id (kept from X-Request-ID when
// the client sent one), echoes it back and logs one line per request.
// The request context carries a logger with the id attached.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            started := time.Now()
            req := c.Request()

            rid := req.Header.Get(headerRequestID)
            if rid == "" {
                rid = uuid.NewString()
            }
            c.Response().Header().Set(headerRequestID, rid)

            reqLog := log.With().Str("request_id", rid).Logger()
            c.SetRequest(req.WithContext(reqLog.WithContext(req.Context())))

            err := next(c)
            status := statusOf(c, err)

            ev := reqLog.Info()
            switch {
            case status >= 500:
                ev = reqLog.Error().Err(err)
            case status >= 400:
                ev = reqLog.Warn()
            }
            ev.Str("method", req.Method).
                Str("path", req.URL.Path).
                Str("route", c.Path()).
                Int("status", status).
                Dur("latency", time.Since(started)).
                Str("user", currentUserID(c)).
                Msg("request")
            return err
        }
    }
}

// Metrics counts requests by method, route template and status.
func Metrics() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            err := next(c)
            route := c.Path()
            if route == "" {
                route = "unmatched"
            }
            metrics.ObserveHTTP(c.Request().Method, route, statusOf(c, err))
            return err
        }
    }
}

// statusOf is the status the client will see: the written one, or the one
// echo's error handler will derive from err.
func statusOf(c echo.Context, err error) int {
    if err == nil {
        return c.Response().Status
    }
    var he *echo.HTTPError
    if errors.As(err, &he) {
        return he.Code
    }
    if c.Response().Committed {
        return c.Response().Status
    }
    return http.StatusInternalServerError
}
