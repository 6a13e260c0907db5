package handler // handler defines the HTTP handlers of the API

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/happycoon/coffee-table-reservation/internal/booking"
    "github.com/happycoon/coffee-table-reservation/internal/middleware"
)

// requestTimeout bounds every storage call made on behalf of a request.
const requestTimeout = 5 * time.Second

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// actorFrom returns the actor stored by middleware.LoadActor.  Routes that
// call it are always mounted behind that middleware.
func actorFrom(c echo.Context) (booking.Actor, error) {
    a, ok := middleware.ActorFrom(c)
    if !ok || a.UserID == 0 {
        return booking.Actor{}, errors.New("no actor in context")
    }
    return a, nil
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, errors.New("invalid " + name)
    }
    return id, nil
}

// statusFor maps booking errors to HTTP statuses.  A missing free table is
// reported as 404 like any other missing resource.
func statusFor(err error) int {
    switch {
    case errors.Is(err, booking.ErrInvalidTableType),
        errors.Is(err, booking.ErrInvalidInterval),
        errors.Is(err, booking.ErrInvalidDuration),
        errors.Is(err, booking.ErrInvalidAlignment),
        errors.Is(err, booking.ErrPastTime),
        errors.Is(err, booking.ErrOutsideBusinessHours):
        return http.StatusBadRequest
    case errors.Is(err, booking.ErrNoTableAvailable), errors.Is(err, booking.ErrNotFound):
        return http.StatusNotFound
    case errors.Is(err, booking.ErrForbidden):
        return http.StatusForbidden
    case errors.Is(err, booking.ErrStorageUnavailable), errors.Is(err, context.DeadlineExceeded):
        return http.StatusServiceUnavailable
    }
    return http.StatusInternalServerError
}

// writeError renders err as {"error": ...}.  Internal errors are logged
// and hidden from the client.
func writeError(c echo.Context, err error) error {
    status := statusFor(err)
    msg := err.Error()
    switch {
    case status == http.StatusInternalServerError:
        zerolog.Ctx(c.Request().Context()).Error().Err(err).Str("route", c.Path()).Msg("request failed")
        msg = "internal error"
    case status == http.StatusServiceUnavailable:
        msg = booking.ErrStorageUnavailable.Error()
    }
    return c.JSON(status, echo.Map{"error": msg})
}
