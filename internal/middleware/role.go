package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// RequireAdmin aborts with 403 unless LoadActor stored an admin actor.
func RequireAdmin() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            a, ok := ActorFrom(c)
            if !ok || !a.IsAdmin {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "admin access required"})
            }
            return next(c)
        }
    }
}
