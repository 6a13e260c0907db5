package handler

import (
    "context"
    "database/sql"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

// Welcome answers the root path.
func Welcome(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"message": "Welcome to Happy Coon Coffee tables reservation service!"})
}

// Health reports "ok" while the database answers a ping, 503 otherwise.
// A nil db only checks that the process is up.
func Health(db *sql.DB) echo.HandlerFunc {
    return func(c echo.Context) error {
        if db != nil {
            ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
            defer cancel()
            if err := db.PingContext(ctx); err != nil {
                return c.String(http.StatusServiceUnavailable, "database unavailable")
            }
        }
        return c.String(http.StatusOK, "ok")
    }
}
