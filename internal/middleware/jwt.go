package middleware // middleware holds the reusable echo middleware of the API

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/happycoon/coffee-table-reservation/internal/utils"
)

// Context keys set by JWTAuth and LoadActor.
const (
    ctxUserID  = "user_id"
    ctxIsAdmin = "is_admin"
    ctxActor   = "actor"
    ctxUser    = "user"
)

// JWTAuth validates the Bearer access token and stores its subject under
// "user_id" (uint64) and its admin claim under "is_admin" (bool).  The
// secret must be the one tokens were issued with.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

            userID, isAdmin, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            c.Set(ctxUserID, userID)
            c.Set(ctxIsAdmin, isAdmin)
            return next(c)
        }
    }
}
