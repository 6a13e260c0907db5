package middleware

// identity.go turns the token subject into a booking.Actor.  The admin flag
// is taken from the user row rather than the token, so a demotion applies
// to tokens already issued.

import (
    "context"
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/happycoon/coffee-table-reservation/internal/booking"
    "github.com/happycoon/coffee-table-reservation/internal/model"
    "github.com/happycoon/coffee-table-reservation/internal/repository"
)

// UserLookup loads a user by id.  *repository.UserRepo satisfies it.
type UserLookup interface {
    GetByID(ctx context.Context, id uint64) (model.User, error)
}

// LoadActor must run after JWTAuth.  It rejects tokens of deleted users
// with 401 and disabled users with 403, then stores the booking.Actor
// under "actor" and the user under "user".
func LoadActor(users UserLookup) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            id, ok := c.Get(ctxUserID).(uint64)
            if !ok || id == 0 {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
            }
            u, err := users.GetByID(c.Request().Context(), id)
            if err != nil {
                if errors.Is(err, repository.ErrUserNotFound) {
                    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not found"})
                }
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load user"})
            }
            if u.Disabled {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "inactive user"})
            }

            c.Set(ctxActor, booking.Actor{UserID: u.ID, IsAdmin: u.IsAdmin})
            c.Set(ctxUser, u)
            return next(c)
        }
    }
}

// ActorFrom returns the actor stored by LoadActor.
func ActorFrom(c echo.Context) (booking.Actor, bool) {
    a, ok := c.Get(ctxActor).(booking.Actor)
    return a, ok
}

// UserFrom returns the user row stored by LoadActor.
func UserFrom(c echo.Context) (model.User, bool) {
    u, ok := c.Get(ctxUser).(model.User)
    return u, ok
}
