package router

import (
	"github.com/labstack/echo/v4"

	"github.com/happycoon/coffee-table-reservation/internal/handler"
	"github.com/happycoon/coffee-table-reservation/internal/middleware"
)

// RegisterBookings registers booking endpoints under /v1/bookings.  Every
// route requires an authenticated, active user; listing all bookings
// additionally requires an admin.  Cancellation rights are checked by the
// service.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, g Guard) {
	b := e.Group("/v1/bookings", g.Authenticated()...)
	b.POST("", h.Create)
	b.GET("/my", h.My)
	b.GET("/my/upcoming", h.MyUpcoming)
	b.GET("/my/previous", h.MyPrevious)
	b.GET("", h.All, middleware.RequireAdmin())
	b.DELETE("/:id", h.Delete)
}
