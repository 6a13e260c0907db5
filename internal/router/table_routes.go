package router

import (
	"github.com/labstack/echo/v4"

	"github.com/happycoon/coffee-table-reservation/internal/handler"
)

// RegisterTables registers the table inventory.  The listing is public and
// served through cache (may be nil); changes require an admin.
func RegisterTables(e *echo.Echo, h *handler.TableHandler, g Guard, cache echo.MiddlewareFunc) {
	var listMW []echo.MiddlewareFunc
	if cache != nil {
		listMW = append(listMW, cache)
	}
	e.GET("/v1/tables", h.List, listMW...)

	admin := e.Group("/v1/tables", g.Admin()...)
	admin.POST("", h.Create)
	admin.DELETE("/:id", h.Delete)
}
