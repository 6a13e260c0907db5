package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/happycoon/coffee-table-reservation/internal/handler"
	"github.com/happycoon/coffee-table-reservation/internal/middleware"
)

// Guard builds the middleware chains of protected routes.  Limit is
// optional and runs after authentication so that per-user keys work.
type Guard struct {
	JWTSecret string
	Users     middleware.UserLookup
	Limit     echo.MiddlewareFunc
}

// Authenticated validates the access token and loads the actor.
func (g Guard) Authenticated() []echo.MiddlewareFunc {
	mw := []echo.MiddlewareFunc{middleware.JWTAuth(g.JWTSecret), middleware.LoadActor(g.Users)}
	if g.Limit != nil {
		mw = append(mw, g.Limit)
	}
	return mw
}

// Admin is Authenticated plus the admin check.
func (g Guard) Admin() []echo.MiddlewareFunc {
	return append(g.Authenticated(), middleware.RequireAdmin())
}

// RegisterRoutes registers the unauthenticated service endpoints: the
// welcome message, the health check and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/", handler.Welcome)
	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers the session endpoints under /v1/auth and the
// profile endpoint under /v1/users.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, g Guard) {
	var open []echo.MiddlewareFunc
	if g.Limit != nil {
		open = append(open, g.Limit)
	}
	auth := e.Group("/v1/auth", open...)
	auth.POST("/register", a.Register)
	auth.POST("/login", a.Login)
	// Rotates the refresh token.
	auth.POST("/refresh", a.Refresh)
	// Issues a new access token and keeps the refresh token.
	auth.POST("/refresh-access", a.RefreshAccess)
	// Accepts a refresh token in the body or a bearer token; no JWT middleware.
	auth.POST("/logout", a.Logout)

	users := e.Group("/v1/users", g.Authenticated()...)
	users.GET("/me", a.Me)
}
