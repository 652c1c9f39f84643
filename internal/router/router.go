package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/coworking-booking/internal/handler"
	"github.com/iliyamo/coworking-booking/internal/middleware"
	"github.com/iliyamo/coworking-booking/internal/model"
)

// allRoles may use the member-facing booking endpoints.
var allRoles = []string{model.RoleMember, model.RoleStaff, model.RoleAdmin}

// RegisterRoutes registers the unauthenticated health checks.  /healthz is
// liveness; /readyz also pings the database.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	if db != nil {
		e.GET("/readyz", handler.Ready(db))
	}
}

// RegisterAuth registers authentication routes.  Register, login,
// refresh and logout live under /v1/auth and need no session; /v1/me
// requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh) // rotates the refresh token
	// Logout accepts a refresh token in the body, or a bearer to revoke
	// every session of the user.
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret), middleware.RequireRole(allRoles...))
}
