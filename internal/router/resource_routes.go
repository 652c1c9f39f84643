package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/coworking-booking/internal/handler"
	"github.com/iliyamo/coworking-booking/internal/middleware"
	"github.com/iliyamo/coworking-booking/internal/model"
)

// RegisterResources registers public browse endpoints, wrapped by cache,
// and the ADMIN management endpoints, wrapped by invalidate so browse
// responses reflect the change.  The admin listing that includes
// deactivated resources is never cached.
func RegisterResources(e *echo.Echo, h *handler.ResourceHandler, jwtSecret string, cache, invalidate echo.MiddlewareFunc) {
	e.GET("/v1/resources", h.List, cache)
	e.GET("/v1/resources/:id", h.Get, cache)
	e.GET("/v1/resources/:id/availability", h.Availability, cache)

	admin := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
		invalidate,
	}
	e.GET("/v1/admin/resources", h.ListAll, middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleAdmin))
	e.POST("/v1/resources", h.Create, admin...)
	e.PUT("/v1/resources/:id", h.Update, admin...)
	e.PATCH("/v1/resources/:id", h.Update, admin...)
	e.DELETE("/v1/resources/:id", h.Deactivate, admin...)
}
