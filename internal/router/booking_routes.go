package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/coworking-booking/internal/handler"
	"github.com/iliyamo/coworking-booking/internal/middleware"
	"github.com/iliyamo/coworking-booking/internal/model"
)

// RegisterBookings registers booking endpoints.  Members, staff and
// admins may book, quote, list their own bookings and read or cancel a
// booking (ownership is checked by the service).  The /v1/staff routes
// need STAFF or ADMIN.  Every mutating route runs invalidate so the
// cached availability views pick up the change; throttle guards
// booking creation.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, s *handler.StaffBookingHandler, jwtSecret string, invalidate, throttle echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(allRoles...),
	)
	g.POST("/bookings", h.Create, throttle, invalidate)
	g.POST("/bookings/quote", h.Quote)
	g.GET("/my-bookings", h.Mine)
	g.GET("/bookings/:id", h.Get)
	g.DELETE("/bookings/:id", h.Cancel, invalidate)

	staff := e.Group(
		"/v1/staff",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleStaff, model.RoleAdmin),
	)
	staff.GET("/bookings", s.List)
	staff.POST("/bookings/:id/paid", s.MarkPaid)
	staff.POST("/bookings/:id/complete", s.Complete, invalidate)
}
