package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/coworking-booking/internal/config"
	"github.com/iliyamo/coworking-booking/internal/handler"
)

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func newServer() *echo.Echo {
	e := echo.New()
	RegisterRoutes(e, nil)
	RegisterAuth(e, handler.NewAuthHandler(config.Config{}, nil, nil), "secret")
	RegisterResources(e, handler.NewResourceHandler(nil, nil, 0), "secret", passThrough, passThrough)
	bh := handler.NewBookingHandler(nil, 0)
	RegisterBookings(e, bh, handler.NewStaffBookingHandler(bh), "secret", passThrough, passThrough)
	return e
}

func TestRoutesRegistered(t *testing.T) {
	e := newServer()
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"POST /v1/auth/register", "POST /v1/auth/login", "POST /v1/auth/refresh", "POST /v1/auth/logout",
		"GET /v1/me",
		"GET /v1/resources", "GET /v1/resources/:id", "GET /v1/resources/:id/availability",
		"GET /v1/admin/resources",
		"POST /v1/resources", "PUT /v1/resources/:id", "PATCH /v1/resources/:id", "DELETE /v1/resources/:id",
		"POST /v1/bookings", "POST /v1/bookings/quote", "GET /v1/my-bookings",
		"GET /v1/bookings/:id", "DELETE /v1/bookings/:id",
		"GET /v1/staff/bookings", "POST /v1/staff/bookings/:id/paid", "POST /v1/staff/bookings/:id/complete",
	} {
		assert.True(t, have[want], "missing route %s", want)
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	e := newServer()
	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/v1/me"},
		{http.MethodPost, "/v1/bookings"},
		{http.MethodGet, "/v1/staff/bookings"},
		{http.MethodPost, "/v1/resources"},
		{http.MethodGet, "/v1/admin/resources"},
	} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(r.method, r.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, r.method+" "+r.path)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
