package handler

import (
    "context"
    "net/http"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/coworking-booking/internal/middleware"
    "github.com/iliyamo/coworking-booking/internal/model"
    "github.com/iliyamo/coworking-booking/internal/service"
)

type stubResources struct {
    items   map[uint64]model.Resource
    updated service.ResourceInput
}

func (s *stubResources) Create(_ context.Context, in service.ResourceInput) (*model.Resource, error) {
    if err := in.Validate(); err != nil {
        return nil, err
    }
    r := model.Resource{ID: 10, Name: in.Name, Type: in.Type, Capacity: uint32(in.Capacity), HourlyRate: in.HourlyRate, IsActive: true}
    s.items[r.ID] = r
    return &r, nil
}

func (s *stubResources) Get(_ context.Context, id uint64) (*model.Resource, error) {
    r, ok := s.items[id]
    if !ok {
        return nil, service.ErrResourceNotFound
    }
    return &r, nil
}

func (s *stubResources) List(_ context.Context, activeOnly bool) ([]model.Resource, error) {
    var out []model.Resource
    for _, r := range s.items {
        if !activeOnly || r.IsActive {
            out = append(out, r)
        }
    }
    return out, nil
}

func (s *stubResources) Update(_ context.Context, id uint64, in service.ResourceInput) (*model.Resource, error) {
    if err := in.Validate(); err != nil {
        return nil, err
    }
    s.updated = in
    r := s.items[id]
    r.Name, r.Type, r.Capacity, r.HourlyRate = in.Name, in.Type, uint32(in.Capacity), in.HourlyRate
    if in.IsActive != nil {
        r.IsActive = *in.IsActive
    }
    s.items[id] = r
    return &r, nil
}

func (s *stubResources) Deactivate(_ context.Context, id uint64) error {
    r, ok := s.items[id]
    if !ok {
        return service.ErrResourceNotFound
    }
    r.IsActive = false
    s.items[id] = r
    return nil
}

func resourceServer(res *stubResources, bookings BookingAPI) *echo.Echo {
    e := echo.New()
    h := NewResourceHandler(res, bookings, time.Second)
    admin := []echo.MiddlewareFunc{middleware.JWTAuth(testSecret), middleware.RequireRole(model.RoleAdmin)}
    e.GET("/v1/resources", h.List)
    e.GET("/v1/admin/resources", h.ListAll, admin...)
    e.GET("/v1/resources/:id", h.Get)
    e.GET("/v1/resources/:id/availability", h.Availability)
    e.POST("/v1/resources", h.Create, admin...)
    e.PATCH("/v1/resources/:id", h.Update, admin...)
    e.PUT("/v1/resources/:id", h.Update, admin...)
    e.DELETE("/v1/resources/:id", h.Deactivate, admin...)
    return e
}

func seeded() *stubResources {
    return &stubResources{items: map[uint64]model.Resource{
        1: {ID: 1, Name: "Room A", Type: model.ResourceMeetingRoom, Capacity: 6, HourlyRate: decimal.RequireFromString("20"), IsActive: true},
        2: {ID: 2, Name: "Old desk", Type: model.ResourceDesk, Capacity: 1, HourlyRate: decimal.RequireFromString("5"), IsActive: false},
    }}
}

func TestResourceBrowse(t *testing.T) {
    e := resourceServer(seeded(), nil)

    rec := call(e, http.MethodGet, "/v1/resources", "", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.EqualValues(t, 1, decode(t, rec)["count"])

    rec = call(e, http.MethodGet, "/v1/resources?all=true", "", "")
    assert.Equal(t, http.StatusForbidden, rec.Code)

    assert.Equal(t, http.StatusUnauthorized, call(e, http.MethodGet, "/v1/admin/resources", "", "").Code)
    assert.Equal(t, http.StatusForbidden,
        call(e, http.MethodGet, "/v1/admin/resources", token(t, 3, model.RoleMember), "").Code)
    rec = call(e, http.MethodGet, "/v1/admin/resources", token(t, 1, model.RoleAdmin), "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.EqualValues(t, 2, decode(t, rec)["count"])

    rec = call(e, http.MethodGet, "/v1/resources/1", "", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "20.00", decode(t, rec)["hourly_rate"])

    assert.Equal(t, http.StatusNotFound, call(e, http.MethodGet, "/v1/resources/9", "", "").Code)
    assert.Equal(t, http.StatusBadRequest, call(e, http.MethodGet, "/v1/resources/0", "", "").Code)
}

func TestResourceAvailability(t *testing.T) {
    var gotDay time.Time
    api := &stubBookings{availability: func(id uint64, day time.Time) ([]model.Booking, error) {
        gotDay = day
        return []model.Booking{*sample(1)}, nil
    }}
    e := resourceServer(seeded(), api)

    rec := call(e, http.MethodGet, "/v1/resources/1/availability?date=2026-03-02", "", "")
    require.Equal(t, http.StatusOK, rec.Code)
    m := decode(t, rec)
    assert.Equal(t, "2026-03-02", m["date"])
    slots := m["booked"].([]any)
    require.Len(t, slots, 1)
    slot := slots[0].(map[string]any)
    assert.Equal(t, "2026-03-02T09:00:00Z", slot["start_time"])
    _, leaksUser := slot["user_id"]
    assert.False(t, leaksUser)
    assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), gotDay)

    rec = call(e, http.MethodGet, "/v1/resources/1/availability?date=03/02/2026", "", "")
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResourceAdmin(t *testing.T) {
    store := seeded()
    e := resourceServer(store, nil)
    admin := token(t, 1, model.RoleAdmin)

    rec := call(e, http.MethodPost, "/v1/resources", token(t, 2, model.RoleStaff), `{}`)
    assert.Equal(t, http.StatusForbidden, rec.Code)

    rec = call(e, http.MethodPost, "/v1/resources", admin, `{"name":"Booth"}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    rec = call(e, http.MethodPost, "/v1/resources", admin, `{"name":"Booth","type":"phone_booth","capacity":1,"hourly_rate":"4.255"}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Contains(t, decode(t, rec)["error"], "2 decimal places")

    rec = call(e, http.MethodPost, "/v1/resources", admin, `{"name":"Booth","type":"phone_booth","capacity":1,"hourly_rate":4.25}`)
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    assert.Equal(t, "4.25", decode(t, rec)["hourly_rate"])

    rec = call(e, http.MethodPatch, "/v1/resources/1", admin, `{"hourly_rate":"25"}`)
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    assert.Equal(t, "Room A", store.updated.Name)
    assert.EqualValues(t, 6, store.updated.Capacity)
    assert.Equal(t, "25.00", decode(t, rec)["hourly_rate"])

    rec = call(e, http.MethodPut, "/v1/resources/1", admin, `{"hourly_rate":"25"}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    assert.Equal(t, http.StatusNoContent, call(e, http.MethodDelete, "/v1/resources/1", admin, "").Code)
    assert.False(t, store.items[1].IsActive)
    assert.Equal(t, http.StatusNotFound, call(e, http.MethodDelete, "/v1/resources/99", admin, "").Code)
}
