package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"

    "github.com/iliyamo/coworking-booking/internal/model"
    "github.com/iliyamo/coworking-booking/internal/service"
)

// ResourceAPI is the resource catalogue used by ResourceHandler.
type ResourceAPI interface {
    Create(ctx context.Context, in service.ResourceInput) (*model.Resource, error)
    Get(ctx context.Context, id uint64) (*model.Resource, error)
    List(ctx context.Context, activeOnly bool) ([]model.Resource, error)
    Update(ctx context.Context, id uint64, in service.ResourceInput) (*model.Resource, error)
    Deactivate(ctx context.Context, id uint64) error
}

// ResourceHandler serves public browsing and admin management of
// bookable resources.
type ResourceHandler struct {
    Resources ResourceAPI
    Bookings  BookingAPI
    Timeout   time.Duration
}

func NewResourceHandler(resources ResourceAPI, bookings BookingAPI, timeout time.Duration) *ResourceHandler {
    return &ResourceHandler{Resources: resources, Bookings: bookings, Timeout: timeout}
}

// resourceReq is used for create, full update and partial update; a nil
// field in a PATCH keeps the stored value.
type resourceReq struct {
    Name       *string          `json:"name"`
    Type       *string          `json:"type"`
    Capacity   *int64           `json:"capacity"`
    HourlyRate *decimal.Decimal `json:"hourly_rate"`
    IsActive   *bool            `json:"is_active"`
}

func (r resourceReq) complete() bool {
    return r.Name != nil && r.Type != nil && r.Capacity != nil && r.HourlyRate != nil
}

// input overlays r onto base.
func (r resourceReq) input(base service.ResourceInput) service.ResourceInput {
    in := base
    if r.Name != nil {
        in.Name = *r.Name
    }
    if r.Type != nil {
        in.Type = model.ResourceType(strings.ToLower(strings.TrimSpace(*r.Type)))
    }
    if r.Capacity != nil {
        in.Capacity = *r.Capacity
    }
    if r.HourlyRate != nil {
        in.HourlyRate = *r.HourlyRate
    }
    in.IsActive = r.IsActive
    return in
}

// List returns the active resources.  The route is public and cached,
// so ?all=true is refused here; admins use ListAll.
func (h *ResourceHandler) List(c echo.Context) error {
    if c.QueryParam("all") == "true" {
        return errorJSON(c, http.StatusForbidden, "deactivated resources are listed at /v1/admin/resources")
    }
    return h.list(c, true)
}

// ListAll returns every resource, deactivated ones included.  It is
// mounted behind the ADMIN role.
func (h *ResourceHandler) ListAll(c echo.Context) error {
    return h.list(c, false)
}

func (h *ResourceHandler) list(c echo.Context, activeOnly bool) error {
    ctx, cancel := requestContext(c, h.Timeout)
    defer cancel()
    items, err := h.Resources.List(ctx, activeOnly)
    if err != nil {
        return bookingError(c, err)
    }
    out := make([]resourceResp, 0, len(items))
    for _, r := range items {
        out = append(out, toResourceResp(r))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out, "count": len(out)})
}

// Get returns a single resource.
func (h *ResourceHandler) Get(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return errorJSON(c, http.StatusBadRequest, "invalid resource id")
    }
    ctx, cancel := requestContext(c, h.Timeout)
    defer cancel()
    res, err := h.Resources.Get(ctx, id)
    if err != nil {
        return bookingError(c, err)
    }
    return c.JSON(http.StatusOK, toResourceResp(*res))
}

// Availability lists the booked windows of a resource on one UTC day
// (?date=YYYY-MM-DD, default today).
func (h *ResourceHandler) Availability(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return errorJSON(c, http.StatusBadRequest, "invalid resource id")
    }
    day := time.Now().UTC()
    if raw := strings.TrimSpace(c.QueryParam("date")); raw != "" {
        d, err := time.Parse(time.DateOnly, raw)
        if err != nil {
            return errorJSON(c, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
        }
        day = d
    }
    ctx, cancel := requestContext(c, h.Timeout)
    defer cancel()
    booked, err := h.Bookings.Availability(ctx, id, day)
    if err != nil {
        return bookingError(c, err)
    }
    slots := make([]slotResp, 0, len(booked))
    for _, b := range booked {
        slots = append(slots, slotResp{StartTime: b.StartTime.UTC(), EndTime: b.EndTime.UTC()})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "resource_id": id,
        "date":        day.Format(time.DateOnly),
        "booked":      slots,
    })
}

// Create adds a resource (ADMIN).
func (h *ResourceHandler) Create(c echo.Context) error {
    var req resourceReq
    if err := c.Bind(&req); err != nil {
        return errorJSON(c, http.StatusBadRequest, "invalid body")
    }
    if !req.complete() {
        return errorJSON(c, http.StatusBadRequest, "name, type, capacity and hourly_rate are required")
    }
    ctx, cancel := requestContext(c, h.Timeout)
    defer cancel()
    res, err := h.Resources.Create(ctx, req.input(service.ResourceInput{}))
    if err != nil {
        return bookingError(c, err)
    }
    return c.JSON(http.StatusCreated, toResourceResp(*res))
}

// Update replaces (PUT) or patches (PATCH) a resource (ADMIN).
func (h *ResourceHandler) Update(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return errorJSON(c, http.StatusBadRequest, "invalid resource id")
    }
    var req resourceReq
    if err := c.Bind(&req); err != nil {
        return errorJSON(c, http.StatusBadRequest, "invalid body")
    }
    if c.Request().Method == http.MethodPut && !req.complete() {
        return errorJSON(c, http.StatusBadRequest, "name, type, capacity and hourly_rate are required")
    }
    ctx, cancel := requestContext(c, h.Timeout)
    defer cancel()

    current, err := h.Resources.Get(ctx, id)
    if err != nil {
        return bookingError(c, err)
    }
    base := service.ResourceInput{
        Name:       current.Name,
        Type:       current.Type,
        Capacity:   int64(current.Capacity),
        HourlyRate: current.HourlyRate,
    }
    res, err := h.Resources.Update(ctx, id, req.input(base))
    if err != nil {
        return bookingError(c, err)
    }
    return c.JSON(http.StatusOK, toResourceResp(*res))
}

// Deactivate stops new bookings on a resource (ADMIN).  History is kept.
func (h *ResourceHandler) Deactivate(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return errorJSON(c, http.StatusBadRequest, "invalid resource id")
    }
    ctx, cancel := requestContext(c, h.Timeout)
    defer cancel()
    if err := h.Resources.Deactivate(ctx, id); err != nil {
        return bookingError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
