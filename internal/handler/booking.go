package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/coworking-booking/internal/model"
    "github.com/iliyamo/coworking-booking/internal/repository"
    "github.com/iliyamo/coworking-booking/internal/service"
)

// BookingAPI is the booking service used by the booking handlers.
type BookingAPI interface {
    Create(ctx context.Context, req service.CreateRequest) (*model.Booking, error)
    Quote(ctx context.Context, resourceID uint64, start, end time.Time) (*service.Quote, error)
    Availability(ctx context.Context, resourceID uint64, day time.Time) ([]model.Booking, error)
    ListForUser(ctx context.Context, userID uint64) ([]model.Booking, error)
    Get(ctx context.Context, id uint64, p service.Principal) (*model.Booking, error)
    List(ctx context.Context, f repository.BookingFilter) ([]model.Booking, int64, error)
    Cancel(ctx context.Context, id uint64, p service.Principal) (*model.Booking, error)
    MarkPaid(ctx context.Context, id uint64) (*model.Booking, error)
    Complete(ctx context.Context, id uint64) (*model.Booking, error)
}

// BookingHandler serves member-facing booking endpoints.
type BookingHandler struct {
    Bookings BookingAPI
    Timeout  time.Duration
}

func NewBookingHandler(bookings BookingAPI, timeout time.Duration) *BookingHandler {
    return &BookingHandler{Bookings: bookings, Timeout: timeout}
}

type bookingReq struct {
    ResourceID uint64 `json:"resource_id"`
    StartTime  string `json:"start_time"` // RFC 3339
    EndTime    string `json:"end_time"`
}

func (r bookingReq) window() (time.Time, time.Time, string) {
    if r.ResourceID == 0 {
        return time.Time{}, time.Time{}, "resource_id is required"
    }
    return parseWindow(r.StartTime, r.EndTime)
}

// Create books a resource for the caller.
func (h *BookingHandler) Create(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return errorJSON(c, http.StatusUnauthorized, "unauthorized")
    }
    var req bookingReq
    if err := c.Bind(&req); err != nil {
        return errorJSON(c, http.StatusBadRequest, "invalid body")
    }
    start, end, msg := req.window()
    if msg != "" {
        return errorJSON(c, http.StatusBadRequest, msg)
    }

    ctx, cancel := requestContext(c, h.Timeout)
    defer cancel()
    b, err := h.Bookings.Create(ctx, service.CreateRequest{
        ResourceID: req.ResourceID,
        UserID:     uid,
        Start:      start,
        End:        end,
    })
    if err != nil {
        return bookingError(c, err)
    }
    return c.JSON(http.StatusCreated, toBookingResp(*b))
}

// Quote prices a window and reports whether it is free, without booking.
func (h *BookingHandler) Quote(c echo.Context) error {
    var req bookingReq
    if err := c.Bind(&req); err != nil {
        return errorJSON(c, http.StatusBadRequest, "invalid body")
    }
    start, end, msg := req.window()
    if msg != "" {
        return errorJSON(c, http.StatusBadRequest, msg)
    }
    ctx, cancel := requestContext(c, h.Timeout)
    defer cancel()
    q, err := h.Bookings.Quote(ctx, req.ResourceID, start, end)
    if err != nil {
        return bookingError(c, err)
    }
    resp := echo.Map{
        "resource_id": q.ResourceID,
        "start_time":  q.Start,
        "end_time":    q.End,
        "hourly_rate": q.HourlyRate.StringFixed(2),
        "price":       q.Price.StringFixed(2),
        "available":   q.Available,
    }
    if !q.Available {
        resp["conflicting_booking_id"] = q.ConflictsID
    }
    return c.JSON(http.StatusOK, resp)
}

// Mine lists the caller's bookings.
func (h *BookingHandler) Mine(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return errorJSON(c, http.StatusUnauthorized, "unauthorized")
    }
    ctx, cancel := requestContext(c, h.Timeout)
    defer cancel()
    items, err := h.Bookings.ListForUser(ctx, uid)
    if err != nil {
        return bookingError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": toBookingList(items), "count": len(items)})
}

// Get returns one booking to its owner or to staff.
func (h *BookingHandler) Get(c echo.Context) error {
    p, err := principal(c)
    if err != nil {
        return errorJSON(c, http.StatusUnauthorized, "unauthorized")
    }
    id, ok := parseID(c, "id")
    if !ok {
        return errorJSON(c, http.StatusBadRequest, "invalid booking id")
    }
    ctx, cancel := requestContext(c, h.Timeout)
    defer cancel()
    b, err := h.Bookings.Get(ctx, id, p)
    if err != nil {
        return bookingError(c, err)
    }
    return c.JSON(http.StatusOK, toBookingResp(*b))
}

// Cancel cancels a booking for its owner or staff.
func (h *BookingHandler) Cancel(c echo.Context) error {
    p, err := principal(c)
    if err != nil {
        return errorJSON(c, http.StatusUnauthorized, "unauthorized")
    }
    id, ok := parseID(c, "id")
    if !ok {
        return errorJSON(c, http.StatusBadRequest, "invalid booking id")
    }
    ctx, cancel := requestContext(c, h.Timeout)
    defer cancel()
    b, err := h.Bookings.Cancel(ctx, id, p)
    if err != nil {
        return bookingError(c, err)
    }
    return c.JSON(http.StatusOK, toBookingResp(*b))
}
