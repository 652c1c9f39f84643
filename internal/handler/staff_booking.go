package handler

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/coworking-booking/internal/model"
    "github.com/iliyamo/coworking-booking/internal/repository"
)

// StaffBookingHandler serves the front-desk endpoints for STAFF and ADMIN.
type StaffBookingHandler struct {
    *BookingHandler
}

func NewStaffBookingHandler(h *BookingHandler) *StaffBookingHandler {
    return &StaffBookingHandler{BookingHandler: h}
}

// List filters bookings by resource_id, user_id, status and a from/to
// window, paged with limit/offset.
func (h *StaffBookingHandler) List(c echo.Context) error {
    var f repository.BookingFilter
    var err error
    if f.ResourceID, err = optUint(c.QueryParam("resource_id")); err != nil {
        return errorJSON(c, http.StatusBadRequest, "invalid resource_id")
    }
    if f.UserID, err = optUint(c.QueryParam("user_id")); err != nil {
        return errorJSON(c, http.StatusBadRequest, "invalid user_id")
    }
    if s := strings.ToLower(strings.TrimSpace(c.QueryParam("status"))); s != "" {
        f.Status = model.BookingStatus(s)
        if !f.Status.Valid() {
            return errorJSON(c, http.StatusBadRequest, "invalid status")
        }
    }
    if raw := c.QueryParam("from"); raw != "" {
        if f.From, err = parseTimestamp(raw); err != nil {
            return errorJSON(c, http.StatusBadRequest, "invalid from format")
        }
    }
    if raw := c.QueryParam("to"); raw != "" {
        if f.To, err = parseTimestamp(raw); err != nil {
            return errorJSON(c, http.StatusBadRequest, "invalid to format")
        }
    }
    f.Limit, _ = strconv.Atoi(c.QueryParam("limit"))
    f.Offset, _ = strconv.Atoi(c.QueryParam("offset"))

    ctx, cancel := requestContext(c, h.Timeout)
    defer cancel()
    items, total, err := h.Bookings.List(ctx, f)
    if err != nil {
        return bookingError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": toBookingList(items), "total": total})
}

// MarkPaid records payment for a booking.
func (h *StaffBookingHandler) MarkPaid(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return errorJSON(c, http.StatusBadRequest, "invalid booking id")
    }
    ctx, cancel := requestContext(c, h.Timeout)
    defer cancel()
    b, err := h.Bookings.MarkPaid(ctx, id)
    if err != nil {
        return bookingError(c, err)
    }
    return c.JSON(http.StatusOK, toBookingResp(*b))
}

// Complete marks a booking as completed at check-out.
func (h *StaffBookingHandler) Complete(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return errorJSON(c, http.StatusBadRequest, "invalid booking id")
    }
    ctx, cancel := requestContext(c, h.Timeout)
    defer cancel()
    b, err := h.Bookings.Complete(ctx, id)
    if err != nil {
        return bookingError(c, err)
    }
    return c.JSON(http.StatusOK, toBookingResp(*b))
}

func optUint(raw string) (uint64, error) {
    raw = strings.TrimSpace(raw)
    if raw == "" {
        return 0, nil
    }
    return strconv.ParseUint(raw, 10, 64)
}
