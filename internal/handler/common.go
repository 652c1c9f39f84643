package handler // handler defines http handlers

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/coworking-booking/internal/booking"
    "github.com/iliyamo/coworking-booking/internal/middleware"
    "github.com/iliyamo/coworking-booking/internal/repository"
    "github.com/iliyamo/coworking-booking/internal/service"
)

const defaultTimeout = 5 * time.Second

// errInvalidUser is returned when no authenticated user is in context.
var errInvalidUser = errors.New("invalid user_id in context")

// getUserID returns the authenticated user's ID set by JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
    id, ok := middleware.UserID(c)
    if !ok {
        return 0, errInvalidUser
    }
    return id, nil
}

// principal returns the caller as the service sees it.
func principal(c echo.Context) (service.Principal, error) {
    id, err := getUserID(c)
    if err != nil {
        return service.Principal{}, err
    }
    return service.Principal{UserID: id, Role: middleware.Role(c)}, nil
}

// requestContext bounds the work a handler does per request.
func requestContext(c echo.Context, d time.Duration) (context.Context, context.CancelFunc) {
    if d <= 0 {
        d = defaultTimeout
    }
    return context.WithTimeout(c.Request().Context(), d)
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, false
    }
    return id, true
}

// parseTimestamp parses an RFC 3339 timestamp and converts it to UTC.
func parseTimestamp(raw string) (time.Time, error) {
    t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
    if err != nil {
        return time.Time{}, err
    }
    return t.UTC(), nil
}

// parseWindow parses start_time/end_time and checks their order.
// Bookings are stored with second precision, so fractional seconds are
// refused rather than rounded.
func parseWindow(startRaw, endRaw string) (time.Time, time.Time, string) {
    start, err := parseTimestamp(startRaw)
    if err != nil {
        return time.Time{}, time.Time{}, "invalid start_time format"
    }
    end, err := parseTimestamp(endRaw)
    if err != nil {
        return time.Time{}, time.Time{}, "invalid end_time format"
    }
    if start.Nanosecond() != 0 {
        return time.Time{}, time.Time{}, "start_time must be whole seconds"
    }
    if end.Nanosecond() != 0 {
        return time.Time{}, time.Time{}, "end_time must be whole seconds"
    }
    if !end.After(start) {
        return time.Time{}, time.Time{}, "end_time must be after start_time"
    }
    return start, end, ""
}

func errorJSON(c echo.Context, code int, msg string) error {
    return c.JSON(code, echo.Map{"error": msg})
}

// bookingError translates service and domain errors into HTTP responses.
// Unknown errors are logged and reported as 500 without detail.
func bookingError(c echo.Context, err error) error {
    var conflict *booking.ConflictError
    switch {
    case errors.As(err, &conflict):
        return c.JSON(http.StatusConflict, echo.Map{
            "error":                  conflict.Error(),
            "conflicting_booking_id": conflict.Booking.ID,
        })
    case errors.Is(err, booking.ErrInvalidInterval):
        return errorJSON(c, http.StatusBadRequest, "end_time must be after start_time")
    case errors.Is(err, booking.ErrNegativeRate):
        return errorJSON(c, http.StatusUnprocessableEntity, err.Error())
    case errors.Is(err, service.ErrInvalidResource),
        errors.Is(err, service.ErrSubSecondWindow),
        errors.Is(err, service.ErrWindowTooLong),
        errors.Is(err, service.ErrPriceTooLarge):
        return errorJSON(c, http.StatusBadRequest, err.Error())
    case errors.Is(err, service.ErrResourceNotFound), errors.Is(err, service.ErrBookingNotFound):
        return errorJSON(c, http.StatusNotFound, err.Error())
    case errors.Is(err, service.ErrForbidden):
        return errorJSON(c, http.StatusForbidden, err.Error())
    case errors.Is(err, service.ErrResourceInactive),
        errors.Is(err, service.ErrAlreadyCancelled),
        errors.Is(err, service.ErrBookingFinalized),
        errors.Is(err, service.ErrBookingStarted),
        errors.Is(err, service.ErrCancelledPayment),
        errors.Is(err, service.ErrNotConfirmed):
        return errorJSON(c, http.StatusConflict, err.Error())
    case errors.Is(err, repository.ErrNameExists):
        return errorJSON(c, http.StatusConflict, err.Error())
    case errors.Is(err, service.ErrResourceBusy):
        c.Response().Header().Set("Retry-After", "1")
        return errorJSON(c, http.StatusServiceUnavailable, err.Error())
    case errors.Is(err, context.DeadlineExceeded):
        return errorJSON(c, http.StatusGatewayTimeout, "request timed out")
    }
    c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
    return errorJSON(c, http.StatusInternalServerError, "internal error")
}
