package handler

import (
    "time"

    "github.com/iliyamo/coworking-booking/internal/model"
)

type resourceResp struct {
    ID         uint64    `json:"id"`
    Name       string    `json:"name"`
    Type       string    `json:"type"`
    Capacity   uint32    `json:"capacity"`
    HourlyRate string    `json:"hourly_rate"`
    IsActive   bool      `json:"is_active"`
    CreatedAt  time.Time `json:"created_at"`
    UpdatedAt  time.Time `json:"updated_at"`
}

func toResourceResp(r model.Resource) resourceResp {
    return resourceResp{
        ID:         r.ID,
        Name:       r.Name,
        Type:       string(r.Type),
        Capacity:   r.Capacity,
        HourlyRate: r.HourlyRate.StringFixed(2),
        IsActive:   r.IsActive,
        CreatedAt:  r.CreatedAt,
        UpdatedAt:  r.UpdatedAt,
    }
}

// Money is rendered as a fixed two-decimal string so clients never see
// binary floating point.
type bookingResp struct {
    ID          uint64     `json:"id"`
    ResourceID  uint64     `json:"resource_id"`
    UserID      uint64     `json:"user_id"`
    StartTime   time.Time  `json:"start_time"`
    EndTime     time.Time  `json:"end_time"`
    Status      string     `json:"status"`
    Price       string     `json:"price"`
    Paid        bool       `json:"paid"`
    CancelledAt *time.Time `json:"cancelled_at"`
    CreatedAt   time.Time  `json:"created_at"`
}

func toBookingResp(b model.Booking) bookingResp {
    out := bookingResp{
        ID:         b.ID,
        ResourceID: b.ResourceID,
        UserID:     b.UserID,
        StartTime:  b.StartTime.UTC(),
        EndTime:    b.EndTime.UTC(),
        Status:     string(b.Status),
        Price:      b.Price.StringFixed(2),
        Paid:       b.Paid,
        CreatedAt:  b.CreatedAt,
    }
    if b.CancelledAt.Valid {
        t := b.CancelledAt.Time.UTC()
        out.CancelledAt = &t
    }
    return out
}

func toBookingList(bs []model.Booking) []bookingResp {
    out := make([]bookingResp, 0, len(bs))
    for _, b := range bs {
        out = append(out, toBookingResp(b))
    }
    return out
}

// slotResp is a booked window shown on the public availability view;
// it does not reveal who booked it.
type slotResp struct {
    StartTime time.Time `json:"start_time"`
    EndTime   time.Time `json:"end_time"`
}
