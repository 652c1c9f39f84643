// Package queue carries booking events over RabbitMQ: the payload type,
// the publisher used by the API and the consumer run by the worker.
package queue

import (
    "time"

    "github.com/google/uuid"
    "github.com/shopspring/decimal"

    "github.com/iliyamo/coworking-booking/internal/model"
)

// Queue names double as routing keys on the default exchange.
const (
    QueueBookingConfirmed = "booking.confirmed"
    QueueBookingCancelled = "booking.cancelled"
)

// Queues lists every queue the worker consumes.
var Queues = []string{QueueBookingConfirmed, QueueBookingCancelled}

// BookingEvent is published when a booking is confirmed or cancelled.
// It carries enough for downstream consumers to log or notify without
// querying the primary database.
type BookingEvent struct {
    EventID      string          `json:"event_id"`
    Type         string          `json:"type"`
    BookingID    uint64          `json:"booking_id"`
    ResourceID   uint64          `json:"resource_id"`
    ResourceName string          `json:"resource_name"`
    UserID       uint64          `json:"user_id"`
    StartTime    time.Time       `json:"start_time"`
    EndTime      time.Time       `json:"end_time"`
    Price        decimal.Decimal `json:"price"`
    Status       string          `json:"status"`
    OccurredAt   time.Time       `json:"occurred_at"`
}

// NewBookingEvent builds an event of the given type for b.
func NewBookingEvent(typ string, b model.Booking, resourceName string, at time.Time) BookingEvent {
    return BookingEvent{
        EventID:      uuid.NewString(),
        Type:         typ,
        BookingID:    b.ID,
        ResourceID:   b.ResourceID,
        ResourceName: resourceName,
        UserID:       b.UserID,
        StartTime:    b.StartTime.UTC(),
        EndTime:      b.EndTime.UTC(),
        Price:        b.Price,
        Status:       string(b.Status),
        OccurredAt:   at.UTC(),
    }
}
