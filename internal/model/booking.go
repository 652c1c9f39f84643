package model

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// Valid reports whether s is a known status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

// Booking reserves a resource for the half-open interval
// [StartTime, EndTime).  For a given resource, bookings whose status
// is not cancelled never overlap.  Price is captured from the
// resource's hourly rate when the booking is created and is not
// recomputed when the rate later changes.
//
// Fields:
//  ID          – primary key identifier.
//  ResourceID  – booked resource.
//  UserID      – member who owns the booking.
//  StartTime   – inclusive start (UTC).
//  EndTime     – exclusive end (UTC).
//  Status      – confirmed, cancelled or completed.
//  Price       – charge for the window, two decimal places.
//  Paid        – set by staff once payment is received.
//  CancelledAt – when the booking was cancelled (null otherwise).
type Booking struct {
	ID          uint64          // bookings.id
	ResourceID  uint64          // bookings.resource_id
	UserID      uint64          // bookings.user_id
	StartTime   time.Time       // bookings.start_time
	EndTime     time.Time       // bookings.end_time
	Status      BookingStatus   // bookings.status
	Price       decimal.Decimal // bookings.price DECIMAL(10,2)
	Paid        bool            // bookings.paid
	CancelledAt null.Time       // bookings.cancelled_at (nullable)
	CreatedAt   time.Time       // bookings.created_at
	UpdatedAt   time.Time       // bookings.updated_at
}

// Active reports whether the booking still occupies its resource.
func (b Booking) Active() bool { return b.Status != BookingCancelled }
