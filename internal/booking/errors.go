// Package booking holds the pure rules behind a reservation: deciding
// whether a proposed window collides with existing bookings of the same
// resource, and pricing a window at an hourly rate.  Nothing here
// touches storage; callers load the inputs and persist the outcome.
package booking

import (
	"errors"

	"github.com/iliyamo/coworking-booking/internal/model"
)

// ErrInvalidInterval is returned when a window does not end strictly
// after it starts.
var ErrInvalidInterval = errors.New("invalid interval: end must be after start")

// ErrNegativeRate is returned when pricing with an hourly rate below zero.
var ErrNegativeRate = errors.New("hourly rate must not be negative")

// ErrConflict is the sentinel matched by errors.Is for every
// ConflictError.  Its text is the message shown to clients.
var ErrConflict = errors.New("this time slot is already booked for the selected resource")

// ConflictError reports the existing booking that a proposed window
// overlaps.
type ConflictError struct {
	Booking model.Booking
}

func (e *ConflictError) Error() string { return ErrConflict.Error() }

func (e *ConflictError) Unwrap() error { return ErrConflict }
