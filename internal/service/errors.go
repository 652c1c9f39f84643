// Package service orchestrates booking and resource operations on top of
// the repositories, the pure booking rules, the resource lock and the
// event publisher.
package service

import "errors"

var (
	ErrResourceNotFound = errors.New("resource not found")
	ErrResourceInactive = errors.New("resource is not accepting bookings")
	ErrResourceBusy     = errors.New("resource is busy, retry shortly")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrForbidden        = errors.New("not allowed to access this booking")
	ErrAlreadyCancelled = errors.New("booking is already cancelled")
	ErrBookingFinalized = errors.New("booking is completed and can no longer change")
	ErrBookingStarted   = errors.New("booking has already started")
	ErrCancelledPayment = errors.New("cancelled bookings cannot be paid")
	ErrNotConfirmed     = errors.New("only confirmed bookings can be completed")
	ErrInvalidResource  = errors.New("invalid resource")
	ErrSubSecondWindow  = errors.New("start_time and end_time must be whole seconds")
	ErrWindowTooLong    = errors.New("booking may not be longer than 31 days")
	ErrPriceTooLarge    = errors.New("booking price exceeds the maximum amount")
)
