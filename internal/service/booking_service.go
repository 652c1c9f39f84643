package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/coworking-booking/internal/booking"
	"github.com/iliyamo/coworking-booking/internal/lock"
	"github.com/iliyamo/coworking-booking/internal/model"
	"github.com/iliyamo/coworking-booking/internal/queue"
	"github.com/iliyamo/coworking-booking/internal/repository"
)

// ResourceReader loads a single resource.
type ResourceReader interface {
	GetByID(ctx context.Context, id uint64) (*model.Resource, error)
}

// BookingStore is the persistence the booking service needs.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	ListActiveByResource(ctx context.Context, resourceID uint64) ([]model.Booking, error)
	ListActiveByResourceBetween(ctx context.Context, resourceID uint64, from, to time.Time) ([]model.Booking, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error)
	List(ctx context.Context, f repository.BookingFilter) ([]model.Booking, int64, error)
	Cancel(ctx context.Context, id uint64, at time.Time) error
	Complete(ctx context.Context, id uint64) error
	MarkPaid(ctx context.Context, id uint64) error
}

// EventPublisher emits booking events.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// Principal is the authenticated caller.
type Principal struct {
	UserID uint64
	Role   string
}

// IsStaff reports whether the caller may act on other members' bookings.
func (p Principal) IsStaff() bool { return model.IsStaffRole(p.Role) }

// BookingService creates and manages bookings.  It holds no mutable
// state and is safe for concurrent use.
type BookingService struct {
	resources ResourceReader
	bookings  BookingStore
	locker    lock.Locker
	events    EventPublisher
	now       func() time.Time
}

// Option customizes a BookingService.
type Option func(*BookingService)

// WithLocker serializes creation per resource through l.
func WithLocker(l lock.Locker) Option { return func(s *BookingService) { s.locker = l } }

// WithPublisher emits booking events through p.
func WithPublisher(p EventPublisher) Option { return func(s *BookingService) { s.events = p } }

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(s *BookingService) { s.now = now } }

// NewBookingService wires a BookingService.  Without options it does
// not lock and discards events.
func NewBookingService(resources ResourceReader, bookings BookingStore, opts ...Option) *BookingService {
	s := &BookingService{
		resources: resources,
		bookings:  bookings,
		locker:    lock.Noop{},
		events:    queue.Discard{},
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// CreateRequest asks for resourceID to be booked for [Start, End).
type CreateRequest struct {
	ResourceID uint64
	UserID     uint64
	Start      time.Time
	End        time.Time
}

// MaxBookingLength caps a single booking.  Longer stays are booked as
// several consecutive windows.
const MaxBookingLength = 31 * 24 * time.Hour

// maxPrice is the largest amount bookings.price (DECIMAL(10,2)) holds.
var maxPrice = decimal.RequireFromString("99999999.99")

// window builds the interval for a request.  Timestamps must be whole
// seconds because the store keeps second precision, and the window may
// not exceed MaxBookingLength.
func window(start, end time.Time) (booking.Interval, error) {
	iv, err := booking.NewInterval(start.UTC(), end.UTC())
	if err != nil {
		return booking.Interval{}, err
	}
	if iv.Start.Nanosecond() != 0 || iv.End.Nanosecond() != 0 {
		return booking.Interval{}, ErrSubSecondWindow
	}
	if iv.Duration() > MaxBookingLength {
		return booking.Interval{}, ErrWindowTooLong
	}
	return iv, nil
}

func price(iv booking.Interval, rate decimal.Decimal) (decimal.Decimal, error) {
	p, err := booking.PriceInterval(iv, rate)
	if err != nil {
		return decimal.Zero, err
	}
	if p.GreaterThan(maxPrice) {
		return decimal.Zero, ErrPriceTooLarge
	}
	return p, nil
}

// Create validates the window against the resource's active bookings,
// prices it and persists a confirmed, unpaid booking.  The event is
// published after the resource lock is released.
func (s *BookingService) Create(ctx context.Context, req CreateRequest) (*model.Booking, error) {
	iv, err := window(req.Start, req.End)
	if err != nil {
		return nil, err
	}
	res, err := s.activeResource(ctx, req.ResourceID)
	if err != nil {
		return nil, err
	}
	b, err := s.reserve(ctx, res, iv, req.UserID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.QueueBookingConfirmed, *b, res.Name)
	return b, nil
}

// reserve runs the check-and-insert under the resource lock.
func (s *BookingService) reserve(ctx context.Context, res *model.Resource, iv booking.Interval, userID uint64) (*model.Booking, error) {
	unlock, err := s.locker.Acquire(ctx, res.ID)
	if err != nil {
		if errors.Is(err, lock.ErrBusy) {
			return nil, ErrResourceBusy
		}
		return nil, fmt.Errorf("lock resource %d: %w", res.ID, err)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			log.Warnf("booking: release lock for resource %d: %v", res.ID, err)
		}
	}()

	existing, err := s.bookings.ListActiveByResource(ctx, res.ID)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	if err := booking.CheckAvailable(res.ID, iv, existing); err != nil {
		return nil, err
	}
	amount, err := price(iv, res.HourlyRate)
	if err != nil {
		return nil, err
	}

	b := &model.Booking{
		ResourceID: res.ID,
		UserID:     userID,
		StartTime:  iv.Start,
		EndTime:    iv.End,
		Status:     model.BookingConfirmed,
		Price:      amount,
		Paid:       false,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("save booking: %w", err)
	}
	return b, nil
}

// Quote is the result of pricing a window without booking it.
type Quote struct {
	ResourceID  uint64
	Start       time.Time
	End         time.Time
	HourlyRate  decimal.Decimal
	Price       decimal.Decimal
	Available   bool
	ConflictsID uint64 // set when Available is false
}

// Quote prices [start, end) on the resource and reports whether it is
// currently free.  Nothing is persisted.
func (s *BookingService) Quote(ctx context.Context, resourceID uint64, start, end time.Time) (*Quote, error) {
	iv, err := window(start, end)
	if err != nil {
		return nil, err
	}
	res, err := s.activeResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	existing, err := s.bookings.ListActiveByResource(ctx, res.ID)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	conflict, found, err := booking.FindConflict(res.ID, iv, existing)
	if err != nil {
		return nil, err
	}
	amount, err := price(iv, res.HourlyRate)
	if err != nil {
		return nil, err
	}
	q := &Quote{
		ResourceID: res.ID,
		Start:      iv.Start,
		End:        iv.End,
		HourlyRate: res.HourlyRate,
		Price:      amount,
		Available:  !found,
	}
	if found {
		q.ConflictsID = conflict.ID
	}
	return q, nil
}

// Availability returns the active bookings of a resource that overlap
// the UTC calendar day containing day.
func (s *BookingService) Availability(ctx context.Context, resourceID uint64, day time.Time) ([]model.Booking, error) {
	if _, err := s.resource(ctx, resourceID); err != nil {
		return nil, err
	}
	day = day.UTC()
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return s.bookings.ListActiveByResourceBetween(ctx, resourceID, from, from.AddDate(0, 0, 1))
}

// ListForUser returns the caller's own bookings.
func (s *BookingService) ListForUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

// Get returns a booking visible to p: its owner or staff.
func (s *BookingService) Get(ctx context.Context, id uint64, p Principal) (*model.Booking, error) {
	b, err := s.booking(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID != p.UserID && !p.IsStaff() {
		return nil, ErrForbidden
	}
	return b, nil
}

// List returns bookings matching f and the total count before paging.
func (s *BookingService) List(ctx context.Context, f repository.BookingFilter) ([]model.Booking, int64, error) {
	return s.bookings.List(ctx, f)
}

// Cancel cancels a confirmed booking on behalf of its owner or staff.
// Members cannot cancel once the booking has started.
func (s *BookingService) Cancel(ctx context.Context, id uint64, p Principal) (*model.Booking, error) {
	b, err := s.Get(ctx, id, p)
	if err != nil {
		return nil, err
	}
	switch b.Status {
	case model.BookingCancelled:
		return nil, ErrAlreadyCancelled
	case model.BookingCompleted:
		return nil, ErrBookingFinalized
	}
	now := s.now().UTC()
	if !p.IsStaff() && !now.Before(b.StartTime) {
		return nil, ErrBookingStarted
	}
	if err := s.bookings.Cancel(ctx, id, now); err != nil {
		return nil, s.transitionError(ctx, id, err)
	}
	b, err = s.booking(ctx, id)
	if err != nil {
		return nil, err
	}
	name := ""
	if res, err := s.resources.GetByID(ctx, b.ResourceID); err == nil {
		name = res.Name
	}
	s.publish(ctx, queue.QueueBookingCancelled, *b, name)
	return b, nil
}

// MarkPaid records payment for a booking that is not cancelled.
func (s *BookingService) MarkPaid(ctx context.Context, id uint64) (*model.Booking, error) {
	if err := s.bookings.MarkPaid(ctx, id); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrCancelledPayment
		}
		return nil, s.transitionError(ctx, id, err)
	}
	return s.booking(ctx, id)
}

// Complete marks a confirmed booking as completed after check-out.
func (s *BookingService) Complete(ctx context.Context, id uint64) (*model.Booking, error) {
	if err := s.bookings.Complete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrNotConfirmed
		}
		return nil, s.transitionError(ctx, id, err)
	}
	return s.booking(ctx, id)
}

// transitionError maps a failed guarded update.  A conflict means the
// booking changed state underneath us, so its current state decides.
func (s *BookingService) transitionError(ctx context.Context, id uint64, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrBookingNotFound
	}
	if !errors.Is(err, repository.ErrConflict) {
		return err
	}
	b, gerr := s.booking(ctx, id)
	if gerr != nil {
		return gerr
	}
	if b.Status == model.BookingCompleted {
		return ErrBookingFinalized
	}
	return ErrAlreadyCancelled
}

func (s *BookingService) resource(ctx context.Context, id uint64) (*model.Resource, error) {
	res, err := s.resources.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	return res, nil
}

func (s *BookingService) activeResource(ctx context.Context, id uint64) (*model.Resource, error) {
	res, err := s.resource(ctx, id)
	if err != nil {
		return nil, err
	}
	if !res.IsActive {
		return nil, ErrResourceInactive
	}
	return res, nil
}

func (s *BookingService) booking(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

// publish emits an event without failing the operation; the booking is
// already stored.
func (s *BookingService) publish(ctx context.Context, typ string, b model.Booking, resourceName string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	ev := queue.NewBookingEvent(typ, b, resourceName, s.now())
	if err := s.events.Publish(ctx, ev); err != nil {
		log.Warnf("booking: publish %s for booking %d: %v", typ, b.ID, err)
	}
}
