package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/coworking-booking/internal/model"
)

// BookingRepo persists bookings.  All timestamps are stored in UTC.
// Rows are never deleted: cancellation is a status change.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, resource_id, user_id, start_time, end_time, status, price, paid, cancelled_at, created_at, updated_at`

func scanBooking(s rowScanner) (model.Booking, error) {
	var b model.Booking
	err := s.Scan(&b.ID, &b.ResourceID, &b.UserID, &b.StartTime, &b.EndTime, &b.Status,
		&b.Price, &b.Paid, &b.CancelledAt, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func collectBookings(rows *sql.Rows) ([]model.Booking, error) {
	defer rows.Close()
	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts b with its status, price and paid flag as given and
// reads the row back to populate the ID and timestamps.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings (resource_id, user_id, start_time, end_time, status, price, paid)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q,
		b.ResourceID, b.UserID, b.StartTime.UTC(), b.EndTime.UTC(), b.Status, b.Price, b.Paid)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*b = *created
	return nil
}

// GetByID returns a booking or ErrNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// ListActiveByResource returns every booking of the resource whose
// status is not cancelled, ordered by start time.  This is the input
// set for conflict detection.
func (r *BookingRepo) ListActiveByResource(ctx context.Context, resourceID uint64) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings
               WHERE resource_id = ? AND status <> 'cancelled'
               ORDER BY start_time`
	rows, err := r.db.QueryContext(ctx, q, resourceID)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

// ListActiveByResourceBetween returns the non-cancelled bookings of a
// resource that overlap [from, to).
func (r *BookingRepo) ListActiveByResourceBetween(ctx context.Context, resourceID uint64, from, to time.Time) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings
               WHERE resource_id = ? AND status <> 'cancelled' AND start_time < ? AND end_time > ?
               ORDER BY start_time`
	rows, err := r.db.QueryContext(ctx, q, resourceID, to.UTC(), from.UTC())
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

// ListByUser returns a user's bookings, newest window first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ? ORDER BY start_time DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

// BookingFilter narrows List.  Zero values mean "any".
type BookingFilter struct {
	ResourceID uint64
	UserID     uint64
	Status     model.BookingStatus
	From       time.Time // bookings ending after From
	To         time.Time // bookings starting before To
	Limit      int
	Offset     int
}

// List returns bookings matching f ordered by start time, with the
// total number of matches before paging.
func (r *BookingRepo) List(ctx context.Context, f BookingFilter) ([]model.Booking, int64, error) {
	var where []string
	var args []any
	if f.ResourceID != 0 {
		where = append(where, "resource_id = ?")
		args = append(args, f.ResourceID)
	}
	if f.UserID != 0 {
		where = append(where, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if !f.From.IsZero() {
		where = append(where, "end_time > ?")
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		where = append(where, "start_time < ?")
		args = append(args, f.To.UTC())
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	q := `SELECT ` + bookingColumns + ` FROM bookings` + cond + ` ORDER BY start_time LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	items, err := collectBookings(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Cancel moves a confirmed booking to cancelled and stamps
// cancelled_at.  ErrConflict is returned when the booking is no longer
// confirmed; ErrNotFound when it does not exist.
func (r *BookingRepo) Cancel(ctx context.Context, id uint64, at time.Time) error {
	const q = `UPDATE bookings SET status = 'cancelled', cancelled_at = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ? AND status = 'confirmed'`
	return r.transition(ctx, id, q, at.UTC(), id)
}

// Complete moves a confirmed booking to completed.
func (r *BookingRepo) Complete(ctx context.Context, id uint64) error {
	const q = `UPDATE bookings SET status = 'completed', updated_at = CURRENT_TIMESTAMP
               WHERE id = ? AND status = 'confirmed'`
	return r.transition(ctx, id, q, id)
}

// MarkPaid sets the paid flag on a booking that is not cancelled.
// Marking an already paid booking succeeds.
func (r *BookingRepo) MarkPaid(ctx context.Context, id uint64) error {
	const q = `UPDATE bookings SET paid = 1, updated_at = CURRENT_TIMESTAMP
               WHERE id = ? AND status <> 'cancelled' AND paid = 0`
	err := r.transition(ctx, id, q, id)
	if errors.Is(err, ErrConflict) {
		b, gerr := r.GetByID(ctx, id)
		if gerr != nil {
			return gerr
		}
		if b.Paid && b.Status != model.BookingCancelled {
			return nil
		}
	}
	return err
}

// transition runs a guarded UPDATE.  When it touches no row the booking
// is looked up to tell a missing row from one in the wrong state.
func (r *BookingRepo) transition(ctx context.Context, id uint64, q string, args ...any) error {
	result, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrConflict
}
