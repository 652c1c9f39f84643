package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/coworking-booking/internal/model"
)

var bookingCols = []string{"id", "resource_id", "user_id", "start_time", "end_time", "status", "price", "paid", "cancelled_at", "created_at", "updated_at"}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func bookingRow(rows *sqlmock.Rows, id int64, status string, start time.Time) *sqlmock.Rows {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return rows.AddRow(id, int64(3), int64(9), start, start.Add(time.Hour), status, "12.50", false, nil, now, now)
}

func TestBookingRepoCreateReadsRowBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(uint64(3), uint64(9), start, start.Add(time.Hour), sqlmock.AnyArg(), sqlmock.AnyArg(), false).
		WillReturnResult(sqlmock.NewResult(41, 1))
	mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id = \?`).
		WithArgs(uint64(41)).
		WillReturnRows(bookingRow(sqlmock.NewRows(bookingCols), 41, "confirmed", start))

	b := &model.Booking{
		ResourceID: 3, UserID: 9, StartTime: start, EndTime: start.Add(time.Hour),
		Status: model.BookingConfirmed, Price: decimal.RequireFromString("12.50"),
	}
	require.NoError(t, repo.Create(context.Background(), b))
	assert.Equal(t, uint64(41), b.ID)
	assert.Equal(t, model.BookingConfirmed, b.Status)
	assert.Equal(t, "12.50", b.Price.StringFixed(2))
	assert.False(t, b.CancelledAt.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepoGetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT (.+) FROM bookings").WithArgs(uint64(5)).WillReturnError(sql.ErrNoRows)

	_, err := NewBookingRepo(db).GetByID(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookingRepoListActiveByResourceExcludesCancelled(t *testing.T) {
	db, mock := newMock(t)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(bookingCols)
	bookingRow(rows, 1, "confirmed", start)
	bookingRow(rows, 2, "completed", start.Add(2*time.Hour))
	mock.ExpectQuery(`FROM bookings\s+WHERE resource_id = \? AND status <> 'cancelled'`).
		WithArgs(uint64(3)).
		WillReturnRows(rows)

	got, err := NewBookingRepo(db).ListActiveByResource(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.BookingCompleted, got[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepoListBuildsFilter(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE resource_id = \? AND status = \?`).
		WithArgs(uint64(3), "confirmed").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(`FROM bookings WHERE resource_id = \? AND status = \? ORDER BY start_time LIMIT \? OFFSET \?`).
		WithArgs(uint64(3), "confirmed", 50, 0).
		WillReturnRows(bookingRow(sqlmock.NewRows(bookingCols), 7, "confirmed", time.Now().UTC()))

	items, total, err := NewBookingRepo(db).List(context.Background(), BookingFilter{ResourceID: 3, Status: model.BookingConfirmed})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, uint64(7), items[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepoCancel(t *testing.T) {
	at := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	t.Run("confirmed booking", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(`UPDATE bookings SET status = 'cancelled'`).
			WithArgs(at, uint64(4)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, NewBookingRepo(db).Cancel(context.Background(), 4, at))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already cancelled", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(`UPDATE bookings SET status = 'cancelled'`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`FROM bookings WHERE id = \?`).
			WithArgs(uint64(4)).
			WillReturnRows(bookingRow(sqlmock.NewRows(bookingCols), 4, "cancelled", at))
		assert.ErrorIs(t, NewBookingRepo(db).Cancel(context.Background(), 4, at), ErrConflict)
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(`UPDATE bookings SET status = 'cancelled'`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`FROM bookings WHERE id = \?`).WillReturnError(sql.ErrNoRows)
		assert.ErrorIs(t, NewBookingRepo(db).Cancel(context.Background(), 4, at), ErrNotFound)
	})
}

func TestBookingRepoMarkPaidIsIdempotent(t *testing.T) {
	db, mock := newMock(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(`UPDATE bookings SET paid = 1`).
		WithArgs(uint64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	paidRow := sqlmock.NewRows(bookingCols).
		AddRow(int64(4), int64(3), int64(9), now, now.Add(time.Hour), "confirmed", "10.00", true, nil, now, now)
	mock.ExpectQuery(`FROM bookings WHERE id = \?`).WillReturnRows(paidRow)
	mock.ExpectQuery(`FROM bookings WHERE id = \?`).WillReturnRows(
		sqlmock.NewRows(bookingCols).
			AddRow(int64(4), int64(3), int64(9), now, now.Add(time.Hour), "confirmed", "10.00", true, nil, now, now))

	assert.NoError(t, NewBookingRepo(db).MarkPaid(context.Background(), 4))
	assert.NoError(t, mock.ExpectationsWereMet())
}
