package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/coworking-booking/internal/booking"
	"github.com/iliyamo/coworking-booking/internal/config"
	"github.com/iliyamo/coworking-booking/internal/lock"
	"github.com/iliyamo/coworking-booking/internal/queue"
)

func redisLocker(t *testing.T) lock.Locker {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return lock.New(config.LockConfig{
		Enabled:       true,
		TTL:           5 * time.Second,
		WaitTimeout:   5 * time.Second,
		RetryInterval: 5 * time.Millisecond,
		Prefix:        "test:lock",
	}, rdb)
}

func TestConcurrentCreateConfirmsOneOverlappingBooking(t *testing.T) {
	s, bookings, _ := fixture(t, WithLocker(redisLocker(t)))
	bookings.listDelay = 20 * time.Millisecond

	const n = 8
	var (
		wg        sync.WaitGroup
		start     = make(chan struct{})
		confirmed atomic.Int32
		errs      = make(chan error, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			// Every window overlaps every other one: 09:00-10:00, 09:05-10:05, ...
			_, err := s.Create(context.Background(), CreateRequest{
				ResourceID: 1, UserID: uint64(i + 1),
				Start: at(9, i*5), End: at(10, i*5),
			})
			if err != nil {
				errs <- err
				return
			}
			confirmed.Add(1)
		}(i)
	}
	close(start)
	wg.Wait()
	close(errs)

	assert.Equal(t, int32(1), confirmed.Load())
	for err := range errs {
		assert.ErrorIs(t, err, booking.ErrConflict)
	}
	active, err := bookings.ListActiveByResource(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestConcurrentCreateKeepsDisjointWindows(t *testing.T) {
	s, bookings, _ := fixture(t, WithLocker(redisLocker(t)))
	bookings.listDelay = 5 * time.Millisecond

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Create(context.Background(), CreateRequest{
				ResourceID: 1, UserID: 1, Start: at(9+i, 0), End: at(10+i, 0),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Len(t, bookings.items, 4)
}

// heldLocker records whether its lock is currently held.
type heldLocker struct{ held atomic.Bool }

func (l *heldLocker) Acquire(context.Context, uint64) (lock.Unlock, error) {
	l.held.Store(true)
	return func(context.Context) error { l.held.Store(false); return nil }, nil
}

type lockAwarePublisher struct {
	l         *heldLocker
	underLock bool
	published int
}

func (p *lockAwarePublisher) Publish(context.Context, queue.BookingEvent) error {
	p.published++
	p.underLock = p.underLock || p.l.held.Load()
	return nil
}

func TestCreatePublishesAfterReleasingLock(t *testing.T) {
	l := &heldLocker{}
	pub := &lockAwarePublisher{l: l}
	s, _, _ := fixture(t, WithLocker(l), WithPublisher(pub))

	_, err := create(t, s, 1, alice, at(9, 0), at(10, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, pub.published)
	assert.False(t, pub.underLock)
}
