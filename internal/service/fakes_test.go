package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/coworking-booking/internal/model"
	"github.com/iliyamo/coworking-booking/internal/queue"
	"github.com/iliyamo/coworking-booking/internal/repository"
)

type memResources struct {
	mu    sync.Mutex
	items map[uint64]*model.Resource
	next  uint64
}

func newMemResources(rs ...model.Resource) *memResources {
	m := &memResources{items: map[uint64]*model.Resource{}}
	for i := range rs {
		r := rs[i]
		m.items[r.ID] = &r
		if r.ID > m.next {
			m.next = r.ID
		}
	}
	return m
}

func (m *memResources) GetByID(_ context.Context, id uint64) (*model.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memResources) Create(_ context.Context, res *model.Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.items {
		if r.Name == res.Name {
			return repository.ErrNameExists
		}
	}
	m.next++
	res.ID = m.next
	cp := *res
	m.items[res.ID] = &cp
	return nil
}

func (m *memResources) List(_ context.Context, activeOnly bool) ([]model.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Resource{}
	for _, r := range m.items {
		if activeOnly && !r.IsActive {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memResources) Update(_ context.Context, res *model.Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[res.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *res
	m.items[res.ID] = &cp
	return nil
}

func (m *memResources) SetActive(_ context.Context, id uint64, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.IsActive = active
	return nil
}

// memBookings mirrors the SQL repository, including the rule that the
// active listings never return cancelled rows.
type memBookings struct {
	mu    sync.Mutex
	items []*model.Booking

	// listDelay stretches the gap between reading the active bookings
	// and inserting, widening the check-then-create race.
	listDelay time.Duration
}

func (m *memBookings) Create(_ context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = uint64(len(m.items) + 1)
	cp := *b
	m.items = append(m.items, &cp)
	return nil
}

func (m *memBookings) GetByID(_ context.Context, id uint64) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == 0 || id > uint64(len(m.items)) {
		return nil, repository.ErrNotFound
	}
	cp := *m.items[id-1]
	return &cp, nil
}

func (m *memBookings) ListActiveByResource(_ context.Context, resourceID uint64) ([]model.Booking, error) {
	out := m.filter(func(b *model.Booking) bool { return b.ResourceID == resourceID && b.Active() })
	if m.listDelay > 0 {
		time.Sleep(m.listDelay)
	}
	return out, nil
}

func (m *memBookings) ListActiveByResourceBetween(_ context.Context, resourceID uint64, from, to time.Time) ([]model.Booking, error) {
	return m.filter(func(b *model.Booking) bool {
		return b.ResourceID == resourceID && b.Active() && b.StartTime.Before(to) && b.EndTime.After(from)
	}), nil
}

func (m *memBookings) ListByUser(_ context.Context, userID uint64) ([]model.Booking, error) {
	return m.filter(func(b *model.Booking) bool { return b.UserID == userID }), nil
}

func (m *memBookings) List(_ context.Context, f repository.BookingFilter) ([]model.Booking, int64, error) {
	out := m.filter(func(b *model.Booking) bool {
		return (f.ResourceID == 0 || b.ResourceID == f.ResourceID) &&
			(f.UserID == 0 || b.UserID == f.UserID) &&
			(f.Status == "" || b.Status == f.Status)
	})
	return out, int64(len(out)), nil
}

func (m *memBookings) filter(keep func(*model.Booking) bool) []model.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Booking{}
	for _, b := range m.items {
		if keep(b) {
			out = append(out, *b)
		}
	}
	return out
}

func (m *memBookings) update(id uint64, guard func(*model.Booking) bool, apply func(*model.Booking)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == 0 || id > uint64(len(m.items)) {
		return repository.ErrNotFound
	}
	b := m.items[id-1]
	if !guard(b) {
		return repository.ErrConflict
	}
	apply(b)
	return nil
}

func (m *memBookings) Cancel(_ context.Context, id uint64, at time.Time) error {
	return m.update(id,
		func(b *model.Booking) bool { return b.Status == model.BookingConfirmed },
		func(b *model.Booking) {
			b.Status = model.BookingCancelled
			b.CancelledAt.SetValid(at)
		})
}

func (m *memBookings) Complete(_ context.Context, id uint64) error {
	return m.update(id,
		func(b *model.Booking) bool { return b.Status == model.BookingConfirmed },
		func(b *model.Booking) { b.Status = model.BookingCompleted })
}

func (m *memBookings) MarkPaid(_ context.Context, id uint64) error {
	return m.update(id,
		func(b *model.Booking) bool { return b.Status != model.BookingCancelled },
		func(b *model.Booking) { b.Paid = true })
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func repositoryFilter(resourceID uint64) repository.BookingFilter {
	return repository.BookingFilter{ResourceID: resourceID}
}
