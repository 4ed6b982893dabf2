package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/spot-booking/internal/model"
	"github.com/Shivanand-hulikatti/spot-booking/internal/repository"
)

// memStore is an in-memory stand-in for the PostgreSQL repositories. One
// mutex guards everything, which makes Book's check-and-flip atomic.
type memStore struct {
	mu       sync.Mutex
	clock    time.Time
	nextID   int64
	users    map[int64]*model.User // by external id
	spots    map[int64]*model.Spot
	bookings []model.Booking

	// failCreate, when set, is returned by Create.
	failCreate error
}

func newMemStore() *memStore {
	return &memStore{
		clock: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
		users: map[int64]*model.User{},
		spots: map[int64]*model.Spot{},
	}
}

func (m *memStore) tick() (int64, time.Time) {
	m.nextID++
	m.clock = m.clock.Add(time.Second)
	return m.nextID, m.clock
}

func (m *memStore) userByID(id int64) *model.User {
	for _, u := range m.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (m *memStore) Register(_ context.Context, externalID int64, fullName string, username *string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[externalID]; ok {
		u.FullName = fullName
		u.Username = username
		cp := *u
		return &cp, nil
	}
	id, now := m.tick()
	u := &model.User{ID: id, ExternalID: externalID, FullName: fullName, Username: username, CreatedAt: now}
	m.users[externalID] = u
	cp := *u
	return &cp, nil
}

func (m *memStore) GetByExternalID(_ context.Context, externalID int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[externalID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) IsAdmin(_ context.Context, externalID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[externalID]
	return ok && u.IsAdmin, nil
}

func (m *memStore) List(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) Create(_ context.Context, ownerID int64, label, address string, price int) (*model.Spot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return nil, m.failCreate
	}
	if price <= 0 {
		return nil, repository.ErrInvalidPrice
	}
	if m.userByID(ownerID) == nil {
		return nil, repository.ErrNotFound
	}
	id, now := m.tick()
	s := &model.Spot{ID: id, OwnerID: ownerID, Label: label, Address: address, PricePerHour: price, IsAvailable: true, CreatedAt: now}
	m.spots[id] = s
	cp := *s
	return &cp, nil
}

func (m *memStore) view(s *model.Spot) model.SpotView {
	o := m.userByID(s.OwnerID)
	return model.SpotView{Spot: *s, OwnerName: o.FullName, OwnerExternalID: o.ExternalID, OwnerUsername: o.Username}
}

func (m *memStore) GetByID(_ context.Context, id int64) (*model.SpotView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.spots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	v := m.view(s)
	return &v, nil
}

func (m *memStore) spotList(keep func(*model.Spot) bool) []model.SpotView {
	var out []model.SpotView
	for _, s := range m.spots {
		if keep(s) {
			out = append(out, m.view(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *memStore) ListAvailable(_ context.Context) ([]model.SpotView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spotList(func(s *model.Spot) bool { return s.IsAvailable }), nil
}

func (m *memStore) ListAll(_ context.Context) ([]model.SpotView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spotList(func(*model.Spot) bool { return true }), nil
}

func (m *memStore) ListByOwner(_ context.Context, ownerID int64) ([]model.SpotView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spotList(func(s *model.Spot) bool { return s.OwnerID == ownerID }), nil
}

func (m *memStore) Book(_ context.Context, userID, spotID int64, hours int) (*model.Booking, *model.SpotView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hours <= 0 {
		return nil, nil, repository.ErrInvalidHours
	}
	s, ok := m.spots[spotID]
	if !ok {
		return nil, nil, repository.ErrNotFound
	}
	if !s.IsAvailable {
		return nil, nil, repository.ErrSpotUnavailable
	}
	if m.userByID(userID) == nil {
		return nil, nil, repository.ErrNotFound
	}
	id, now := m.tick()
	b := model.Booking{
		ID: id, UserID: userID, SpotID: spotID, Hours: hours,
		TotalPrice: s.PricePerHour * hours, Status: model.BookingStatusActive, CreatedAt: now,
	}
	m.bookings = append(m.bookings, b)
	s.IsAvailable = false
	v := m.view(s)
	return &b, &v, nil
}

func (m *memStore) bookingViews(keep func(model.Booking) bool) []model.BookingView {
	var out []model.BookingView
	for _, b := range m.bookings {
		if !keep(b) {
			continue
		}
		s := m.spots[b.SpotID]
		out = append(out, model.BookingView{
			Booking:      b,
			SpotLabel:    s.Label,
			SpotAddress:  s.Address,
			PricePerHour: s.PricePerHour,
			OwnerName:    m.userByID(s.OwnerID).FullName,
			ClientName:   m.userByID(b.UserID).FullName,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *memStore) ListByUser(_ context.Context, userID int64) ([]model.BookingView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookingViews(func(b model.Booking) bool { return b.UserID == userID }), nil
}

// memBookings adapts memStore to BookingStore, whose ListAll collides with
// SpotStore's.
type memBookings struct{ *memStore }

func (b memBookings) ListAll(_ context.Context) ([]model.BookingView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bookingViews(func(model.Booking) bool { return true }), nil
}

func (m *memStore) SpotStats(_ context.Context) ([]model.SpotStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.SpotStats
	for _, v := range m.spotList(func(*model.Spot) bool { return true }) {
		st := model.SpotStats{SpotView: v}
		for _, b := range m.bookings {
			if b.SpotID == v.ID {
				st.BookingsCount++
				st.TotalEarnings += int64(b.TotalPrice)
			}
		}
		out = append(out, st)
	}
	return out, nil
}

func (m *memStore) Totals(_ context.Context) (*model.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := &model.Stats{
		Users:    int64(len(m.users)),
		Spots:    int64(len(m.spots)),
		Bookings: int64(len(m.bookings)),
	}
	for _, b := range m.bookings {
		st.Revenue += int64(b.TotalPrice)
	}
	for _, u := range m.users {
		if u.IsAdmin {
			st.Admins++
		}
	}
	return st, nil
}

func (m *memStore) setAdmin(externalID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[externalID].IsAdmin = true
}
