package service

import (
	"context"

	"github.com/Shivanand-hulikatti/spot-booking/internal/apperrors"
	"github.com/Shivanand-hulikatti/spot-booking/internal/model"
)

// AdminService serves the read-only admin views. Every call recomputes
// from storage.
type AdminService struct {
	users    UserStore
	spots    SpotStore
	bookings BookingStore
	stats    StatsStore
}

// NewAdminService constructs an AdminService with its dependencies.
func NewAdminService(users UserStore, spots SpotStore, bookings BookingStore, stats StatsStore) *AdminService {
	return &AdminService{users: users, spots: spots, bookings: bookings, stats: stats}
}

// Stats returns user, spot, booking, revenue and admin totals.
func (s *AdminService) Stats(ctx context.Context) (*model.Stats, error) {
	st, err := s.stats.Totals(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to compute stats", err)
	}
	return st, nil
}

// Users lists every user, newest first.
func (s *AdminService) Users(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to list users", err)
	}
	return users, nil
}

// Spots lists every spot, booked or not, with its booking count and
// earnings.
func (s *AdminService) Spots(ctx context.Context) ([]model.SpotStats, error) {
	spots, err := s.stats.SpotStats(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to list spots", err)
	}
	return spots, nil
}

// AllSpots lists every spot without aggregates.
func (s *AdminService) AllSpots(ctx context.Context) ([]model.SpotView, error) {
	spots, err := s.spots.ListAll(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to list spots", err)
	}
	return spots, nil
}

// Bookings lists every booking with client, spot and owner.
func (s *AdminService) Bookings(ctx context.Context) ([]model.BookingView, error) {
	bookings, err := s.bookings.ListAll(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to list bookings", err)
	}
	return bookings, nil
}
