// Package service implements business logic, validation, and orchestration
// between the conversation frontend and the repository layer.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/spot-booking/internal/apperrors"
	"github.com/Shivanand-hulikatti/spot-booking/internal/listing"
	"github.com/Shivanand-hulikatti/spot-booking/internal/metrics"
	"github.com/Shivanand-hulikatti/spot-booking/internal/model"
	"github.com/Shivanand-hulikatti/spot-booking/internal/notify"
	"github.com/Shivanand-hulikatti/spot-booking/internal/repository"
	"github.com/Shivanand-hulikatti/spot-booking/internal/session"
)

// UserStore persists users.
type UserStore interface {
	Register(ctx context.Context, externalID int64, fullName string, username *string) (*model.User, error)
	GetByExternalID(ctx context.Context, externalID int64) (*model.User, error)
	IsAdmin(ctx context.Context, externalID int64) (bool, error)
	List(ctx context.Context) ([]model.User, error)
}

// SpotStore persists spots.
type SpotStore interface {
	Create(ctx context.Context, ownerID int64, label, address string, pricePerHour int) (*model.Spot, error)
	GetByID(ctx context.Context, id int64) (*model.SpotView, error)
	ListAvailable(ctx context.Context) ([]model.SpotView, error)
	ListAll(ctx context.Context) ([]model.SpotView, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]model.SpotView, error)
}

// BookingStore persists bookings. Book must flip availability atomically.
type BookingStore interface {
	Book(ctx context.Context, userID, spotID int64, hours int) (*model.Booking, *model.SpotView, error)
	ListByUser(ctx context.Context, userID int64) ([]model.BookingView, error)
	ListAll(ctx context.Context) ([]model.BookingView, error)
}

// StatsStore computes admin aggregates.
type StatsStore interface {
	SpotStats(ctx context.Context) ([]model.SpotStats, error)
	Totals(ctx context.Context) (*model.Stats, error)
}

// BookingConfirmation is everything the frontend needs after a booking: the
// booking itself, the spot and owner for the confirmation message, and the
// owner notification.
type BookingConfirmation struct {
	Booking      model.Booking     `json:"booking"`
	Spot         model.SpotView    `json:"spot"`
	Notification notify.SpotBooked `json:"notification"`
}

// ListingReply describes where a listing form stands after a step.
type ListingReply struct {
	State  string      `json:"state"`
	Prompt string      `json:"prompt,omitempty"`
	Spot   *model.Spot `json:"spot,omitempty"`
}

// ParkingService orchestrates registration, listing and booking.
type ParkingService struct {
	users      UserStore
	spots      SpotStore
	bookings   BookingStore
	sessions   *session.Store
	dispatcher notify.Dispatcher
	metrics    *metrics.Metrics
	log        *zap.Logger
}

// NewParkingService constructs a ParkingService with its dependencies.
func NewParkingService(
	users UserStore,
	spots SpotStore,
	bookings BookingStore,
	sessions *session.Store,
	dispatcher notify.Dispatcher,
	m *metrics.Metrics,
	log *zap.Logger,
) *ParkingService {
	return &ParkingService{
		users:      users,
		spots:      spots,
		bookings:   bookings,
		sessions:   sessions,
		dispatcher: dispatcher,
		metrics:    m,
		log:        log,
	}
}

// Register creates the user or refreshes their name and handle.
func (s *ParkingService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	if req.ExternalID <= 0 {
		return nil, apperrors.Validation("external_id must be a positive integer")
	}
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		return nil, apperrors.Validation("full_name is required")
	}

	var username *string
	if req.Username != nil {
		if h := strings.TrimPrefix(strings.TrimSpace(*req.Username), "@"); h != "" {
			username = &h
		}
	}

	u, err := s.users.Register(ctx, req.ExternalID, req.FullName, username)
	if err != nil {
		return nil, apperrors.Internal("failed to register user", err)
	}
	return u, nil
}

// GetUser returns the registered user or NotRegistered.
func (s *ParkingService) GetUser(ctx context.Context, externalID int64) (*model.User, error) {
	u, err := s.users.GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotRegistered()
		}
		return nil, apperrors.Internal("failed to load user", err)
	}
	return u, nil
}

// IsAdmin reports whether externalID carries the admin flag. Unknown users
// are not admins.
func (s *ParkingService) IsAdmin(ctx context.Context, externalID int64) (bool, error) {
	ok, err := s.users.IsAdmin(ctx, externalID)
	if err != nil {
		return false, apperrors.Internal("failed to check admin", err)
	}
	return ok, nil
}

// StartListing opens a fresh listing form for a registered user, replacing
// any form already in progress.
func (s *ParkingService) StartListing(ctx context.Context, externalID int64) (*ListingReply, error) {
	u, err := s.GetUser(ctx, externalID)
	if err != nil {
		return nil, err
	}

	state, eff := listing.Start()
	s.sessions.Put(externalID, session.Session{OwnerID: u.ID, State: state})
	s.metrics.OpenSessions.Set(float64(s.sessions.Len()))

	return &ListingReply{State: listing.StateName(state), Prompt: eff.Prompt}, nil
}

// ListingInput feeds one answer, or a cancel, into the user's open listing
// form. A validation failure leaves the form on the same step. The session is
// taken out of the store for the duration of the step, so concurrent inputs
// for one user cannot commit the same draft twice.
func (s *ParkingService) ListingInput(ctx context.Context, externalID int64, in listing.Input) (*ListingReply, error) {
	sess, ok := s.sessions.Take(externalID)
	if !ok {
		return nil, apperrors.NotFound("listing in progress")
	}

	next, eff, err := listing.Next(sess.State, in)
	if err != nil {
		s.sessions.Put(externalID, sess)
		return nil, err
	}

	switch eff.Kind {
	case listing.EffectCommit:
		spot, err := s.commit(ctx, sess.OwnerID, *eff.Draft)
		if err != nil {
			s.sessions.Put(externalID, sess)
			return nil, err
		}
		s.metrics.OpenSessions.Set(float64(s.sessions.Len()))
		return &ListingReply{State: listing.StateName(next), Spot: spot}, nil

	case listing.EffectCancelled:
		s.metrics.ListingsCancelled.Inc()
		s.metrics.OpenSessions.Set(float64(s.sessions.Len()))
		return &ListingReply{State: listing.StateName(nil)}, nil

	default:
		sess.State = next
		s.sessions.Put(externalID, sess)
		return &ListingReply{State: listing.StateName(next), Prompt: eff.Prompt}, nil
	}
}

// CancelListing discards the user's open form. It reports false when there
// was nothing to cancel.
func (s *ParkingService) CancelListing(ctx context.Context, externalID int64) bool {
	_, err := s.ListingInput(ctx, externalID, listing.Cancel())
	return err == nil
}

func (s *ParkingService) commit(ctx context.Context, ownerID int64, d listing.Draft) (*model.Spot, error) {
	spot, err := s.spots.Create(ctx, ownerID, d.Label, d.Address, d.PricePerHour)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInvalidPrice):
			return nil, apperrors.Validation("price must be a positive whole number")
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NotRegistered()
		}
		return nil, apperrors.Internal("failed to save spot", err)
	}
	s.metrics.SpotsListedTotal.Inc()
	s.log.Info("spot listed",
		zap.Int64("spot_id", spot.ID),
		zap.Int64("owner_id", ownerID),
		zap.Int("price_per_hour", spot.PricePerHour),
	)
	return spot, nil
}

// ListAvailable returns bookable spots, most recent first.
func (s *ParkingService) ListAvailable(ctx context.Context) ([]model.SpotView, error) {
	spots, err := s.spots.ListAvailable(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to list spots", err)
	}
	return spots, nil
}

// GetSpot returns a single spot with its owner.
func (s *ParkingService) GetSpot(ctx context.Context, id int64) (*model.SpotView, error) {
	if id <= 0 {
		return nil, apperrors.NotFound("spot")
	}
	spot, err := s.spots.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("spot")
		}
		return nil, apperrors.Internal("failed to get spot", err)
	}
	return spot, nil
}

// MySpots returns the caller's listed spots.
func (s *ParkingService) MySpots(ctx context.Context, externalID int64) ([]model.SpotView, error) {
	u, err := s.GetUser(ctx, externalID)
	if err != nil {
		return nil, err
	}
	spots, err := s.spots.ListByOwner(ctx, u.ID)
	if err != nil {
		return nil, apperrors.Internal("failed to list spots", err)
	}
	return spots, nil
}

// MyBookings returns the caller's bookings.
func (s *ParkingService) MyBookings(ctx context.Context, externalID int64) ([]model.BookingView, error) {
	u, err := s.GetUser(ctx, externalID)
	if err != nil {
		return nil, err
	}
	bookings, err := s.bookings.ListByUser(ctx, u.ID)
	if err != nil {
		return nil, apperrors.Internal("failed to list bookings", err)
	}
	return bookings, nil
}

// Book reserves spotID for the caller. The availability check and flip
// happen in one storage transaction. The owner notification is dispatched
// after commit and its failure never undoes the booking.
func (s *ParkingService) Book(ctx context.Context, externalID, spotID int64, hours int) (*BookingConfirmation, error) {
	if hours <= 0 {
		s.metrics.BookingsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, apperrors.Validation("hours must be a positive integer")
	}

	u, err := s.GetUser(ctx, externalID)
	if err != nil {
		s.metrics.BookingsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, err
	}

	booking, spot, err := s.bookings.Book(ctx, u.ID, spotID, hours)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			s.metrics.BookingsTotal.WithLabelValues(metrics.OutcomeNotFound).Inc()
			return nil, apperrors.NotFound("spot")
		case errors.Is(err, repository.ErrSpotUnavailable):
			s.metrics.BookingsTotal.WithLabelValues(metrics.OutcomeAlreadyBooked).Inc()
			return nil, apperrors.AlreadyBooked()
		case errors.Is(err, repository.ErrInvalidHours):
			s.metrics.BookingsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
			return nil, apperrors.Validation("booking is too long for this spot")
		}
		s.metrics.BookingsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		s.log.Error("booking failed", zap.Int64("spot_id", spotID), zap.Error(err))
		return nil, apperrors.Internal("failed to book spot", err)
	}
	s.metrics.BookingsTotal.WithLabelValues(metrics.OutcomeBooked).Inc()
	s.log.Info("spot booked",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("spot_id", spotID),
		zap.Int64("user_id", u.ID),
		zap.Int("hours", hours),
		zap.Int("total_price", booking.TotalPrice),
	)

	event := notify.NewSpotBooked(notify.SpotBooked{
		OwnerExternalID: spot.OwnerExternalID,
		SpotID:          spot.ID,
		SpotLabel:       spot.Label,
		BookerName:      u.FullName,
		BookerUsername:  u.Handle(),
		Hours:           booking.Hours,
		TotalPrice:      booking.TotalPrice,
		BookedAt:        booking.CreatedAt.UTC(),
	})
	s.dispatch(ctx, event)

	return &BookingConfirmation{Booking: *booking, Spot: *spot, Notification: event}, nil
}

// dispatch outlives the request context, bounded by its own timeout.
func (s *ParkingService) dispatch(ctx context.Context, e notify.SpotBooked) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := s.dispatcher.Dispatch(ctx, e); err != nil {
		s.metrics.NotificationsTotal.WithLabelValues(metrics.ResultFailed).Inc()
		s.log.Warn("owner notification failed",
			zap.String("event_id", e.EventID),
			zap.Int64("owner_external_id", e.OwnerExternalID),
			zap.Error(err),
		)
		return
	}
	s.metrics.NotificationsTotal.WithLabelValues(metrics.ResultSent).Inc()
}

// SweepSessions drops listing forms idle for longer than ttl.
func (s *ParkingService) SweepSessions(now time.Time, ttl time.Duration) int {
	removed := s.sessions.Sweep(now, ttl)
	s.metrics.OpenSessions.Set(float64(s.sessions.Len()))
	return removed
}
