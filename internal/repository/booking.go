package repository

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/spot-booking/internal/model"
)

// BookingRepository handles persistence for bookings.
type BookingRepository struct {
	db *pgxpool.Pool
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{db: db}
}

// Book reserves spotID for userID inside a single transaction.
//
// The spot row is locked with SELECT … FOR UPDATE before its availability is
// read, so concurrent callers for the same spot queue behind the first one and
// observe is_available = false once it commits. The availability flip is
// additionally conditional (WHERE is_available) and the bookings table carries
// a partial unique index on active bookings per spot, so a second active
// booking for one spot cannot be committed by any path.
func (r *BookingRepository) Book(ctx context.Context, userID, spotID int64, hours int) (*model.Booking, *model.SpotView, error) {
	if hours <= 0 {
		return nil, nil, ErrInvalidHours
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	// No-op once the transaction has been committed.
	defer func() { _ = tx.Rollback(ctx) }()

	spot, err := scanSpotView(tx.QueryRow(ctx, spotViewSelect+` WHERE s.id = $1 FOR UPDATE OF s`, spotID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("lock spot row: %w", err)
	}
	if !spot.IsAvailable {
		return nil, nil, ErrSpotUnavailable
	}

	total := int64(spot.PricePerHour) * int64(hours)
	if total > math.MaxInt32 {
		return nil, nil, ErrInvalidHours
	}

	b := model.Booking{
		UserID:     userID,
		SpotID:     spotID,
		Hours:      hours,
		TotalPrice: int(total),
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO bookings (user_id, spot_id, hours, total_price, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, status, created_at`,
		userID, spotID, hours, b.TotalPrice, model.BookingStatusActive,
	).Scan(&b.ID, &b.Status, &b.CreatedAt)
	if err != nil {
		switch pgErrorCode(err) {
		case codeUniqueViolation:
			return nil, nil, ErrSpotUnavailable
		case codeForeignKeyViolation:
			return nil, nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		return nil, nil, fmt.Errorf("insert booking: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE spots SET is_available = FALSE WHERE id = $1 AND is_available`,
		spotID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("mark spot unavailable: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return nil, nil, ErrSpotUnavailable
	}

	if err := tx.Commit(ctx); err != nil {
		if pgErrorCode(err) == codeUniqueViolation {
			return nil, nil, ErrSpotUnavailable
		}
		return nil, nil, fmt.Errorf("commit transaction: %w", err)
	}

	spot.IsAvailable = false
	return &b, spot, nil
}

const bookingViewSelect = `
	SELECT b.id, b.user_id, b.spot_id, b.hours, b.total_price, b.status, b.created_at,
	       s.label, s.address, s.price_per_hour, o.full_name, c.full_name
	FROM bookings b
	JOIN spots s ON s.id = b.spot_id
	JOIN users o ON o.id = s.owner_id
	JOIN users c ON c.id = b.user_id`

const mostRecentBookingsFirst = ` ORDER BY b.created_at DESC, b.id DESC`

// ListByUser returns userID's bookings with spot and owner data, most recent first.
func (r *BookingRepository) ListByUser(ctx context.Context, userID int64) ([]model.BookingView, error) {
	return r.list(ctx, bookingViewSelect+` WHERE b.user_id = $1`+mostRecentBookingsFirst, userID)
}

// ListAll returns every booking with client, spot and owner data, most recent first.
func (r *BookingRepository) ListAll(ctx context.Context) ([]model.BookingView, error) {
	return r.list(ctx, bookingViewSelect+mostRecentBookingsFirst)
}

func (r *BookingRepository) list(ctx context.Context, query string, args ...any) ([]model.BookingView, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.BookingView
	for rows.Next() {
		var v model.BookingView
		err := rows.Scan(
			&v.ID, &v.UserID, &v.SpotID, &v.Hours, &v.TotalPrice, &v.Status, &v.CreatedAt,
			&v.SpotLabel, &v.SpotAddress, &v.PricePerHour, &v.OwnerName, &v.ClientName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, v)
	}
	return bookings, rows.Err()
}
