package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/spot-booking/internal/model"
)

const spotViewSelect = `
	SELECT s.id, s.owner_id, s.label, s.address, s.price_per_hour, s.is_available, s.created_at,
	       u.full_name, u.external_id, u.username
	FROM spots s
	JOIN users u ON u.id = s.owner_id`

const mostRecentSpotsFirst = ` ORDER BY s.created_at DESC, s.id DESC`

// SpotRepository handles persistence for parking spots.
type SpotRepository struct {
	db *pgxpool.Pool
}

// NewSpotRepository constructs a SpotRepository.
func NewSpotRepository(db *pgxpool.Pool) *SpotRepository {
	return &SpotRepository{db: db}
}

func scanSpotView(row pgx.Row) (*model.SpotView, error) {
	var v model.SpotView
	err := row.Scan(
		&v.ID, &v.OwnerID, &v.Label, &v.Address, &v.PricePerHour, &v.IsAvailable, &v.CreatedAt,
		&v.OwnerName, &v.OwnerExternalID, &v.OwnerUsername,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Create inserts a new, available spot for ownerID.
func (r *SpotRepository) Create(ctx context.Context, ownerID int64, label, address string, pricePerHour int) (*model.Spot, error) {
	if pricePerHour <= 0 {
		return nil, ErrInvalidPrice
	}

	s := model.Spot{
		OwnerID:      ownerID,
		Label:        label,
		Address:      address,
		PricePerHour: pricePerHour,
	}
	err := r.db.QueryRow(ctx,
		`INSERT INTO spots (owner_id, label, address, price_per_hour)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, is_available, created_at`,
		ownerID, label, address, pricePerHour,
	).Scan(&s.ID, &s.IsAvailable, &s.CreatedAt)
	if err != nil {
		switch pgErrorCode(err) {
		case codeForeignKeyViolation:
			return nil, fmt.Errorf("owner %d: %w", ownerID, ErrNotFound)
		case codeCheckViolation:
			return nil, ErrInvalidPrice
		}
		return nil, fmt.Errorf("insert spot: %w", err)
	}
	return &s, nil
}

// GetByID returns a spot joined with its owner, or ErrNotFound.
func (r *SpotRepository) GetByID(ctx context.Context, id int64) (*model.SpotView, error) {
	v, err := scanSpotView(r.db.QueryRow(ctx, spotViewSelect+` WHERE s.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get spot: %w", err)
	}
	return v, nil
}

// ListAvailable returns bookable spots, most recent first.
func (r *SpotRepository) ListAvailable(ctx context.Context) ([]model.SpotView, error) {
	return r.list(ctx, spotViewSelect+` WHERE s.is_available`+mostRecentSpotsFirst)
}

// ListAll returns every spot including booked ones, most recent first.
func (r *SpotRepository) ListAll(ctx context.Context) ([]model.SpotView, error) {
	return r.list(ctx, spotViewSelect+mostRecentSpotsFirst)
}

// ListByOwner returns the spots listed by ownerID, most recent first.
func (r *SpotRepository) ListByOwner(ctx context.Context, ownerID int64) ([]model.SpotView, error) {
	return r.list(ctx, spotViewSelect+` WHERE s.owner_id = $1`+mostRecentSpotsFirst, ownerID)
}

func (r *SpotRepository) list(ctx context.Context, query string, args ...any) ([]model.SpotView, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list spots: %w", err)
	}
	defer rows.Close()

	var spots []model.SpotView
	for rows.Next() {
		v, err := scanSpotView(rows)
		if err != nil {
			return nil, fmt.Errorf("scan spot: %w", err)
		}
		spots = append(spots, *v)
	}
	return spots, rows.Err()
}
