package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/spot-booking/internal/model"
)

// StatsRepository runs read-only aggregations for the admin views.
type StatsRepository struct {
	db *pgxpool.Pool
}

// NewStatsRepository constructs a StatsRepository.
func NewStatsRepository(db *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{db: db}
}

// SpotStats returns every spot with its booking count and earnings. Spots
// without bookings report zero for both.
func (r *StatsRepository) SpotStats(ctx context.Context) ([]model.SpotStats, error) {
	rows, err := r.db.Query(ctx,
		`SELECT s.id, s.owner_id, s.label, s.address, s.price_per_hour, s.is_available, s.created_at,
		        u.full_name, u.external_id, u.username,
		        COUNT(b.id), COALESCE(SUM(b.total_price), 0)
		 FROM spots s
		 JOIN users u ON u.id = s.owner_id
		 LEFT JOIN bookings b ON b.spot_id = s.id
		 GROUP BY s.id, u.id
		 ORDER BY s.created_at DESC, s.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("spot stats: %w", err)
	}
	defer rows.Close()

	var stats []model.SpotStats
	for rows.Next() {
		var st model.SpotStats
		err := rows.Scan(
			&st.ID, &st.OwnerID, &st.Label, &st.Address, &st.PricePerHour, &st.IsAvailable, &st.CreatedAt,
			&st.OwnerName, &st.OwnerExternalID, &st.OwnerUsername,
			&st.BookingsCount, &st.TotalEarnings,
		)
		if err != nil {
			return nil, fmt.Errorf("scan spot stats: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// Totals computes the system-wide counters in one statement so they come from
// a single snapshot.
func (r *StatsRepository) Totals(ctx context.Context) (*model.Stats, error) {
	var st model.Stats
	err := r.db.QueryRow(ctx,
		`SELECT (SELECT COUNT(*) FROM users),
		        (SELECT COUNT(*) FROM spots),
		        (SELECT COUNT(*) FROM bookings),
		        (SELECT COALESCE(SUM(total_price), 0) FROM bookings),
		        (SELECT COUNT(*) FROM users WHERE is_admin)`,
	).Scan(&st.Users, &st.Spots, &st.Bookings, &st.Revenue, &st.Admins)
	if err != nil {
		return nil, fmt.Errorf("totals: %w", err)
	}
	return &st, nil
}
