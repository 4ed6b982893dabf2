package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// migrationLockKey serialises concurrent Migrate calls across processes.
const migrationLockKey = 7_884_533

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id          BIGSERIAL PRIMARY KEY,
	external_id BIGINT      NOT NULL UNIQUE,
	username    TEXT,
	full_name   TEXT        NOT NULL,
	phone       TEXT,
	car_plate   TEXT,
	is_admin    BOOLEAN     NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS spots (
	id             BIGSERIAL PRIMARY KEY,
	owner_id       BIGINT      NOT NULL REFERENCES users(id),
	label          TEXT        NOT NULL,
	address        TEXT        NOT NULL,
	price_per_hour INTEGER     NOT NULL CHECK (price_per_hour > 0),
	is_available   BOOLEAN     NOT NULL DEFAULT TRUE,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS spots_owner_idx ON spots (owner_id);
CREATE INDEX IF NOT EXISTS spots_available_idx ON spots (created_at DESC, id DESC) WHERE is_available;

CREATE TABLE IF NOT EXISTS bookings (
	id          BIGSERIAL PRIMARY KEY,
	user_id     BIGINT      NOT NULL REFERENCES users(id),
	spot_id     BIGINT      NOT NULL REFERENCES spots(id),
	hours       INTEGER     NOT NULL CHECK (hours > 0),
	total_price INTEGER     NOT NULL CHECK (total_price > 0),
	status      TEXT        NOT NULL DEFAULT 'active',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS bookings_user_idx ON bookings (user_id);
CREATE UNIQUE INDEX IF NOT EXISTS bookings_one_active_per_spot ON bookings (spot_id) WHERE status = 'active';
`

// Migrate creates the schema if missing and seeds the bootstrap administrator.
// It is safe to run on every start.
func Migrate(ctx context.Context, pool *pgxpool.Pool, adminExternalID int64, adminName string) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockKey); err != nil {
			return fmt.Errorf("acquire migration lock: %w", err)
		}
		if _, err := tx.Exec(ctx, schema); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO users (external_id, full_name, is_admin)
			 VALUES ($1, $2, TRUE)
			 ON CONFLICT (external_id) DO NOTHING`,
			adminExternalID, adminName,
		)
		if err != nil {
			return fmt.Errorf("seed bootstrap admin: %w", err)
		}
		return nil
	})
}
