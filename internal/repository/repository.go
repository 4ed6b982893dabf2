// Package repository implements all database queries for the parking spot
// booking system. It uses pgx directly (no ORM).
package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrSpotUnavailable is returned when a spot has already been booked.
var ErrSpotUnavailable = errors.New("spot is not available")

// ErrInvalidPrice is returned when a spot price is not a positive integer.
var ErrInvalidPrice = errors.New("price per hour must be positive")

// ErrInvalidHours is returned when a booking duration is not positive or the
// resulting total does not fit the price column.
var ErrInvalidHours = errors.New("invalid booking duration")

// PostgreSQL error codes the repositories translate.
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
