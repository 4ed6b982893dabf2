package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/spot-booking/internal/model"
)

const userColumns = `id, external_id, full_name, username, is_admin, created_at`

// UserRepository handles persistence for users.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.ExternalID, &u.FullName, &u.Username, &u.IsAdmin, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// Register inserts the user or updates name and handle in place when the
// external id is already known. The admin flag and creation time survive.
func (r *UserRepository) Register(ctx context.Context, externalID int64, fullName string, username *string) (*model.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`INSERT INTO users (external_id, full_name, username)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (external_id) DO UPDATE
		 SET full_name = EXCLUDED.full_name, username = EXCLUDED.username
		 RETURNING `+userColumns,
		externalID, fullName, username,
	))
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return u, nil
}

// GetByExternalID returns the user or ErrNotFound.
func (r *UserRepository) GetByExternalID(ctx context.Context, externalID int64) (*model.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE external_id = $1`,
		externalID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// IsAdmin reports whether the user exists and carries the admin flag.
func (r *UserRepository) IsAdmin(ctx context.Context, externalID int64) (bool, error) {
	var isAdmin bool
	err := r.db.QueryRow(ctx,
		`SELECT is_admin FROM users WHERE external_id = $1`,
		externalID,
	).Scan(&isAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check admin: %w", err)
	}
	return isAdmin, nil
}

// SetAdmin sets the admin flag of a registered user.
func (r *UserRepository) SetAdmin(ctx context.Context, externalID int64, isAdmin bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET is_admin = $2 WHERE external_id = $1`,
		externalID, isAdmin,
	)
	if err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all users ordered by creation time descending.
func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
