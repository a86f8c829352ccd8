package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/widodo/go-cart-checkout/internal/postgres"
)

type PGUserStore struct {
	DB *pgxpool.Pool
}

const userCols = `id, username, email, password_hash, is_admin, created_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func (s *PGUserStore) Create(ctx context.Context, u User) (User, error) {
	q := postgres.QuerierFrom(ctx, s.DB)
	row := q.QueryRow(ctx, `
		INSERT INTO users(id, username, email, password_hash, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userCols,
		uuid.NewString(), u.Username, u.Email, u.PasswordHash, u.IsAdmin)
	created, err := scanUser(row)
	switch {
	case postgres.IsUniqueViolation(err, "users_username_key"):
		return User{}, ErrUsernameTaken
	case postgres.IsUniqueViolation(err, "users_email_key"):
		return User{}, ErrEmailTaken
	}
	return created, err
}

func (s *PGUserStore) ByID(ctx context.Context, id string) (User, error) {
	q := postgres.QuerierFrom(ctx, s.DB)
	return scanUser(q.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id))
}

func (s *PGUserStore) ByUsername(ctx context.Context, username string) (User, error) {
	q := postgres.QuerierFrom(ctx, s.DB)
	return scanUser(q.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE username=$1`, username))
}
