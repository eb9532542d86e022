package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mb-events/server/internal/domain/users"
)

var _ users.Repository = (*UserRepository)(nil)

const uniqueViolation = "23505"

const userColumns = `id, full_name, email, password_hash, reset_token, reset_token_expires_at, created_at`

func (r *UserRepository) GetByID(ctx context.Context, id string) (*users.User, error) {
	q := r.queryer()
	return scanUser(q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	q := r.queryer()
	return scanUser(q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *UserRepository) Create(ctx context.Context, params users.CreateParams) (*users.User, error) {
	q := r.queryer()

	row := q.QueryRow(ctx, `
INSERT INTO users (id, full_name, email, password_hash)
VALUES ($1, $2, $3, $4)
RETURNING `+userColumns, params.ID, params.FullName, params.Email, params.PasswordHash)

	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, users.ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	q := r.queryer()

	tag, err := q.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	q := r.queryer()

	tag, err := q.Exec(ctx, `
UPDATE users
   SET reset_token = $2, reset_token_expires_at = $3
 WHERE id = $1`, id, token, expiresAt)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePasswordAndClearResetToken(ctx context.Context, id, passwordHash string) error {
	q := r.queryer()

	tag, err := q.Exec(ctx, `
UPDATE users
   SET password_hash = $2, reset_token = NULL, reset_token_expires_at = NULL
 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UserRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

func scanUser(row pgx.Row) (*users.User, error) {
	var (
		user       users.User
		resetToken *string
		expiresAt  *time.Time
	)
	err := row.Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.PasswordHash,
		&resetToken,
		&expiresAt,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, err
	}
	if resetToken != nil {
		user.ResetToken = *resetToken
	}
	user.ResetTokenExpiresAt = expiresAt
	return &user, nil
}
