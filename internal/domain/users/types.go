package users

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWrongPassword      = errors.New("old password is incorrect")
	ErrWeakPassword       = errors.New("password does not meet complexity requirements")
	ErrInvalidResetToken  = errors.New("invalid or expired token")
	ErrMissingFields      = errors.New("missing required fields")
)

type User struct {
	ID                  string
	FullName            string
	Email               string
	PasswordHash        string
	ResetToken          string
	ResetTokenExpiresAt *time.Time
	CreatedAt           time.Time
}

type CreateParams struct {
	ID           string
	FullName     string
	Email        string
	PasswordHash string
}

type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, params CreateParams) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error
	// UpdatePasswordAndClearResetToken overwrites the hash and clears the
	// reset-token fields in one write, so a consumed token cannot be replayed.
	UpdatePasswordAndClearResetToken(ctx context.Context, id, passwordHash string) error
}
