package users

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/mb-events/server/internal/auth"
	"github.com/mb-events/server/internal/domain/ids"
)

// BcryptCost is the cost factor for bcrypt password hashing.
const BcryptCost = 12

// Notifier sends transactional email. Failures are logged by the service but
// never fail the flow whose primary effect already succeeded.
type Notifier interface {
	SendWelcome(ctx context.Context, to, fullName, loginURL string) error
	SendPasswordReset(ctx context.Context, to, fullName, resetURL string) error
}

type Service struct {
	repo        Repository
	tokens      *auth.Manager
	notifier    Notifier
	frontendURL string
	logger      zerolog.Logger
	now         func() time.Time
}

func NewService(repo Repository, tokens *auth.Manager, notifier Notifier, frontendURL string, logger zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		tokens:      tokens,
		notifier:    notifier,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger.With().Str("component", "users").Logger(),
		now:         time.Now,
	}
}

// Register creates the account and attempts the welcome email.
func (s *Service) Register(ctx context.Context, fullName, email, password string) (*User, error) {
	fullName = strings.TrimSpace(fullName)
	email = normalizeEmail(email)
	if fullName == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: full name, email, and password are required", ErrMissingFields)
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, CreateParams{
		ID:           ids.MustNewULID(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, err
	}

	loginURL := s.frontendURL + "/login"
	if err := s.notifier.SendWelcome(ctx, user.Email, user.FullName, loginURL); err != nil {
		s.logger.Warn().Err(err).Str("email", user.Email).Msg("welcome email failed")
	}
	return user, nil
}

// Login verifies credentials and issues the session token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, fmt.Errorf("%w: email and password are required", ErrMissingFields)
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateSession(user.ID, user.Email, user.FullName)
	if err != nil {
		return "", nil, fmt.Errorf("generate session token: %w", err)
	}
	return token, user, nil
}

// ChangePassword swaps the password after re-verifying the old one. The new
// password must satisfy the complexity rule.
func (s *Service) ChangePassword(ctx context.Context, email, oldPassword, newPassword string) error {
	email = normalizeEmail(email)
	if email == "" || oldPassword == "" || newPassword == "" {
		return fmt.Errorf("%w: email, old password, and new password are required", ErrMissingFields)
	}

	if err := ValidatePasswordComplexity(newPassword); err != nil {
		return err
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, user.ID, string(hash))
}

// ForgotPassword stores a short-lived reset token on the user record and
// emails the reset link.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrMissingFields)
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := s.tokens.GenerateReset(user.ID)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	expiresAt := s.now().Add(15 * time.Minute)
	if err := s.repo.SetResetToken(ctx, user.ID, token, expiresAt); err != nil {
		return err
	}

	resetURL := s.frontendURL + "/reset-password?token=" + url.QueryEscape(token)
	if err := s.notifier.SendPasswordReset(ctx, user.Email, user.FullName, resetURL); err != nil {
		s.logger.Warn().Err(err).Str("email", user.Email).Msg("reset email failed")
	}
	return nil
}

// ResetPassword consumes a reset token: the token must verify, match the one
// stored for the user, and not be expired. The stored password is untouched
// unless every check passes.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return fmt.Errorf("%w: token and new password are required", ErrMissingFields)
	}

	claims, err := s.tokens.ValidateReset(token)
	if err != nil {
		return ErrInvalidResetToken
	}

	user, err := s.repo.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}

	if user.ResetToken == "" || user.ResetToken != token {
		return ErrInvalidResetToken
	}
	if user.ResetTokenExpiresAt == nil || !user.ResetTokenExpiresAt.After(s.now()) {
		return ErrInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.UpdatePasswordAndClearResetToken(ctx, user.ID, string(hash))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
